package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	StaffUserTable MongoDbCollection = "staff_users"
)

type StaffUserEntry struct {
	ID           bson.ObjectId `bson:"_id,omitempty"`
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}
