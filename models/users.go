package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	UserTable MongoDbCollection = "users"
)

type UserEntry struct {
	ID            bson.ObjectId `bson:"_id,omitempty"`
	DiscordUserID string
	Username      string
	RealName      string
	Email         string
	CreatedAt     time.Time
}
