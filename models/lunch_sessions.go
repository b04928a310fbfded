package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	LunchSessionTable MongoDbCollection = "lunch_sessions"

	LunchSessionStatusPending = "pending"
	LunchSessionStatusActive  = "active"
	LunchSessionStatusEnded   = "ended"
)

type LunchSessionEntry struct {
	ID        bson.ObjectId `bson:"_id,omitempty"`
	Date      string        // LunchPollDateFormat
	Status    string
	StartTime time.Time `bson:"start_time,omitempty"`
	EndTime   time.Time `bson:"end_time,omitempty"`
	StartedBy string
	EndedBy   string
	CreatedAt time.Time

	TotalExpected int
	TotalServed   int

	// broadcast channel announcement message IDs
	StartMessageID string
	EndMessageID   string
}
