package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	LunchPollTable MongoDbCollection = "lunch_polls"

	LunchPollStatusActive    = "active"
	LunchPollStatusCompleted = "completed"

	// LunchPollDateFormat is the layout polls, sessions and scans key their date by
	LunchPollDateFormat = "2006-01-02"
)

type LunchPollEntry struct {
	ID        bson.ObjectId `bson:"_id,omitempty"`
	Date      string        // LunchPollDateFormat
	Status    string
	CreatedAt time.Time

	// derived from LunchResponseTable, recounted after every response write
	TotalResponses      int
	YesResponses        int
	AdditionalResponses int
}
