package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	LunchResponseTable MongoDbCollection = "lunch_responses"

	LunchResponseTypeYes        = "yes"
	LunchResponseTypeAdditional = "additional"
)

type LunchResponseEntry struct {
	ID            bson.ObjectId `bson:"_id,omitempty"`
	PollID        bson.ObjectId
	UserID        bson.ObjectId
	DiscordUserID string
	Username      string
	RealName      string
	ResponseType  string
	// only set for ResponseType == LunchResponseTypeAdditional
	AdditionalCount int
	CreatedAt       time.Time

	QRToken string `bson:"qr_token,omitempty"`
	QRSent  bool   `bson:"qr_sent"`
	// ScansUsed + ScansRemaining always sum to TotalScansAllowed, both are
	// moved in one atomic findAndModify so the allowance can never overshoot
	ScansUsed         int `bson:"scans_used"`
	ScansRemaining    int `bson:"scans_remaining"`
	TotalScansAllowed int `bson:"total_scans_allowed"`
}
