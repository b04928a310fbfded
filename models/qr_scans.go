package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	QRScanTable MongoDbCollection = "qr_scans"
)

// QRScanEntry is one redemption against a response's token, append-only
type QRScanEntry struct {
	ID                bson.ObjectId `bson:"_id,omitempty"`
	ResponseID        bson.ObjectId
	DiscordUserID     string
	Username          string
	ScannedBy         string
	ScannedAt         time.Time
	PollDate          string // LunchPollDateFormat
	ScanNumber        int
	TotalScansAllowed int
}
