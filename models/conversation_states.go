package models

import (
	"time"

	"github.com/globalsign/mgo/bson"
)

const (
	ConversationStateTable MongoDbCollection = "conversation_states"

	ConversationStateAwaitingResponse = "awaiting_response"
	ConversationStateAwaitingCount    = "awaiting_count"
	ConversationStateCompleted        = "completed"
)

// ConversationStateEntry tracks how far a user got answering one poll.
// There is one entry per (poll, user), entries for older polls stay around
// and get superseded by the entry for the next poll.
type ConversationStateEntry struct {
	ID            bson.ObjectId `bson:"_id,omitempty"`
	PollID        bson.ObjectId
	DiscordUserID string
	State         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
