package migrations

import (
	"github.com/globalsign/mgo"
	"github.com/lunchcrew/lunchbot/models"
)

func m4_create_index_conversation_states() {
	EnsureIndex(models.ConversationStateTable, mgo.Index{
		Key:    []string{"pollid", "discorduserid"},
		Unique: true,
	})
}
