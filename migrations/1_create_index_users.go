package migrations

import (
	"github.com/globalsign/mgo"
	"github.com/lunchcrew/lunchbot/models"
)

func m1_create_index_users() {
	EnsureIndex(models.UserTable, mgo.Index{
		Key:    []string{"discorduserid"},
		Unique: true,
	})
}
