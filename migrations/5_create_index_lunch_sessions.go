package migrations

import (
	"github.com/globalsign/mgo"
	"github.com/lunchcrew/lunchbot/models"
)

func m5_create_index_lunch_sessions() {
	EnsureIndex(models.LunchSessionTable, mgo.Index{
		Key:    []string{"date"},
		Unique: true,
	})
}
