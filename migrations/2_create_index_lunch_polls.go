package migrations

import (
	"github.com/globalsign/mgo"
	"github.com/lunchcrew/lunchbot/models"
)

// one poll per calendar date, concurrent opens race on this index
func m2_create_index_lunch_polls() {
	EnsureIndex(models.LunchPollTable, mgo.Index{
		Key:    []string{"date"},
		Unique: true,
	})
}
