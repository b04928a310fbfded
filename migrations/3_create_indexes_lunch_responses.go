package migrations

import (
	"github.com/globalsign/mgo"
	"github.com/lunchcrew/lunchbot/models"
)

// one response per user per poll, and globally unique tokens where issued
func m3_create_indexes_lunch_responses() {
	EnsureIndex(models.LunchResponseTable, mgo.Index{
		Key:    []string{"pollid", "discorduserid"},
		Unique: true,
	})
	EnsureIndex(models.LunchResponseTable, mgo.Index{
		Key:    []string{"qr_token"},
		Unique: true,
		Sparse: true,
	})
}
