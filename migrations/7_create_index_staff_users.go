package migrations

import (
	"github.com/globalsign/mgo"
	"github.com/lunchcrew/lunchbot/models"
)

func m7_create_index_staff_users() {
	EnsureIndex(models.StaffUserTable, mgo.Index{
		Key:    []string{"username"},
		Unique: true,
	})
}
