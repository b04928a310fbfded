package migrations

import (
	"github.com/globalsign/mgo"
	"github.com/lunchcrew/lunchbot/models"
)

func m6_create_index_qr_scans() {
	EnsureIndex(models.QRScanTable, mgo.Index{
		Key: []string{"responseid"},
	})
}
