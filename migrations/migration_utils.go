package migrations

import (
	"github.com/globalsign/mgo"
	"github.com/lunchcrew/lunchbot/helpers"
	"github.com/lunchcrew/lunchbot/models"
)

// EnsureIndex applies one index, failing the boot on errors since the
// uniqueness guarantees below are load-bearing
func EnsureIndex(collection models.MongoDbCollection, index mgo.Index) {
	err := helpers.MdbCollection(collection).EnsureIndex(index)
	helpers.Relax(err)
}
