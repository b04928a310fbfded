package migrations

import (
	"reflect"
	"runtime"

	"github.com/lunchcrew/lunchbot/cache"
	"github.com/lunchcrew/lunchbot/helpers"
)

var migrations = []helpers.Callback{
	m1_create_index_users,
	m2_create_index_lunch_polls,
	m3_create_indexes_lunch_responses,
	m4_create_index_conversation_states,
	m5_create_index_lunch_sessions,
	m6_create_index_qr_scans,
	m7_create_index_staff_users,
}

// Run executes all registered migrations
func Run() {
	log := cache.GetLogger().WithField("module", "migrations")
	log.Info("Running migrations...")

	for _, migration := range migrations {
		migrationName := runtime.FuncForPC(
			reflect.ValueOf(migration).Pointer(),
		).Name()

		log.Info("Running ", migrationName)
		migration()
	}

	log.Info("Migrations finished!")
}
