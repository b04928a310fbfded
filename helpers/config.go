package helpers

import (
	"github.com/Jeffail/gabs"
	"github.com/lunchcrew/lunchbot/cache"
)

// DEBUG_MODE is true when the bot runs with debug output enabled
var DEBUG_MODE bool

// config Saves the bot-config
var config *gabs.Container

// LoadConfig loads the config from $path into $config
func LoadConfig(path string) {
	json, err := gabs.ParseJSONFile(path)

	if err != nil {
		panic(err)
	}

	config = json
}

// GetConfig is a config getter
func GetConfig() *gabs.Container {
	return config
}

// ValidateConfig warns about missing values the bot needs for full operation.
// Startup continues either way, features relying on missing values degrade.
func ValidateConfig() bool {
	log := cache.GetLogger()

	requiredPaths := []string{
		"mongodb.url",
		"mongodb.db",
		"discord.token",
		"lunch.broadcast-channel",
	}

	ok := true
	for _, path := range requiredPaths {
		if !config.ExistsP(path) {
			log.WithField("module", "config").Warn("missing config value: " + path + ", some features will not work")
			ok = false
			continue
		}

		if value, _ := config.Path(path).Data().(string); value == "" {
			log.WithField("module", "config").Warn("empty config value: " + path + ", some features will not work")
			ok = false
		}
	}

	if ok {
		log.WithField("module", "config").Info("config validation passed")
	}

	return ok
}

// ConfigString reads a string value, returns "" if the path is not set
func ConfigString(path string) string {
	if config == nil || !config.ExistsP(path) {
		return ""
	}

	value, _ := config.Path(path).Data().(string)
	return value
}
