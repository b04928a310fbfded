package modules

import (
	"github.com/lunchcrew/lunchbot/modules/plugins/lunch"
)

var (
	pluginCache map[string]*Plugin

	PluginList = []Plugin{
		&lunch.Plugin{},
	}
)
