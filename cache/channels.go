package cache

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// How long a cached channel pointer is valid (seconds)
var channelTimeout int64 = 60

var channelMutex = sync.Mutex{}

// Maps channel-id's to channel pointers
var channels = make(map[string]*discordgo.Channel)

// Maps channel-id's to unix timestamps
var channelMeta = make(map[string]int64)

func updateChannel(id string) error {
	channel, err := GetSession().Channel(id)
	if err != nil {
		return err
	}

	channelMutex.Lock()
	channels[id] = channel
	channelMeta[id] = time.Now().Unix()
	channelMutex.Unlock()

	return nil
}

// Channel tries to return a cached channel pointer
// If there is no cache a request is sent
func Channel(id string) (ch *discordgo.Channel, e error) {
	channelMutex.Lock()
	cached := channels[id]
	cachedAt := channelMeta[id]
	channelMutex.Unlock()

	if cached == nil || time.Now().Unix()-cachedAt > channelTimeout {
		e = updateChannel(id)

		channelMutex.Lock()
		cached = channels[id]
		channelMutex.Unlock()
	}

	return cached, e
}
