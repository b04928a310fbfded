// Except.go: Contains functions to make handling panics less PITA

package helpers

import (
	"fmt"
	"runtime"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/lunchcrew/lunchbot/cache"
)

// RecoverDiscord recover()s and sends a message to discord
func RecoverDiscord(msg *discordgo.Message) {
	err := recover()
	if err != nil {
		SendError(msg, err)
	}
}

// Recover recover()s and prints the error to console
func Recover() {
	err := recover()
	if err != nil {
		fmt.Printf("%#v\n", err)

		raven.CaptureError(fmt.Errorf("%#v", err), map[string]string{})
	}
}

// SoftRelax is a softer form of Relax()
// Calls a callback instead of panicking
func SoftRelax(err error, cb Callback) {
	if err != nil {
		cb()
	}
}

// Relax is a helper to reduce if-checks if panicking is allowed
// If $err is nil this is a no-op. Panics otherwise.
func Relax(err error) {
	if err != nil {
		if DEBUG_MODE == true {
			fmt.Printf("%#v\n", err)
		}
		panic(err)
	}
}

// SendError takes an error and sends it to discord and sentry.io
func SendError(msg *discordgo.Message, err interface{}) {
	if DEBUG_MODE == true {
		buf := make([]byte, 1<<16)
		stackSize := runtime.Stack(buf, false)

		cache.GetSession().ChannelMessageSend(
			msg.ChannelID,
			"Error :frowning:\n```\n"+fmt.Sprintf("%#v\n", err)+fmt.Sprintf("%s\n", string(buf[0:stackSize]))+"\n```",
		)
	} else {
		if msg != nil {
			cache.GetSession().ChannelMessageSend(
				msg.ChannelID,
				"Error :frowning:\n```\n"+fmt.Sprintf("%#v", err)+"\n```",
			)
		}
	}

	if msg != nil {
		raven.SetUserContext(&raven.User{
			ID:       msg.ID,
			Username: msg.Author.Username + "#" + msg.Author.Discriminator,
		})

		raven.CaptureError(fmt.Errorf("%#v", err), map[string]string{
			"ChannelID": msg.ChannelID,
			"Content":   msg.Content,
		})
	}
}
