package main

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/getsentry/raven-go"
	"github.com/lunchcrew/lunchbot/cache"
	"github.com/lunchcrew/lunchbot/helpers"
	"github.com/lunchcrew/lunchbot/modules"
	"github.com/lunchcrew/lunchbot/modules/plugins/lunch"
)

// BotOnReady gets called after the gateway connected
func BotOnReady(session *discordgo.Session, event *discordgo.Ready) {
	log := cache.GetLogger()

	log.WithField("module", "bot").Info("Connected to discord!")
	log.WithField("module", "bot").Info("Invite link: " + fmt.Sprintf(
		"https://discordapp.com/oauth2/authorize?client_id=%s&scope=bot&permissions=%s",
		helpers.ConfigString("discord.id"),
		helpers.ConfigString("discord.perms"),
	))

	// Cache the session
	cache.SetSession(session)

	// Load and init all modules
	modules.Init(session)
}

// BotOnMessageCreate gets called after a new message was sent
// This will be called after *every* message on *every* server so it should die as soon as possible
// or spawn costly work inside of coroutines.
func BotOnMessageCreate(session *discordgo.Session, message *discordgo.MessageCreate) {
	// Ignore other bots and @everyone/@here
	if message.Author.Bot || message.MentionEveryone {
		return
	}

	// Get the channel
	// Ignore the event if we cannot resolve the channel
	channel, err := cache.Channel(message.ChannelID)
	if err != nil {
		go raven.CaptureError(err, map[string]string{})
		return
	}

	// Direct messages feed the lunch dialogue
	if channel.Type == discordgo.ChannelTypeDM {
		session.ChannelTyping(message.ChannelID)
		go lunch.OnDirectMessage(message.Message)
		return
	}

	// Guild commands are @mention-prefixed
	if strings.HasPrefix(message.Content, "<@") && len(message.Mentions) > 0 && message.Mentions[0].ID == session.State.User.ID {
		msg := message.Content

		// Remove our @mention
		msg = strings.Replace(msg, "<@"+session.State.User.ID+">", "", -1)
		msg = strings.Replace(msg, "<@!"+session.State.User.ID+">", "", -1)
		msg = strings.TrimSpace(msg)

		fields := strings.Fields(msg)
		if len(fields) == 0 {
			return
		}

		command := strings.ToLower(fields[0])
		content := strings.TrimSpace(strings.TrimPrefix(msg, fields[0]))

		go modules.CallBotPlugin(command, content, message.Message)
	}
}
