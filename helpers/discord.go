package helpers

import (
	"io"

	"github.com/bwmarrin/discordgo"
	"github.com/lunchcrew/lunchbot/cache"
)

// IsBotAdmin checks if $id is listed as a bot admin in the config
func IsBotAdmin(id string) bool {
	admins, err := GetConfig().Path("discord.admins").Children()
	if err != nil {
		return false
	}

	for _, admin := range admins {
		if adminID, ok := admin.Data().(string); ok && adminID == id {
			return true
		}
	}

	return false
}

func IsAdmin(msg *discordgo.Message) bool {
	channel, e := cache.GetSession().Channel(msg.ChannelID)
	if e != nil {
		return false
	}

	guild, e := cache.GetSession().Guild(channel.GuildID)
	if e != nil {
		return false
	}

	if msg.Author.ID == guild.OwnerID || IsBotAdmin(msg.Author.ID) {
		return true
	}

	guildMember, e := cache.GetSession().GuildMember(guild.ID, msg.Author.ID)
	if e != nil {
		return false
	}
	// Check if role may manage server
	for _, role := range guild.Roles {
		for _, userRole := range guildMember.Roles {
			if userRole == role.ID && role.Permissions&discordgo.PermissionManageServer == discordgo.PermissionManageServer {
				return true
			}
		}
	}

	return false
}

// RequireAdmin only calls $cb if the author is an admin or has MANAGE_SERVER permission
func RequireAdmin(msg *discordgo.Message, cb Callback) {
	if !IsAdmin(msg) {
		cache.GetSession().ChannelMessageSend(msg.ChannelID, "You are not allowed to do that.")
		return
	}

	cb()
}

// SendMessage sends $content to $channelID
func SendMessage(channelID string, content string) (*discordgo.Message, error) {
	return cache.GetSession().ChannelMessageSend(channelID, content)
}

// SendFile uploads a file to $channelID with $content as accompanying text
func SendFile(channelID string, filename string, reader io.Reader, content string) (*discordgo.Message, error) {
	return cache.GetSession().ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Content: content,
		Files: []*discordgo.File{
			{
				Name:   filename,
				Reader: reader,
			},
		},
	})
}

// GetDMChannel opens (or reuses) the DM channel with $userID
func GetDMChannel(userID string) (*discordgo.Channel, error) {
	return cache.GetSession().UserChannelCreate(userID)
}

// GetUser resolves a user via the API
func GetUser(userID string) (*discordgo.User, error) {
	return cache.GetSession().User(userID)
}
