package metrics

import (
	"expvar"
	"net/http"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lunchcrew/lunchbot/cache"
	"github.com/lunchcrew/lunchbot/helpers"
)

var (
	// MessagesReceived counts all ever received messages
	MessagesReceived = expvar.NewInt("messages_received")

	// CommandsExecuted increases after each command execution
	CommandsExecuted = expvar.NewInt("commands_executed")

	// LunchDMsReceived counts direct messages routed into the lunch dialogue
	LunchDMsReceived = expvar.NewInt("lunch_dms_received")

	// LunchPollsCreated counts opened daily polls
	LunchPollsCreated = expvar.NewInt("lunch_polls_created")

	// LunchResponsesRecorded counts confirmed lunch responses
	LunchResponsesRecorded = expvar.NewInt("lunch_responses_recorded")

	// LunchQRScans counts successful QR redemptions
	LunchQRScans = expvar.NewInt("lunch_qr_scans")

	// CoroutineCount counts all running coroutines
	CoroutineCount = expvar.NewInt("coroutine_count")

	// Uptime stores the timestamp of the bot's boot
	Uptime = expvar.NewInt("uptime")
)

// Init starts the expvar http server on metrics.ip:1337
func Init() {
	cache.GetLogger().WithField("module", "metrics").Info("Listening on TCP/1337")
	Uptime.Set(time.Now().Unix())
	go http.ListenAndServe(helpers.ConfigString("metrics.ip")+":1337", nil)
}

// OnReady listens for said discord event
func OnReady(session *discordgo.Session, event *discordgo.Ready) {
	go CollectRuntimeMetrics()
}

// OnMessageCreate listens for said discord event
func OnMessageCreate(session *discordgo.Session, event *discordgo.MessageCreate) {
	MessagesReceived.Add(1)
}

// CollectRuntimeMetrics counts all running coroutines
func CollectRuntimeMetrics() {
	for {
		time.Sleep(15 * time.Second)
		CoroutineCount.Set(int64(runtime.NumGoroutine()))
	}
}
