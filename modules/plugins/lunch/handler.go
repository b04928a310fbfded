package lunch

import (
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	humanize "github.com/dustin/go-humanize"
	"github.com/lunchcrew/lunchbot/cache"
	"github.com/lunchcrew/lunchbot/helpers"
	"github.com/lunchcrew/lunchbot/metrics"
	"github.com/lunchcrew/lunchbot/models"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// Plugin is the lunch coordinator: daily DM polls, QR issuance and the
// serving-session lifecycle. The REST API reaches the same components
// through Default().
type Plugin struct {
	store         Store
	ledger        *Ledger
	issuer        *Issuer
	verifier      *Verifier
	conversations *Conversations
	sessions      *SessionTracker
	parser        *when.Parser
}

var defaultPlugin *Plugin

// Default returns the plugin instance once Init ran, nil before that
func Default() *Plugin {
	return defaultPlugin
}

func (p *Plugin) Commands() []string {
	return []string{
		"lunch",
	}
}

func (p *Plugin) Init(session *discordgo.Session) {
	p.store = NewMdbStore()
	p.ledger = NewLedger(p.store)
	p.issuer = NewIssuer(p.store)
	p.verifier = NewVerifier(p.store)
	p.conversations = NewConversations(p.store, p.ledger, p.issuer)
	p.sessions = NewSessionTracker(p.store, p.ledger, broadcastAnnouncement)

	p.parser = when.New(nil)
	p.parser.Add(en.All...)
	p.parser.Add(common.All...)

	defaultPlugin = p

	go p.pollSchedulerLoop()
}

func (p *Plugin) Ledger() *Ledger {
	return p.ledger
}

func (p *Plugin) Verifier() *Verifier {
	return p.verifier
}

func (p *Plugin) Sessions() *SessionTracker {
	return p.sessions
}

func (p *Plugin) Store() Store {
	return p.store
}

func (p *Plugin) Action(command string, content string, msg *discordgo.Message, session *discordgo.Session) {
	defer helpers.Recover()

	args := strings.Fields(content)
	if len(args) < 1 {
		p.sendHelp(msg)
		return
	}

	switch args[0] {
	case "status":
		p.actionStatus(args[1:], msg)
	case "poll":
		helpers.RequireAdmin(msg, func() {
			p.actionOpenPoll(args[1:], msg)
		})
	case "close":
		helpers.RequireAdmin(msg, func() {
			p.actionClosePoll(args[1:], msg)
		})
	case "serve":
		helpers.RequireAdmin(msg, func() {
			p.actionServe(args[1:], msg)
		})
	default:
		p.sendHelp(msg)
	}
}

func (p *Plugin) sendHelp(msg *discordgo.Message) {
	helpers.SendMessage(msg.ChannelID,
		"**lunch status [date]** poll and session overview\n"+
			"**lunch poll [date]** open the poll and DM everyone (admin)\n"+
			"**lunch close [date]** close the poll (admin)\n"+
			"**lunch serve <delta> [date]** correct the served counter (admin)")
}

// resolveDate turns trailing command arguments into a poll date, accepting
// both 2006-01-02 and natural language ("tomorrow"), defaulting to today
func (p *Plugin) resolveDate(args []string) string {
	if len(args) == 0 {
		return PollDateString(time.Now())
	}

	text := strings.Join(args, " ")
	if t, err := time.Parse(models.LunchPollDateFormat, text); err == nil {
		return PollDateString(t)
	}

	if result, err := p.parser.Parse(text, time.Now()); err == nil && result != nil {
		return PollDateString(result.Time)
	}

	return PollDateString(time.Now())
}

func (p *Plugin) actionStatus(args []string, msg *discordgo.Message) {
	date := p.resolveDate(args)

	poll, err := p.store.PollByDate(date)
	helpers.Relax(err)

	if poll == nil {
		helpers.SendMessage(msg.ChannelID, "No lunch poll for "+date+".")
		return
	}

	text := "Lunch poll for **" + date + "** (" + poll.Status + ", opened " + humanize.Time(poll.CreatedAt) + ")\n" +
		strconv.Itoa(poll.TotalResponses) + " responses: " +
		strconv.Itoa(poll.YesResponses) + "x yes, " +
		strconv.Itoa(poll.AdditionalResponses) + "x with additional lunches"

	session, err := p.sessions.SessionForDate(date)
	helpers.Relax(err)
	if session != nil {
		text += "\nSession: " + session.Status + ", served " +
			strconv.Itoa(session.TotalServed) + " of " + strconv.Itoa(session.TotalExpected) + " expected"
	}

	helpers.SendMessage(msg.ChannelID, text)
}

func (p *Plugin) actionOpenPoll(args []string, msg *discordgo.Message) {
	date := p.resolveDate(args)

	created, err := p.openDailyPoll(date)
	if err == ErrPollClosed {
		helpers.SendMessage(msg.ChannelID, "The lunch poll for "+date+" is already closed.")
		return
	}
	helpers.Relax(err)

	if !created {
		helpers.SendMessage(msg.ChannelID, "The lunch poll for "+date+" is already running.")
		return
	}

	helpers.SendMessage(msg.ChannelID, "Opened the lunch poll for "+date+" and sent the question to everyone.")
}

func (p *Plugin) actionClosePoll(args []string, msg *discordgo.Message) {
	date := p.resolveDate(args)

	err := p.ledger.ClosePoll(date)
	switch err {
	case nil:
		helpers.SendMessage(msg.ChannelID, "Closed the lunch poll for "+date+".")
	case ErrNoActivePoll:
		helpers.SendMessage(msg.ChannelID, "There is no lunch poll for "+date+".")
	case ErrPollClosed:
		helpers.SendMessage(msg.ChannelID, "The lunch poll for "+date+" was already closed.")
	default:
		helpers.Relax(err)
	}
}

func (p *Plugin) actionServe(args []string, msg *discordgo.Message) {
	if len(args) < 1 {
		helpers.SendMessage(msg.ChannelID, "Tell me by how much to correct the counter, e.g. `lunch serve -1`.")
		return
	}

	delta, err := strconv.Atoi(args[0])
	if err != nil || delta == 0 {
		helpers.SendMessage(msg.ChannelID, "That doesn't look like a counter correction.")
		return
	}

	date := p.resolveDate(args[1:])

	err = p.sessions.RecordServed(date, delta)
	switch err {
	case nil:
		helpers.SendMessage(msg.ChannelID, "Adjusted the served counter for "+date+" by "+strconv.Itoa(delta)+".")
	case ErrSessionNotActive:
		helpers.SendMessage(msg.ChannelID, "There is no active lunch session for "+date+".")
	case ErrServedBelowZero:
		helpers.SendMessage(msg.ChannelID, "That would push the served counter below zero.")
	default:
		helpers.Relax(err)
	}
}

// OnDirectMessage feeds one inbound DM into the conversation tracker.
// Called from the main message handler for every direct message.
func OnDirectMessage(msg *discordgo.Message) {
	defer helpers.Recover()

	p := defaultPlugin
	if p == nil {
		return
	}

	metrics.LunchDMsReceived.Add(1)

	user, err := p.store.UpsertUser(models.UserEntry{
		DiscordUserID: msg.Author.ID,
		Username:      msg.Author.Username,
		RealName:      msg.Author.Username,
		CreatedAt:     time.Now(),
	})
	helpers.Relax(err)

	reply, issued, err := p.conversations.HandleDirectMessage(user, PollDateString(time.Now()), msg.Content)
	helpers.Relax(err)

	if reply != "" {
		helpers.SendMessage(msg.ChannelID, reply)
	}

	if issued != nil {
		metrics.LunchResponsesRecorded.Add(1)

		responseID := helpers.MdbIdToHuman(issued.ID)
		if err := DeliverQRCode(responseID); err != nil {
			// the token is already persisted, hand delivery to machinery
			cache.GetLogger().WithField("module", "lunch").Warn("direct QR delivery failed, queueing: ", err.Error())
			if queueErr := QueueQRDelivery(responseID); queueErr != nil {
				helpers.SendError(msg, queueErr)
			}
		}
	}
}

// broadcastAnnouncement posts to the configured broadcast channel,
// silently doing nothing when none is configured
func broadcastAnnouncement(content string) (string, error) {
	channelID := helpers.ConfigString("lunch.broadcast-channel")
	if channelID == "" {
		return "", nil
	}

	message, err := helpers.SendMessage(channelID, content)
	if err != nil {
		return "", err
	}

	return message.ID, nil
}
