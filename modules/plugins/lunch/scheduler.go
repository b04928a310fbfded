package lunch

import (
	"time"

	"github.com/lunchcrew/lunchbot/cache"
	"github.com/lunchcrew/lunchbot/helpers"
	"github.com/lunchcrew/lunchbot/metrics"
	"github.com/lunchcrew/lunchbot/models"
)

const defaultPollTime = "10:30"

// pollSchedulerLoop opens the daily poll on weekdays at lunch.poll-time.
// Creation is race-free across processes (unique poll index), so running
// several bot instances at most produces duplicate DM attempts, never
// duplicate polls.
func (p *Plugin) pollSchedulerLoop() {
	defer helpers.Recover()

	var lastOpenedDate string

	for {
		now := time.Now()

		if now.Weekday() != time.Saturday && now.Weekday() != time.Sunday {
			pollTime := helpers.ConfigString("lunch.poll-time")
			if pollTime == "" {
				pollTime = defaultPollTime
			}

			date := PollDateString(now)
			if date != lastOpenedDate && now.Format("15:04") >= pollTime {
				created, err := p.openDailyPoll(date)
				if err != nil && err != ErrPollClosed {
					cache.GetLogger().WithField("module", "lunch").Error("opening daily poll failed: ", err.Error())
				} else {
					lastOpenedDate = date
					if created {
						cache.GetLogger().WithField("module", "lunch").Info("opened daily lunch poll for ", date)
					}
				}
			}
		}

		time.Sleep(1 * time.Minute)
	}
}

// openDailyPoll creates the poll for $date if it doesn't exist yet and DMs
// the lunch question to every known user. Reports created=false when
// another process (or an earlier run) already opened it, in which case no
// DMs go out again.
func (p *Plugin) openDailyPoll(date string) (created bool, err error) {
	poll, created, err := p.ledger.GetOrCreateActivePoll(date)
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}

	metrics.LunchPollsCreated.Add(1)

	broadcastAnnouncement(":bento: The lunch poll for " + date + " is open! Check your DMs.")

	users, err := p.store.AllUsers()
	if err != nil {
		return true, err
	}

	question := "Hey! Are you in for lunch on **" + date + "**? " +
		"Answer **yes**, **no** or **additional** if you want to bring guests."

	for _, user := range users {
		p.sendPollQuestion(poll, user, question)
	}

	return true, nil
}

// sendPollQuestion DMs one user, a single unreachable user never blocks
// the rest of the roster
func (p *Plugin) sendPollQuestion(poll *models.LunchPollEntry, user models.UserEntry, question string) {
	defer helpers.Recover()

	_, err := p.store.InsertConversationState(models.ConversationStateEntry{
		PollID:        poll.ID,
		DiscordUserID: user.DiscordUserID,
		State:         models.ConversationStateAwaitingResponse,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	})
	if err != nil && err != ErrLostRace {
		helpers.Relax(err)
	}

	dmChannel, err := helpers.GetDMChannel(user.DiscordUserID)
	if err != nil {
		cache.GetLogger().WithField("module", "lunch").Warn(
			"no DM channel for user ", user.DiscordUserID, ": ", err.Error())
		return
	}

	_, err = helpers.SendMessage(dmChannel.ID, question)
	if err != nil {
		cache.GetLogger().WithField("module", "lunch").Warn(
			"sending lunch question to ", user.DiscordUserID, " failed: ", err.Error())
	}
}
