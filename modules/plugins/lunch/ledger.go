package lunch

import (
	"time"

	"github.com/globalsign/mgo/bson"
	"github.com/lunchcrew/lunchbot/models"
)

// Ledger owns the poll documents and their response sets. Poll counts are
// derived data, recomputed from the responses after every write before the
// writing call returns.
type Ledger struct {
	store Store
	now   func() time.Time
}

func NewLedger(store Store) *Ledger {
	return &Ledger{
		store: store,
		now:   time.Now,
	}
}

// PollDateString formats $t the way polls, sessions and scans key their date
func PollDateString(t time.Time) string {
	return t.Format(models.LunchPollDateFormat)
}

// ActivePoll returns the active poll for $date,
// ErrNoActivePoll when none exists, ErrPollClosed when it is completed
func (l *Ledger) ActivePoll(date string) (*models.LunchPollEntry, error) {
	poll, err := l.store.PollByDate(date)
	if err != nil {
		return nil, err
	}
	if poll == nil {
		return nil, ErrNoActivePoll
	}
	if poll.Status == models.LunchPollStatusCompleted {
		return nil, ErrPollClosed
	}

	return poll, nil
}

// GetOrCreateActivePoll returns the poll for $date, creating it when
// necessary. $created reports whether this call created it. Fails with
// ErrPollClosed when the date's poll is already completed.
func (l *Ledger) GetOrCreateActivePoll(date string) (poll *models.LunchPollEntry, created bool, err error) {
	poll, err = l.store.PollByDate(date)
	if err != nil {
		return nil, false, err
	}
	if poll != nil {
		if poll.Status == models.LunchPollStatusCompleted {
			return nil, false, ErrPollClosed
		}
		return poll, false, nil
	}

	poll, err = l.store.InsertPoll(models.LunchPollEntry{
		Date:      date,
		Status:    models.LunchPollStatusActive,
		CreatedAt: l.now(),
	})
	if err == ErrLostRace {
		// another process created it first, use theirs
		poll, err = l.store.PollByDate(date)
		if err != nil {
			return nil, false, err
		}
		if poll != nil && poll.Status == models.LunchPollStatusCompleted {
			return nil, false, ErrPollClosed
		}
		return poll, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	return poll, true, nil
}

// ClosePoll completes the active poll for $date
func (l *Ledger) ClosePoll(date string) error {
	err := l.store.SetPollStatus(date, models.LunchPollStatusActive, models.LunchPollStatusCompleted)
	if err != ErrLostRace {
		return err
	}

	poll, findErr := l.store.PollByDate(date)
	if findErr != nil {
		return findErr
	}
	if poll == nil {
		return ErrNoActivePoll
	}
	return ErrPollClosed
}

// RecordResponse stores one user's answer to $poll. At most one response per
// (poll, user) exists, resubmissions fail with ErrDuplicateResponse. The
// poll counts are recomputed before the call returns.
func (l *Ledger) RecordResponse(poll *models.LunchPollEntry, user *models.UserEntry, responseType string, additionalCount int) (*models.LunchResponseEntry, error) {
	switch responseType {
	case models.LunchResponseTypeYes:
		additionalCount = 0
	case models.LunchResponseTypeAdditional:
		if additionalCount < 1 {
			return nil, ErrBadAdditionalCount
		}
	default:
		return nil, ErrUnknownResponseType
	}

	response, err := l.store.InsertResponse(models.LunchResponseEntry{
		PollID:          poll.ID,
		UserID:          user.ID,
		DiscordUserID:   user.DiscordUserID,
		Username:        user.Username,
		RealName:        user.RealName,
		ResponseType:    responseType,
		AdditionalCount: additionalCount,
		CreatedAt:       l.now(),
	})
	if err != nil {
		return nil, err
	}

	if err := l.recountPoll(poll.ID); err != nil {
		return nil, err
	}

	return response, nil
}

// ExpectedServings sums the serving allowance over all responses of $pollID
func (l *Ledger) ExpectedServings(pollID bson.ObjectId) (int, error) {
	responses, err := l.store.ResponsesForPoll(pollID)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, response := range responses {
		total += scansAllowedFor(response.ResponseType, response.AdditionalCount)
	}

	return total, nil
}

func (l *Ledger) recountPoll(pollID bson.ObjectId) error {
	responses, err := l.store.ResponsesForPoll(pollID)
	if err != nil {
		return err
	}

	var yes, additional int
	for _, response := range responses {
		switch response.ResponseType {
		case models.LunchResponseTypeYes:
			yes++
		case models.LunchResponseTypeAdditional:
			additional++
		}
	}

	return l.store.SetPollCounts(pollID, len(responses), yes, additional)
}
