package lunch

import (
	"strconv"
	"time"

	"github.com/lunchcrew/lunchbot/models"
)

// AnnounceFunc posts a session announcement and returns the message ID.
// A nil AnnounceFunc keeps sessions silent.
type AnnounceFunc func(content string) (messageID string, err error)

// SessionTracker drives the serving-window lifecycle for a date:
// pending → active → ended, never skipping and never reversing a step.
type SessionTracker struct {
	store    Store
	ledger   *Ledger
	announce AnnounceFunc
	now      func() time.Time
}

func NewSessionTracker(store Store, ledger *Ledger, announce AnnounceFunc) *SessionTracker {
	return &SessionTracker{
		store:    store,
		ledger:   ledger,
		announce: announce,
		now:      time.Now,
	}
}

// Start opens the serving window for $date. Fails with
// ErrSessionAlreadyActive when the date's session was already started
// (active or ended), no matter who started it.
func (t *SessionTracker) Start(date string, startedBy string) (*models.LunchSessionEntry, error) {
	existing, err := t.store.SessionByDate(date)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status != models.LunchSessionStatusPending {
		return nil, ErrSessionAlreadyActive
	}
	if existing == nil {
		_, err = t.store.InsertSession(models.LunchSessionEntry{
			Date:      date,
			Status:    models.LunchSessionStatusPending,
			CreatedAt: t.now(),
		})
		if err != nil && err != ErrLostRace {
			return nil, err
		}
	}

	expected := 0
	if poll, pollErr := t.store.PollByDate(date); pollErr == nil && poll != nil {
		expected, _ = t.ledger.ExpectedServings(poll.ID)
	}

	session, err := t.store.TransitionSession(
		date,
		models.LunchSessionStatusPending,
		models.LunchSessionStatusActive,
		startedBy,
		t.now(),
		expected,
	)
	if err == ErrLostRace {
		return nil, ErrSessionAlreadyActive
	}
	if err != nil {
		return nil, err
	}

	if t.announce != nil {
		messageID, announceErr := t.announce(
			":fork_knife_plate: Lunch service for " + date + " is open! Expecting " +
				humanServings(session.TotalExpected) + ". Started by " + startedBy + ".")
		if announceErr == nil && messageID != "" {
			t.store.SetSessionMessageID(date, false, messageID)
		}
	}

	return session, nil
}

// End closes the serving window for $date. Fails with ErrSessionNotActive
// unless the session is currently active.
func (t *SessionTracker) End(date string, endedBy string) (*models.LunchSessionEntry, error) {
	session, err := t.store.TransitionSession(
		date,
		models.LunchSessionStatusActive,
		models.LunchSessionStatusEnded,
		endedBy,
		t.now(),
		0,
	)
	if err == ErrLostRace {
		return nil, ErrSessionNotActive
	}
	if err != nil {
		return nil, err
	}

	if t.announce != nil {
		messageID, announceErr := t.announce(
			":checkered_flag: Lunch service for " + date + " is over. Served " +
				strconv.Itoa(session.TotalServed) + " of " +
				strconv.Itoa(session.TotalExpected) + " expected. Ended by " + endedBy + ".")
		if announceErr == nil && messageID != "" {
			t.store.SetSessionMessageID(date, true, messageID)
		}
	}

	return session, nil
}

// RecordServed moves the served counter of the active session for $date.
// The counter never drops below zero, overserving is observable but not
// prevented.
func (t *SessionTracker) RecordServed(date string, delta int) error {
	return t.store.AddServed(date, delta)
}

// SessionForDate is a plain read, nil when no session exists yet
func (t *SessionTracker) SessionForDate(date string) (*models.LunchSessionEntry, error) {
	return t.store.SessionByDate(date)
}

func humanServings(count int) string {
	if count == 1 {
		return "1 serving"
	}
	return strconv.Itoa(count) + " servings"
}
