package lunch

import (
	"time"

	"github.com/globalsign/mgo/bson"
	"github.com/lunchcrew/lunchbot/models"
)

// Store is the persistence boundary of the lunch coordinator. The database
// is the single source of truth and the only synchronization point, so every
// operation that has to be race-free (conversation advances, scan claims,
// session transitions) is a conditional write here instead of an in-process
// lock. Absent documents are returned as (nil, nil).
type Store interface {
	// users
	UpsertUser(user models.UserEntry) (*models.UserEntry, error)
	AllUsers() ([]models.UserEntry, error)

	// polls
	PollByDate(date string) (*models.LunchPollEntry, error)
	PollByID(id bson.ObjectId) (*models.LunchPollEntry, error)
	InsertPoll(poll models.LunchPollEntry) (*models.LunchPollEntry, error)
	// SetPollStatus only applies when the poll still has status $from,
	// returns ErrLostRace otherwise
	SetPollStatus(date string, from string, to string) error
	SetPollCounts(id bson.ObjectId, total int, yes int, additional int) error

	// responses
	// InsertResponse fails with ErrDuplicateResponse when the (poll, user)
	// pair already answered
	InsertResponse(response models.LunchResponseEntry) (*models.LunchResponseEntry, error)
	ResponseByID(id bson.ObjectId) (*models.LunchResponseEntry, error)
	ResponsesForPoll(pollID bson.ObjectId) ([]models.LunchResponseEntry, error)
	// AttachToken fails with ErrTokenCollision when another response already
	// carries $token
	AttachToken(responseID bson.ObjectId, token string, scansAllowed int) error
	MarkQRSent(responseID bson.ObjectId) error

	// conversation states
	ConversationState(pollID bson.ObjectId, discordUserID string) (*models.ConversationStateEntry, error)
	InsertConversationState(state models.ConversationStateEntry) (*models.ConversationStateEntry, error)
	// AdvanceConversationState is a compare-and-swap on the state field,
	// fails with ErrLostRace when the stored state is no longer $from
	AdvanceConversationState(id bson.ObjectId, from string, to string, at time.Time) error

	// scans
	// ClaimScan atomically consumes one redemption of $token and returns the
	// response after the claim. Fails with ErrTokenExhausted when the
	// allowance is used up and ErrTokenNotFound when no response carries the
	// token.
	ClaimScan(token string) (*models.LunchResponseEntry, error)
	AppendScan(scan models.QRScanEntry) (*models.QRScanEntry, error)
	ScansForResponse(responseID bson.ObjectId) ([]models.QRScanEntry, error)

	// sessions
	SessionByDate(date string) (*models.LunchSessionEntry, error)
	InsertSession(session models.LunchSessionEntry) (*models.LunchSessionEntry, error)
	// TransitionSession moves a session along pending → active → ended,
	// conditional on the current status, fails with ErrLostRace otherwise
	TransitionSession(date string, from string, to string, by string, at time.Time, expected int) (*models.LunchSessionEntry, error)
	SetSessionMessageID(date string, end bool, messageID string) error
	// AddServed fails with ErrSessionNotActive when no active session exists
	// for $date and with ErrServedBelowZero when a negative delta would push
	// the counter below zero
	AddServed(date string, delta int) error

	// staff
	StaffUserByName(username string) (*models.StaffUserEntry, error)
}
