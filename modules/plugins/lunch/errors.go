package lunch

import "github.com/pkg/errors"

// Domain failures get surfaced to the caller, they are never retried or
// panicked. The REST layer and the DM replies map them to reason codes.
var (
	ErrNoActivePoll         = errors.New("no active lunch poll for this date")
	ErrPollClosed           = errors.New("lunch poll for this date is already completed")
	ErrDuplicateResponse    = errors.New("user already answered this lunch poll")
	ErrUnknownResponseType  = errors.New("response type must be yes or additional")
	ErrBadAdditionalCount   = errors.New("additional responses need a count of at least one")
	ErrInvalidTokenFormat   = errors.New("token is not 16 alphanumeric characters")
	ErrTokenNotFound        = errors.New("no response matches this token")
	ErrTokenExhausted       = errors.New("token scan allowance is used up")
	ErrTokenCollision       = errors.New("generated token is already in use")
	ErrSessionAlreadyActive = errors.New("lunch session for this date was already started")
	ErrSessionNotActive     = errors.New("lunch session for this date is not active")
	ErrServedBelowZero      = errors.New("served count can not drop below zero")
	ErrLostRace             = errors.New("conversation state changed concurrently")
)
