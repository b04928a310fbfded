package lunch

import (
	"strconv"
	"strings"
	"time"

	"github.com/lunchcrew/lunchbot/models"
)

// dialogueAction is what an inbound DM asks us to do once the state machine
// looked at it
type dialogueAction int

const (
	actionNone dialogueAction = iota
	actionAskCount
	actionRecordYes
	actionRecordAdditional
	actionDecline
	actionRepromptAnswer
	actionRepromptCount
	actionNoActiveQuestion
)

// keep the count a human could plausibly mean, everything else re-prompts
const maxAdditionalLunches = 50

// classifyAnswer maps free-form DM text onto one of the lunch answers
func classifyAnswer(text string) (kind string, ok bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "yes", "y", "yeah", "yep", "sure", "ja":
		return models.LunchResponseTypeYes, true
	case "no", "n", "nope", "nah", "nein":
		return "no", true
	case "additional", "extra", "more", "+":
		return models.LunchResponseTypeAdditional, true
	}

	return "", false
}

// parseAdditionalCount reads the awaited count reply, tolerating things like
// "3 please" by looking at the first field only
func parseAdditionalCount(text string) (count int, ok bool) {
	fields := strings.Fields(strings.TrimSpace(text))
	if len(fields) == 0 {
		return 0, false
	}

	count, err := strconv.Atoi(strings.TrimSuffix(fields[0], "x"))
	if err != nil || count < 1 || count > maxAdditionalLunches {
		return 0, false
	}

	return count, true
}

// nextDialogueStep is the transition function of the conversation state
// machine. It never touches storage: invalid input yields the same state
// again (re-prompt, not failure), so retrying a message is idempotent.
func nextDialogueStep(state string, text string) (next string, action dialogueAction, count int) {
	switch state {
	case models.ConversationStateAwaitingResponse:
		kind, ok := classifyAnswer(text)
		if !ok {
			return state, actionRepromptAnswer, 0
		}
		switch kind {
		case models.LunchResponseTypeYes:
			return models.ConversationStateCompleted, actionRecordYes, 0
		case models.LunchResponseTypeAdditional:
			return models.ConversationStateAwaitingCount, actionAskCount, 0
		default: // "no"
			return models.ConversationStateCompleted, actionDecline, 0
		}

	case models.ConversationStateAwaitingCount:
		count, ok := parseAdditionalCount(text)
		if !ok {
			return state, actionRepromptCount, 0
		}
		return models.ConversationStateCompleted, actionRecordAdditional, count

	case models.ConversationStateCompleted:
		return state, actionNoActiveQuestion, 0
	}

	return state, actionNone, 0
}

// Conversations tracks the DM dialogue per (poll, user) and drives the
// ledger and the token issuer when a dialogue completes
type Conversations struct {
	store  Store
	ledger *Ledger
	issuer *Issuer
	now    func() time.Time
}

func NewConversations(store Store, ledger *Ledger, issuer *Issuer) *Conversations {
	return &Conversations{
		store:  store,
		ledger: ledger,
		issuer: issuer,
		now:    time.Now,
	}
}

// HandleDirectMessage advances the dialogue of $user for the poll of $date
// by one inbound message. It returns the reply to send back ("" keeps
// silent, e.g. when a concurrent message already advanced the state) and,
// when the dialogue just completed with a confirmation, the response whose
// QR code still needs to be delivered.
func (c *Conversations) HandleDirectMessage(user *models.UserEntry, date string, text string) (reply string, issued *models.LunchResponseEntry, err error) {
	poll, err := c.ledger.ActivePoll(date)
	if err == ErrNoActivePoll || err == ErrPollClosed {
		return "There is no open lunch question right now.", nil, nil
	}
	if err != nil {
		return "", nil, err
	}

	state, err := c.store.ConversationState(poll.ID, user.DiscordUserID)
	if err != nil {
		return "", nil, err
	}
	if state == nil {
		state, err = c.store.InsertConversationState(models.ConversationStateEntry{
			PollID:        poll.ID,
			DiscordUserID: user.DiscordUserID,
			State:         models.ConversationStateAwaitingResponse,
			CreatedAt:     c.now(),
			UpdatedAt:     c.now(),
		})
		if err == ErrLostRace {
			state, err = c.store.ConversationState(poll.ID, user.DiscordUserID)
		}
		if err != nil {
			return "", nil, err
		}
	}

	next, action, count := nextDialogueStep(state.State, text)

	switch action {
	case actionNoActiveQuestion:
		return "You already answered today's lunch question. See you at lunch!", nil, nil

	case actionRepromptAnswer:
		return "Please answer with **yes**, **no** or **additional** (if you want to bring guests).", nil, nil

	case actionRepromptCount:
		return "That doesn't look like a number. How many additional lunches should I plan? Just reply with the number.", nil, nil

	case actionAskCount:
		if err := c.store.AdvanceConversationState(state.ID, state.State, next, c.now()); err != nil {
			if err == ErrLostRace {
				// a concurrent message won, stay silent
				return "", nil, nil
			}
			return "", nil, err
		}
		return "How many additional lunches should I plan for you?", nil, nil

	case actionDecline:
		if err := c.store.AdvanceConversationState(state.ID, state.State, next, c.now()); err != nil {
			if err == ErrLostRace {
				return "", nil, nil
			}
			return "", nil, err
		}
		return "Alright, no lunch for you on " + date + ". Thanks for letting me know!", nil, nil

	case actionRecordYes, actionRecordAdditional:
		responseType := models.LunchResponseTypeYes
		if action == actionRecordAdditional {
			responseType = models.LunchResponseTypeAdditional
		}

		response, err := c.ledger.RecordResponse(poll, user, responseType, count)
		if err == ErrDuplicateResponse {
			// answered before, e.g. through a superseded conversation
			c.store.AdvanceConversationState(state.ID, state.State, models.ConversationStateCompleted, c.now())
			return "You already answered this lunch poll, I kept your first answer.", nil, nil
		}
		if err != nil {
			return "", nil, err
		}

		// best effort, the unique response index already blocks duplicates
		c.store.AdvanceConversationState(state.ID, state.State, models.ConversationStateCompleted, c.now())

		response, err = c.issuer.Issue(response)
		if err != nil {
			return "", nil, err
		}

		if responseType == models.LunchResponseTypeAdditional {
			return "Got it, you plus " + strconv.Itoa(count) + " additional lunches for " + date + ". Your QR code is on the way!", response, nil
		}
		return "Got it, you're in for lunch on " + date + ". Your QR code is on the way!", response, nil
	}

	return "", nil, nil
}
