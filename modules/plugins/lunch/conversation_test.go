package lunch

import (
	"strings"
	"testing"

	"github.com/lunchcrew/lunchbot/models"
)

func TestNextDialogueStep(t *testing.T) {
	tests := []struct {
		state      string
		text       string
		nextState  string
		action     dialogueAction
		count      int
	}{
		{models.ConversationStateAwaitingResponse, "yes", models.ConversationStateCompleted, actionRecordYes, 0},
		{models.ConversationStateAwaitingResponse, " YES ", models.ConversationStateCompleted, actionRecordYes, 0},
		{models.ConversationStateAwaitingResponse, "nope", models.ConversationStateCompleted, actionDecline, 0},
		{models.ConversationStateAwaitingResponse, "additional", models.ConversationStateAwaitingCount, actionAskCount, 0},
		{models.ConversationStateAwaitingResponse, "what's for lunch?", models.ConversationStateAwaitingResponse, actionRepromptAnswer, 0},
		{models.ConversationStateAwaitingCount, "3", models.ConversationStateCompleted, actionRecordAdditional, 3},
		{models.ConversationStateAwaitingCount, "2x", models.ConversationStateCompleted, actionRecordAdditional, 2},
		{models.ConversationStateAwaitingCount, "4 please", models.ConversationStateCompleted, actionRecordAdditional, 4},
		{models.ConversationStateAwaitingCount, "many", models.ConversationStateAwaitingCount, actionRepromptCount, 0},
		{models.ConversationStateAwaitingCount, "0", models.ConversationStateAwaitingCount, actionRepromptCount, 0},
		{models.ConversationStateAwaitingCount, "-2", models.ConversationStateAwaitingCount, actionRepromptCount, 0},
		{models.ConversationStateAwaitingCount, "9000", models.ConversationStateAwaitingCount, actionRepromptCount, 0},
		{models.ConversationStateCompleted, "yes", models.ConversationStateCompleted, actionNoActiveQuestion, 0},
	}

	for _, test := range tests {
		next, action, count := nextDialogueStep(test.state, test.text)
		if next != test.nextState || action != test.action || count != test.count {
			t.Fatalf("nextDialogueStep(%q, %q) = (%q, %d, %d), expected (%q, %d, %d)",
				test.state, test.text, next, action, count, test.nextState, test.action, test.count)
		}
	}
}

func TestHandleDirectMessageYes(t *testing.T) {
	store := newMemStore()
	ledger, poll := testLedgerWithPoll(store, "2018-05-14")
	conversations := NewConversations(store, ledger, NewIssuer(store))
	user := testUser(store, "100")

	reply, issued, err := conversations.HandleDirectMessage(user, "2018-05-14", "yes")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply, "you're in") {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if issued == nil {
		t.Fatal("expected a response with a token to deliver")
	}
	if len(issued.QRToken) != TokenLength {
		t.Fatalf("unexpected token: %q", issued.QRToken)
	}
	if issued.TotalScansAllowed != 1 || issued.ScansRemaining != 1 {
		t.Fatalf("yes response should allow exactly one scan, got %d/%d",
			issued.ScansRemaining, issued.TotalScansAllowed)
	}

	updated, _ := store.PollByID(poll.ID)
	if updated.TotalResponses != 1 || updated.YesResponses != 1 {
		t.Fatalf("poll counts not updated: %+v", updated)
	}

	state, _ := store.ConversationState(poll.ID, user.DiscordUserID)
	if state == nil || state.State != models.ConversationStateCompleted {
		t.Fatalf("dialogue should be completed, got %+v", state)
	}
}

func TestHandleDirectMessageAdditionalFlow(t *testing.T) {
	store := newMemStore()
	ledger, poll := testLedgerWithPoll(store, "2018-05-14")
	conversations := NewConversations(store, ledger, NewIssuer(store))
	user := testUser(store, "100")

	reply, issued, err := conversations.HandleDirectMessage(user, "2018-05-14", "additional")
	if err != nil {
		t.Fatal(err)
	}
	if issued != nil {
		t.Fatal("no token should be issued before the count is known")
	}
	if !strings.Contains(reply, "How many") {
		t.Fatalf("unexpected reply: %q", reply)
	}

	// garbage keeps the dialogue at the count question
	reply, issued, err = conversations.HandleDirectMessage(user, "2018-05-14", "a few")
	if err != nil {
		t.Fatal(err)
	}
	if issued != nil {
		t.Fatal("no token should be issued on an invalid count")
	}
	state, _ := store.ConversationState(poll.ID, user.DiscordUserID)
	if state.State != models.ConversationStateAwaitingCount {
		t.Fatalf("invalid count should not move the state, got %q", state.State)
	}

	reply, issued, err = conversations.HandleDirectMessage(user, "2018-05-14", "3")
	if err != nil {
		t.Fatal(err)
	}
	if issued == nil {
		t.Fatal("expected a response with a token to deliver")
	}
	if issued.TotalScansAllowed != 4 {
		t.Fatalf("responder plus 3 guests should allow 4 scans, got %d", issued.TotalScansAllowed)
	}
	if !strings.Contains(reply, "3 additional") {
		t.Fatalf("unexpected reply: %q", reply)
	}

	updated, _ := store.PollByID(poll.ID)
	if updated.AdditionalResponses != 1 {
		t.Fatalf("poll counts not updated: %+v", updated)
	}
}

func TestHandleDirectMessageDecline(t *testing.T) {
	store := newMemStore()
	ledger, poll := testLedgerWithPoll(store, "2018-05-14")
	conversations := NewConversations(store, ledger, NewIssuer(store))
	user := testUser(store, "100")

	_, issued, err := conversations.HandleDirectMessage(user, "2018-05-14", "no")
	if err != nil {
		t.Fatal(err)
	}
	if issued != nil {
		t.Fatal("declines never issue tokens")
	}

	updated, _ := store.PollByID(poll.ID)
	if updated.TotalResponses != 0 {
		t.Fatalf("declines are not responses, got %+v", updated)
	}

	// a second message gets the already-answered reply
	reply, _, err := conversations.HandleDirectMessage(user, "2018-05-14", "yes")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply, "already answered") {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestHandleDirectMessageNoPoll(t *testing.T) {
	store := newMemStore()
	conversations := NewConversations(store, NewLedger(store), NewIssuer(store))
	user := testUser(store, "100")

	reply, issued, err := conversations.HandleDirectMessage(user, "2018-05-14", "yes")
	if err != nil {
		t.Fatal(err)
	}
	if issued != nil {
		t.Fatal("no poll, no token")
	}
	if !strings.Contains(reply, "no open lunch question") {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestHandleDirectMessageClosedPoll(t *testing.T) {
	store := newMemStore()
	ledger, _ := testLedgerWithPoll(store, "2018-05-14")
	conversations := NewConversations(store, ledger, NewIssuer(store))
	user := testUser(store, "100")

	if err := ledger.ClosePoll("2018-05-14"); err != nil {
		t.Fatal(err)
	}

	reply, issued, err := conversations.HandleDirectMessage(user, "2018-05-14", "yes")
	if err != nil {
		t.Fatal(err)
	}
	if issued != nil {
		t.Fatal("closed poll, no token")
	}
	if !strings.Contains(reply, "no open lunch question") {
		t.Fatalf("unexpected reply: %q", reply)
	}
}

func TestHandleDirectMessageInvalidThenYes(t *testing.T) {
	store := newMemStore()
	ledger, _ := testLedgerWithPoll(store, "2018-05-14")
	conversations := NewConversations(store, ledger, NewIssuer(store))
	user := testUser(store, "100")

	reply, _, err := conversations.HandleDirectMessage(user, "2018-05-14", "maybe")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(reply, "yes") || !strings.Contains(reply, "no") {
		t.Fatalf("expected a re-prompt, got %q", reply)
	}

	_, issued, err := conversations.HandleDirectMessage(user, "2018-05-14", "yes")
	if err != nil {
		t.Fatal(err)
	}
	if issued == nil {
		t.Fatal("valid answer after re-prompt should complete the dialogue")
	}
}
