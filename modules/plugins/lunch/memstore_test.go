package lunch

import (
	"sync"
	"time"

	"github.com/globalsign/mgo/bson"
	"github.com/lunchcrew/lunchbot/models"
)

// memStore is an in-memory Store with the same conditional-write semantics
// as the mongo implementation, so component tests run without a database
type memStore struct {
	sync.Mutex

	users         map[string]*models.UserEntry
	polls         map[bson.ObjectId]*models.LunchPollEntry
	responses     map[bson.ObjectId]*models.LunchResponseEntry
	conversations map[bson.ObjectId]*models.ConversationStateEntry
	scans         []*models.QRScanEntry
	sessions      map[string]*models.LunchSessionEntry
	staff         map[string]*models.StaffUserEntry
}

func newMemStore() *memStore {
	return &memStore{
		users:         make(map[string]*models.UserEntry),
		polls:         make(map[bson.ObjectId]*models.LunchPollEntry),
		responses:     make(map[bson.ObjectId]*models.LunchResponseEntry),
		conversations: make(map[bson.ObjectId]*models.ConversationStateEntry),
		sessions:      make(map[string]*models.LunchSessionEntry),
		staff:         make(map[string]*models.StaffUserEntry),
	}
}

func (s *memStore) UpsertUser(user models.UserEntry) (*models.UserEntry, error) {
	s.Lock()
	defer s.Unlock()

	if existing, ok := s.users[user.DiscordUserID]; ok {
		existing.Username = user.Username
		existing.RealName = user.RealName
		copied := *existing
		return &copied, nil
	}

	user.ID = bson.NewObjectId()
	s.users[user.DiscordUserID] = &user
	copied := user
	return &copied, nil
}

func (s *memStore) AllUsers() ([]models.UserEntry, error) {
	s.Lock()
	defer s.Unlock()

	users := make([]models.UserEntry, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, *user)
	}
	return users, nil
}

func (s *memStore) PollByDate(date string) (*models.LunchPollEntry, error) {
	s.Lock()
	defer s.Unlock()

	for _, poll := range s.polls {
		if poll.Date == date {
			copied := *poll
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) PollByID(id bson.ObjectId) (*models.LunchPollEntry, error) {
	s.Lock()
	defer s.Unlock()

	if poll, ok := s.polls[id]; ok {
		copied := *poll
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) InsertPoll(poll models.LunchPollEntry) (*models.LunchPollEntry, error) {
	s.Lock()
	defer s.Unlock()

	for _, existing := range s.polls {
		if existing.Date == poll.Date {
			return nil, ErrLostRace
		}
	}

	poll.ID = bson.NewObjectId()
	s.polls[poll.ID] = &poll
	copied := poll
	return &copied, nil
}

func (s *memStore) SetPollStatus(date string, from string, to string) error {
	s.Lock()
	defer s.Unlock()

	for _, poll := range s.polls {
		if poll.Date == date && poll.Status == from {
			poll.Status = to
			return nil
		}
	}
	return ErrLostRace
}

func (s *memStore) SetPollCounts(id bson.ObjectId, total int, yes int, additional int) error {
	s.Lock()
	defer s.Unlock()

	if poll, ok := s.polls[id]; ok {
		poll.TotalResponses = total
		poll.YesResponses = yes
		poll.AdditionalResponses = additional
	}
	return nil
}

func (s *memStore) InsertResponse(response models.LunchResponseEntry) (*models.LunchResponseEntry, error) {
	s.Lock()
	defer s.Unlock()

	for _, existing := range s.responses {
		if existing.PollID == response.PollID && existing.DiscordUserID == response.DiscordUserID {
			return nil, ErrDuplicateResponse
		}
	}

	response.ID = bson.NewObjectId()
	s.responses[response.ID] = &response
	copied := response
	return &copied, nil
}

func (s *memStore) ResponseByID(id bson.ObjectId) (*models.LunchResponseEntry, error) {
	s.Lock()
	defer s.Unlock()

	if response, ok := s.responses[id]; ok {
		copied := *response
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) ResponsesForPoll(pollID bson.ObjectId) ([]models.LunchResponseEntry, error) {
	s.Lock()
	defer s.Unlock()

	responses := make([]models.LunchResponseEntry, 0)
	for _, response := range s.responses {
		if response.PollID == pollID {
			responses = append(responses, *response)
		}
	}
	return responses, nil
}

func (s *memStore) AttachToken(responseID bson.ObjectId, token string, scansAllowed int) error {
	s.Lock()
	defer s.Unlock()

	for _, existing := range s.responses {
		if existing.QRToken == token {
			return ErrTokenCollision
		}
	}

	response, ok := s.responses[responseID]
	if !ok {
		return ErrTokenNotFound
	}

	response.QRToken = token
	response.TotalScansAllowed = scansAllowed
	response.ScansUsed = 0
	response.ScansRemaining = scansAllowed
	return nil
}

func (s *memStore) MarkQRSent(responseID bson.ObjectId) error {
	s.Lock()
	defer s.Unlock()

	if response, ok := s.responses[responseID]; ok {
		response.QRSent = true
	}
	return nil
}

func (s *memStore) ConversationState(pollID bson.ObjectId, discordUserID string) (*models.ConversationStateEntry, error) {
	s.Lock()
	defer s.Unlock()

	for _, state := range s.conversations {
		if state.PollID == pollID && state.DiscordUserID == discordUserID {
			copied := *state
			return &copied, nil
		}
	}
	return nil, nil
}

func (s *memStore) InsertConversationState(state models.ConversationStateEntry) (*models.ConversationStateEntry, error) {
	s.Lock()
	defer s.Unlock()

	for _, existing := range s.conversations {
		if existing.PollID == state.PollID && existing.DiscordUserID == state.DiscordUserID {
			return nil, ErrLostRace
		}
	}

	state.ID = bson.NewObjectId()
	s.conversations[state.ID] = &state
	copied := state
	return &copied, nil
}

func (s *memStore) AdvanceConversationState(id bson.ObjectId, from string, to string, at time.Time) error {
	s.Lock()
	defer s.Unlock()

	state, ok := s.conversations[id]
	if !ok || state.State != from {
		return ErrLostRace
	}

	state.State = to
	state.UpdatedAt = at
	return nil
}

func (s *memStore) ClaimScan(token string) (*models.LunchResponseEntry, error) {
	s.Lock()
	defer s.Unlock()

	for _, response := range s.responses {
		if response.QRToken != token {
			continue
		}
		if response.ScansRemaining <= 0 {
			return nil, ErrTokenExhausted
		}

		response.ScansUsed++
		response.ScansRemaining--
		copied := *response
		return &copied, nil
	}
	return nil, ErrTokenNotFound
}

func (s *memStore) AppendScan(scan models.QRScanEntry) (*models.QRScanEntry, error) {
	s.Lock()
	defer s.Unlock()

	scan.ID = bson.NewObjectId()
	s.scans = append(s.scans, &scan)
	copied := scan
	return &copied, nil
}

func (s *memStore) ScansForResponse(responseID bson.ObjectId) ([]models.QRScanEntry, error) {
	s.Lock()
	defer s.Unlock()

	scans := make([]models.QRScanEntry, 0)
	for _, scan := range s.scans {
		if scan.ResponseID == responseID {
			scans = append(scans, *scan)
		}
	}
	return scans, nil
}

func (s *memStore) SessionByDate(date string) (*models.LunchSessionEntry, error) {
	s.Lock()
	defer s.Unlock()

	if session, ok := s.sessions[date]; ok {
		copied := *session
		return &copied, nil
	}
	return nil, nil
}

func (s *memStore) InsertSession(session models.LunchSessionEntry) (*models.LunchSessionEntry, error) {
	s.Lock()
	defer s.Unlock()

	if _, ok := s.sessions[session.Date]; ok {
		return nil, ErrLostRace
	}

	session.ID = bson.NewObjectId()
	s.sessions[session.Date] = &session
	copied := session
	return &copied, nil
}

func (s *memStore) TransitionSession(date string, from string, to string, by string, at time.Time, expected int) (*models.LunchSessionEntry, error) {
	s.Lock()
	defer s.Unlock()

	session, ok := s.sessions[date]
	if !ok || session.Status != from {
		return nil, ErrLostRace
	}

	session.Status = to
	switch to {
	case models.LunchSessionStatusActive:
		session.StartedBy = by
		session.StartTime = at
		session.TotalExpected = expected
	case models.LunchSessionStatusEnded:
		session.EndedBy = by
		session.EndTime = at
	}

	copied := *session
	return &copied, nil
}

func (s *memStore) SetSessionMessageID(date string, end bool, messageID string) error {
	s.Lock()
	defer s.Unlock()

	if session, ok := s.sessions[date]; ok {
		if end {
			session.EndMessageID = messageID
		} else {
			session.StartMessageID = messageID
		}
	}
	return nil
}

func (s *memStore) AddServed(date string, delta int) error {
	s.Lock()
	defer s.Unlock()

	session, ok := s.sessions[date]
	if !ok || session.Status != models.LunchSessionStatusActive {
		return ErrSessionNotActive
	}
	if session.TotalServed+delta < 0 {
		return ErrServedBelowZero
	}

	session.TotalServed += delta
	return nil
}

func (s *memStore) StaffUserByName(username string) (*models.StaffUserEntry, error) {
	s.Lock()
	defer s.Unlock()

	if staff, ok := s.staff[username]; ok {
		copied := *staff
		return &copied, nil
	}
	return nil, nil
}

// test fixture helpers

func testUser(store *memStore, discordUserID string) *models.UserEntry {
	user, _ := store.UpsertUser(models.UserEntry{
		DiscordUserID: discordUserID,
		Username:      "user-" + discordUserID,
		RealName:      "User " + discordUserID,
		CreatedAt:     time.Now(),
	})
	return user
}

func testLedgerWithPoll(store *memStore, date string) (*Ledger, *models.LunchPollEntry) {
	ledger := NewLedger(store)
	poll, _, err := ledger.GetOrCreateActivePoll(date)
	if err != nil {
		panic(err)
	}
	return ledger, poll
}
