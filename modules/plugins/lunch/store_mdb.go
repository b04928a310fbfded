package lunch

import (
	"time"

	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"
	"github.com/lunchcrew/lunchbot/helpers"
	"github.com/lunchcrew/lunchbot/models"
)

// mdbStore is the MongoDB-backed Store. All invariants are enforced in the
// selectors (conditional writes) or by the unique indexes the migrations
// create, so they hold across multiple bot processes.
type mdbStore struct{}

// NewMdbStore returns the production Store
func NewMdbStore() Store {
	return &mdbStore{}
}

func (s *mdbStore) UpsertUser(user models.UserEntry) (*models.UserEntry, error) {
	err := helpers.MDbUpsert(
		models.UserTable,
		bson.M{"discorduserid": user.DiscordUserID},
		bson.M{
			"$set": bson.M{
				"username": user.Username,
				"realname": user.RealName,
				"email":    user.Email,
			},
			"$setOnInsert": bson.M{
				"createdat": user.CreatedAt,
			},
		},
	)
	if err != nil {
		return nil, err
	}

	var entry models.UserEntry
	err = helpers.MdbOne(
		helpers.MdbCollection(models.UserTable).Find(bson.M{"discorduserid": user.DiscordUserID}),
		&entry,
	)
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (s *mdbStore) AllUsers() ([]models.UserEntry, error) {
	var entries []models.UserEntry
	err := helpers.MDbIter(helpers.MdbCollection(models.UserTable).Find(nil)).All(&entries)
	return entries, err
}

func (s *mdbStore) PollByDate(date string) (*models.LunchPollEntry, error) {
	var entry models.LunchPollEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.LunchPollTable).Find(bson.M{"date": date}),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (s *mdbStore) PollByID(id bson.ObjectId) (*models.LunchPollEntry, error) {
	var entry models.LunchPollEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.LunchPollTable).Find(bson.M{"_id": id}),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (s *mdbStore) InsertPoll(poll models.LunchPollEntry) (*models.LunchPollEntry, error) {
	rid, err := helpers.MDbInsert(models.LunchPollTable, &poll)
	if mgo.IsDup(err) {
		// another process created the poll for this date first
		return nil, ErrLostRace
	}
	if err != nil {
		return nil, err
	}

	poll.ID = rid
	return &poll, nil
}

func (s *mdbStore) SetPollStatus(date string, from string, to string) error {
	err := helpers.MDbUpdateQuery(
		models.LunchPollTable,
		bson.M{"date": date, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if helpers.IsMdbNotFound(err) {
		return ErrLostRace
	}

	return err
}

func (s *mdbStore) SetPollCounts(id bson.ObjectId, total int, yes int, additional int) error {
	return helpers.MDbUpdateQuery(
		models.LunchPollTable,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"totalresponses":      total,
			"yesresponses":        yes,
			"additionalresponses": additional,
		}},
	)
}

func (s *mdbStore) InsertResponse(response models.LunchResponseEntry) (*models.LunchResponseEntry, error) {
	rid, err := helpers.MDbInsert(models.LunchResponseTable, &response)
	if mgo.IsDup(err) {
		return nil, ErrDuplicateResponse
	}
	if err != nil {
		return nil, err
	}

	response.ID = rid
	return &response, nil
}

func (s *mdbStore) ResponseByID(id bson.ObjectId) (*models.LunchResponseEntry, error) {
	var entry models.LunchResponseEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.LunchResponseTable).Find(bson.M{"_id": id}),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (s *mdbStore) ResponsesForPoll(pollID bson.ObjectId) ([]models.LunchResponseEntry, error) {
	var entries []models.LunchResponseEntry
	err := helpers.MDbIter(
		helpers.MdbCollection(models.LunchResponseTable).Find(bson.M{"pollid": pollID}),
	).All(&entries)
	return entries, err
}

func (s *mdbStore) AttachToken(responseID bson.ObjectId, token string, scansAllowed int) error {
	err := helpers.MDbUpdateQuery(
		models.LunchResponseTable,
		bson.M{"_id": responseID},
		bson.M{"$set": bson.M{
			"qr_token":            token,
			"total_scans_allowed": scansAllowed,
			"scans_used":          0,
			"scans_remaining":     scansAllowed,
		}},
	)
	if mgo.IsDup(err) {
		// unique index on qr_token, caller regenerates
		return ErrTokenCollision
	}

	return err
}

func (s *mdbStore) MarkQRSent(responseID bson.ObjectId) error {
	return helpers.MDbUpdateQuery(
		models.LunchResponseTable,
		bson.M{"_id": responseID},
		bson.M{"$set": bson.M{"qr_sent": true}},
	)
}

func (s *mdbStore) ConversationState(pollID bson.ObjectId, discordUserID string) (*models.ConversationStateEntry, error) {
	var entry models.ConversationStateEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.ConversationStateTable).Find(
			bson.M{"pollid": pollID, "discorduserid": discordUserID},
		),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (s *mdbStore) InsertConversationState(state models.ConversationStateEntry) (*models.ConversationStateEntry, error) {
	rid, err := helpers.MDbInsert(models.ConversationStateTable, &state)
	if mgo.IsDup(err) {
		return nil, ErrLostRace
	}
	if err != nil {
		return nil, err
	}

	state.ID = rid
	return &state, nil
}

func (s *mdbStore) AdvanceConversationState(id bson.ObjectId, from string, to string, at time.Time) error {
	err := helpers.MDbUpdateQuery(
		models.ConversationStateTable,
		bson.M{"_id": id, "state": from},
		bson.M{"$set": bson.M{"state": to, "updatedat": at}},
	)
	if helpers.IsMdbNotFound(err) {
		return ErrLostRace
	}

	return err
}

func (s *mdbStore) ClaimScan(token string) (*models.LunchResponseEntry, error) {
	var entry models.LunchResponseEntry
	_, err := helpers.MDbApply(
		models.LunchResponseTable,
		bson.M{"qr_token": token, "scans_remaining": bson.M{"$gt": 0}},
		mgo.Change{
			Update:    bson.M{"$inc": bson.M{"scans_used": 1, "scans_remaining": -1}},
			ReturnNew: true,
		},
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		// either the token never existed or the allowance is used up
		count, countErr := helpers.MdbCount(models.LunchResponseTable, bson.M{"qr_token": token})
		if countErr != nil {
			return nil, countErr
		}
		if count > 0 {
			return nil, ErrTokenExhausted
		}
		return nil, ErrTokenNotFound
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (s *mdbStore) AppendScan(scan models.QRScanEntry) (*models.QRScanEntry, error) {
	rid, err := helpers.MDbInsert(models.QRScanTable, &scan)
	if err != nil {
		return nil, err
	}

	scan.ID = rid
	return &scan, nil
}

func (s *mdbStore) ScansForResponse(responseID bson.ObjectId) ([]models.QRScanEntry, error) {
	var entries []models.QRScanEntry
	err := helpers.MDbIter(
		helpers.MdbCollection(models.QRScanTable).Find(bson.M{"responseid": responseID}).Sort("scannumber"),
	).All(&entries)
	return entries, err
}

func (s *mdbStore) SessionByDate(date string) (*models.LunchSessionEntry, error) {
	var entry models.LunchSessionEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.LunchSessionTable).Find(bson.M{"date": date}),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (s *mdbStore) InsertSession(session models.LunchSessionEntry) (*models.LunchSessionEntry, error) {
	rid, err := helpers.MDbInsert(models.LunchSessionTable, &session)
	if mgo.IsDup(err) {
		return nil, ErrLostRace
	}
	if err != nil {
		return nil, err
	}

	session.ID = rid
	return &session, nil
}

func (s *mdbStore) TransitionSession(date string, from string, to string, by string, at time.Time, expected int) (*models.LunchSessionEntry, error) {
	set := bson.M{"status": to}
	switch to {
	case models.LunchSessionStatusActive:
		set["start_time"] = at
		set["startedby"] = by
		set["totalexpected"] = expected
	case models.LunchSessionStatusEnded:
		set["end_time"] = at
		set["endedby"] = by
	}

	var entry models.LunchSessionEntry
	_, err := helpers.MDbApply(
		models.LunchSessionTable,
		bson.M{"date": date, "status": from},
		mgo.Change{
			Update:    bson.M{"$set": set},
			ReturnNew: true,
		},
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		return nil, ErrLostRace
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (s *mdbStore) SetSessionMessageID(date string, end bool, messageID string) error {
	field := "startmessageid"
	if end {
		field = "endmessageid"
	}

	return helpers.MDbUpdateQuery(
		models.LunchSessionTable,
		bson.M{"date": date},
		bson.M{"$set": bson.M{field: messageID}},
	)
}

func (s *mdbStore) AddServed(date string, delta int) error {
	selector := bson.M{"date": date, "status": models.LunchSessionStatusActive}
	if delta < 0 {
		// refuse updates that would push the counter below zero
		selector["totalserved"] = bson.M{"$gte": -delta}
	}

	err := helpers.MDbUpdateQuery(
		models.LunchSessionTable,
		selector,
		bson.M{"$inc": bson.M{"totalserved": delta}},
	)
	if helpers.IsMdbNotFound(err) {
		session, findErr := s.SessionByDate(date)
		if findErr != nil {
			return findErr
		}
		if session == nil || session.Status != models.LunchSessionStatusActive {
			return ErrSessionNotActive
		}
		return ErrServedBelowZero
	}

	return err
}

func (s *mdbStore) StaffUserByName(username string) (*models.StaffUserEntry, error) {
	var entry models.StaffUserEntry
	err := helpers.MdbOne(
		helpers.MdbCollection(models.StaffUserTable).Find(bson.M{"username": username}),
		&entry,
	)
	if helpers.IsMdbNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &entry, nil
}
