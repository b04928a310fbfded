package helpers

import (
	"crypto/tls"
	"net"
	"reflect"
	"strings"

	"github.com/globalsign/mgo"
	"github.com/globalsign/mgo/bson"
	"github.com/lunchcrew/lunchbot/cache"
	"github.com/lunchcrew/lunchbot/models"
	"github.com/pkg/errors"
)

var (
	mDbSession  *mgo.Session
	mDbDatabase string
)

// ConnectMDB connects to mongodb and stores the session
func ConnectMDB(url string, database string) {
	var err error

	log := cache.GetLogger()
	log.WithField("module", "mdb").Info("Connecting to " + url)

	mgo.SetDebug(false)

	newUrl := strings.TrimSuffix(url, "?ssl=true")
	newUrl = strings.Replace(newUrl, "ssl=true&", "", -1)

	dialInfo, err := mgo.ParseURL(newUrl)
	if err != nil {
		log.WithField("module", "mdb").Error(err.Error())
		panic(err)
	}

	// setup TLS if we use SSL
	if newUrl != url {
		tlsConfig := &tls.Config{}
		tlsConfig.InsecureSkipVerify = true

		dialInfo.DialServer = func(addr *mgo.ServerAddr) (net.Conn, error) {
			conn, err := tls.Dial("tcp", addr.String(), tlsConfig)
			return conn, err
		}
	}

	mDbSession, err = mgo.DialWithInfo(dialInfo)
	if err != nil {
		log.WithField("module", "mdb").Error(err.Error())
		panic(err)
	}

	mDbSession.SetMode(mgo.Primary, false)
	mDbSession.SetSafe(&mgo.Safe{})

	mDbDatabase = database

	log.WithField("module", "mdb").Info("Connected!")
}

// GetMDb is a simple getter for the mongodb database.
func GetMDb() *mgo.Database {
	return mDbSession.DB(mDbDatabase)
}

// GetMDbSession is a simple getter for the mongodb session.
func GetMDbSession() *mgo.Session {
	return mDbSession
}

// MDbInsert inserts data into a collection, assigning an ObjectId to an
// empty ID field before the write
func MDbInsert(collection models.MongoDbCollection, data interface{}) (rid bson.ObjectId, err error) {
	var recordData reflect.Value
	if reflect.ValueOf(data).Kind() != reflect.Ptr {
		// handle non pointers
		recordData = reflect.New(reflect.TypeOf(data)).Elem()
		recordData.Set(reflect.ValueOf(data))
	} else {
		// handle pointers
		// convert the raw interface data to its actual type
		recordData = reflect.ValueOf(data).Elem()
	}

	// confirm data has an ID field
	idField := recordData.FieldByName("ID")
	if !idField.IsValid() {
		return bson.ObjectId(""), errors.New("invalid data")
	}

	// if the records id field isn't empty, give it an id
	newID := idField.String()
	if newID == "" {
		newID = string(bson.NewObjectId())
		idField.SetString(newID)
	}

	err = GetMDb().C(collection.String()).Insert(recordData.Interface())
	if err != nil {
		return bson.ObjectId(""), err
	}

	return bson.ObjectId(newID), nil
}

func MDbUpdate(collection models.MongoDbCollection, id bson.ObjectId, data interface{}) (err error) {
	if !id.Valid() {
		return errors.New("invalid id")
	}

	return GetMDb().C(collection.String()).UpdateId(id, data)
}

// MDbUpdateQuery updates the first document matching $selector.
// With a state or version field in the selector this is the compare-and-swap
// primitive used to linearize writes across server processes.
func MDbUpdateQuery(collection models.MongoDbCollection, selector interface{}, data interface{}) (err error) {
	return GetMDb().C(collection.String()).Update(selector, data)
}

func MDbUpsertID(collection models.MongoDbCollection, id bson.ObjectId, data interface{}) (err error) {
	if !id.Valid() {
		return errors.New("invalid id")
	}

	_, err = GetMDb().C(collection.String()).UpsertId(id, data)

	return err
}

func MDbUpsert(collection models.MongoDbCollection, selector interface{}, data interface{}) (err error) {
	_, err = GetMDb().C(collection.String()).Upsert(selector, data)

	return err
}

func MDbDelete(collection models.MongoDbCollection, id bson.ObjectId) (err error) {
	if !id.Valid() {
		return errors.New("invalid id")
	}

	return GetMDb().C(collection.String()).RemoveId(id)
}

func MdbCollection(collection models.MongoDbCollection) (query *mgo.Collection) {
	return GetMDb().C(collection.String())
}

func MDbIter(query *mgo.Query) (iter *mgo.Iter) {
	return query.Iter()
}

func MdbOne(query *mgo.Query, object interface{}) (err error) {
	return query.One(object)
}

func MdbCount(collection models.MongoDbCollection, query interface{}) (count int, err error) {
	return MdbCollection(collection).Find(query).Count()
}

// MDbApply runs findAndModify on the first document matching $selector.
// The condition check and the modification are atomic on the server, which
// makes it the primitive for claims that must not overshoot a limit.
func MDbApply(collection models.MongoDbCollection, selector interface{}, change mgo.Change, result interface{}) (info *mgo.ChangeInfo, err error) {
	return MdbCollection(collection).Find(selector).Apply(change, result)
}

// MdbIdToHuman returns a human readable ID version of a ObjectID
func MdbIdToHuman(id bson.ObjectId) (text string) {
	return id.Hex()
}

// HumanToMdbId returns an ObjectID from a human readable ID
func HumanToMdbId(text string) (id bson.ObjectId) {
	if bson.IsObjectIdHex(text) {
		return bson.ObjectIdHex(text)
	}
	return id
}

// IsMdbNotFound returns true if the given error is a not found error from MongoDB
// includes errors from invalid object IDs
func IsMdbNotFound(err error) (notFound bool) {
	if err != nil {
		if err == mgo.ErrNotFound ||
			strings.Contains(err.Error(), "not found") ||
			strings.Contains(err.Error(), "ObjectIDs must be exactly 12 bytes long") {
			return true
		}
	}
	return false
}
