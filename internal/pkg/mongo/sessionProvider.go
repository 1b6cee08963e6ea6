package mongo

import (
	"context"
	"net/url"
	"sync"
	"time"

	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

//IndexData keeps index creation data
type IndexData struct {
	Table  string
	Field  string
	Unique bool
}

func newIndexData(table string, field string, unique bool) IndexData {
	return IndexData{Table: table, Field: field, Unique: unique}
}

//SessionProvider connects and provides session for mongo DB
type SessionProvider struct {
	client  *mgo.Client
	URL     string
	indexes []IndexData
	m       sync.Mutex
}

//NewSessionProvider creates Mongo session provider
func NewSessionProvider() (*SessionProvider, error) {
	url := cmdapp.Config.GetString("mongo.url")
	if url == "" {
		return nil, errors.New("no mongo url provided")
	}
	return &SessionProvider{URL: url, indexes: indexData}, nil
}

//Close disconnects the client
func (sp *SessionProvider) Close() {
	sp.m.Lock()
	defer sp.m.Unlock()
	if sp.client != nil {
		ctx, cancel := mongoContext(context.Background())
		defer cancel()
		cmdapp.LogIf(sp.client.Disconnect(ctx))
		sp.client = nil
	}
}

//NewSession creates mongo session, connects on first call
func (sp *SessionProvider) NewSession() (mgo.Session, error) {
	sp.m.Lock()
	defer sp.m.Unlock()

	if sp.client == nil {
		cmdapp.Log.Info("Dial mongo: " + hidePass(sp.URL))
		ctx, cancel := mongoContext(context.Background())
		defer cancel()
		client, err := mgo.Connect(ctx, options.Client().ApplyURI(sp.URL))
		if err != nil {
			return nil, errors.Wrap(err, "can't dial to mongo")
		}
		if err := checkIndexes(ctx, client, sp.indexes); err != nil {
			cmdapp.LogIf(client.Disconnect(ctx))
			return nil, err
		}
		sp.client = client
	}
	return sp.client.StartSession()
}

//Healthy pings the DB
func (sp *SessionProvider) Healthy() error {
	session, err := sp.NewSession()
	if err != nil {
		return err
	}
	defer session.EndSession(context.Background())
	ctx, cancel := mongoContext(context.Background())
	defer cancel()
	return session.Client().Ping(ctx, nil)
}

func checkIndexes(ctx context.Context, client *mgo.Client, indexes []IndexData) error {
	for _, index := range indexes {
		c := client.Database(store).Collection(index.Table)
		_, err := c.Indexes().CreateOne(ctx, mgo.IndexModel{
			Keys:    bson.D{{Key: index.Field, Value: 1}},
			Options: options.Index().SetUnique(index.Unique),
		})
		if err != nil {
			return errors.Wrap(err, "can't create index: "+index.Table+":"+index.Field)
		}
	}
	return nil
}

func newColl(ctx context.Context, sp *SessionProvider, table string) (*mgo.Collection, context.Context, func(), error) {
	session, err := sp.NewSession()
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := mongoContext(ctx)
	return session.Client().Database(store).Collection(table), ctx, func() {
		cancel()
		session.EndSession(context.Background())
	}, nil
}

func mongoContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, 10*time.Second)
}

func hidePass(s string) string {
	u, err := url.Parse(s)
	if err != nil {
		cmdapp.Log.Warn("Can't parse mongo url.")
		return ""
	}
	if _, ps := u.User.Password(); ps {
		u.User = url.UserPassword(u.User.Username(), "----")
	}
	return u.String()
}
