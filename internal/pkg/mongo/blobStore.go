package mongo

import (
	"context"
	"time"

	"bitbucket.org/airenas/subtitler/internal/pkg/blob"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type blobRecord struct {
	Key     string    `bson:"key"`
	Text    string    `bson:"text"`
	Updated time.Time `bson:"updated"`
}

// BlobStore keeps text objects in the blob collection, one document per key
type BlobStore struct {
	SessionProvider *SessionProvider
}

//NewBlobStore creates BlobStore instance
func NewBlobStore(sessionProvider *SessionProvider) (*BlobStore, error) {
	if sessionProvider == nil {
		return nil, errors.New("no session provider")
	}
	return &BlobStore{SessionProvider: sessionProvider}, nil
}

//Exists checks for the document
func (bs *BlobStore) Exists(ctx context.Context, key string) (bool, error) {
	c, ctx, cancel, err := bs.coll(ctx, key)
	if err != nil {
		return false, err
	}
	defer cancel()
	n, err := c.CountDocuments(ctx, bson.M{"key": key}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrapf(err, "can't count %s", key)
	}
	return n > 0, nil
}

//ReadText returns the document text
func (bs *BlobStore) ReadText(ctx context.Context, key string) (string, error) {
	c, ctx, cancel, err := bs.coll(ctx, key)
	if err != nil {
		return "", err
	}
	defer cancel()
	var res blobRecord
	err = c.FindOne(ctx, bson.M{"key": key}).Decode(&res)
	if err == mgo.ErrNoDocuments {
		return "", blob.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "can't read %s", key)
	}
	return res.Text, nil
}

//WriteText upserts the document
func (bs *BlobStore) WriteText(ctx context.Context, key string, text string) error {
	c, ctx, cancel, err := bs.coll(ctx, key)
	if err != nil {
		return err
	}
	defer cancel()
	_, err = c.UpdateOne(ctx, bson.M{"key": key},
		bson.M{"$set": bson.M{"text": text, "updated": time.Now().UTC()}},
		options.Update().SetUpsert(true))
	return errors.Wrapf(err, "can't write %s", key)
}

//CreateIfAbsent inserts the document, the unique key index rejects the second insert
func (bs *BlobStore) CreateIfAbsent(ctx context.Context, key string, text string) error {
	c, ctx, cancel, err := bs.coll(ctx, key)
	if err != nil {
		return err
	}
	defer cancel()
	_, err = c.InsertOne(ctx, blobRecord{Key: key, Text: text, Updated: time.Now().UTC()})
	if mgo.IsDuplicateKeyError(err) {
		return blob.ErrAlreadyExists
	}
	return errors.Wrapf(err, "can't insert %s", key)
}

//CompareAndSwap updates the document only if its text is still old
func (bs *BlobStore) CompareAndSwap(ctx context.Context, key string, old, new string) error {
	c, ctx, cancel, err := bs.coll(ctx, key)
	if err != nil {
		return err
	}
	defer cancel()
	res, err := c.UpdateOne(ctx, bson.M{"key": key, "text": old},
		bson.M{"$set": bson.M{"text": new, "updated": time.Now().UTC()}})
	if err != nil {
		return errors.Wrapf(err, "can't update %s", key)
	}
	if res.MatchedCount == 0 {
		return blob.ErrConflict
	}
	return nil
}

//Delete removes the document
func (bs *BlobStore) Delete(ctx context.Context, key string) error {
	c, ctx, cancel, err := bs.coll(ctx, key)
	if err != nil {
		return err
	}
	defer cancel()
	_, err = c.DeleteOne(ctx, bson.M{"key": key})
	return errors.Wrapf(err, "can't delete %s", key)
}

func (bs *BlobStore) coll(ctx context.Context, key string) (*mgo.Collection, context.Context, func(), error) {
	if err := blob.ValidateKey(key); err != nil {
		return nil, nil, nil, err
	}
	return newColl(ctx, bs.SessionProvider, blobTable)
}
