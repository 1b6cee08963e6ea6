package lock

import (
	"context"
	"encoding/json"
	"time"

	"bitbucket.org/airenas/subtitler/internal/pkg/blob"
	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"bitbucket.org/airenas/subtitler/internal/pkg/job"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

//DefaultTTL is the age a lock is treated as abandoned after
const DefaultTTL = 30 * time.Minute

//ErrLocked indicates a valid lock held by another run
var ErrLocked = errors.New("job is locked")

type payload struct {
	LockedAt time.Time `json:"lockedAt"`
	Owner    string    `json:"owner"`
}

//Locker implements per job mutual exclusion on top of the store's atomic create
type Locker struct {
	store blob.Store
	ttl   time.Duration
	now   func() time.Time
}

//NewLocker creates Locker, ttl <= 0 means DefaultTTL
func NewLocker(store blob.Store, ttl time.Duration) (*Locker, error) {
	if store == nil {
		return nil, errors.New("no store")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Locker{store: store, ttl: ttl, now: time.Now}, nil
}

//Acquire takes the job lock or returns ErrLocked. The payload keeps a fresh owner token
func (l *Locker) Acquire(ctx context.Context, jobID string) error {
	if err := job.ValidateID(jobID); err != nil {
		return err
	}
	key := blob.LockKey(jobID)
	data, err := l.newPayload()
	if err != nil {
		return err
	}
	err = l.store.CreateIfAbsent(ctx, key, data)
	if err == nil {
		return nil
	}
	if errors.Cause(err) != blob.ErrAlreadyExists {
		return errors.Wrapf(err, "can't create lock %s", key)
	}
	old, err := l.store.ReadText(ctx, key)
	if errors.Cause(err) == blob.ErrNotFound {
		// released in between
		return l.create(ctx, key, data)
	}
	if err != nil {
		return errors.Wrapf(err, "can't read lock %s", key)
	}
	if l.valid(old) {
		return ErrLocked
	}
	cmdapp.Log.Warnf("Lock %s is expired, taking over", key)
	if sw, ok := l.store.(blob.Swapper); ok {
		err = sw.CompareAndSwap(ctx, key, old, data)
		if errors.Cause(err) == blob.ErrConflict {
			return ErrLocked
		}
		return errors.Wrapf(err, "can't replace lock %s", key)
	}
	// the store has no conditional replace: a run that took the lock
	// between the read and the delete may be dropped here
	if err := l.store.Delete(ctx, key); err != nil {
		return errors.Wrapf(err, "can't delete expired lock %s", key)
	}
	return l.create(ctx, key, data)
}

//Release deletes the lock. Missing lock is not an error
func (l *Locker) Release(ctx context.Context, jobID string) error {
	if err := job.ValidateID(jobID); err != nil {
		return err
	}
	return errors.Wrap(l.store.Delete(ctx, blob.LockKey(jobID)), "can't delete lock")
}

func (l *Locker) create(ctx context.Context, key, data string) error {
	err := l.store.CreateIfAbsent(ctx, key, data)
	if errors.Cause(err) == blob.ErrAlreadyExists {
		return ErrLocked
	}
	return errors.Wrapf(err, "can't create lock %s", key)
}

func (l *Locker) newPayload() (string, error) {
	b, err := json.Marshal(payload{LockedAt: l.now().UTC(), Owner: uuid.New().String()})
	if err != nil {
		return "", errors.Wrap(err, "can't marshal lock")
	}
	return string(b), nil
}

// valid returns false for expired or unreadable payloads
func (l *Locker) valid(data string) bool {
	var p payload
	if err := json.Unmarshal([]byte(data), &p); err != nil || p.LockedAt.IsZero() {
		cmdapp.Log.Warnf("Can't parse lock payload '%s'", data)
		return false
	}
	return l.now().Sub(p.LockedAt) < l.ttl
}
