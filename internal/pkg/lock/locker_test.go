package lock

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"bitbucket.org/airenas/subtitler/internal/pkg/blob"
	"bitbucket.org/airenas/subtitler/internal/pkg/job"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquire(t *testing.T) {
	st := blob.NewMemoryStore()
	l, _ := NewLocker(st, 0)

	err := l.Acquire(context.Background(), "j1")

	assert.Nil(t, err)
	p := readPayload(t, st)
	assert.NotEmpty(t, p.Owner)
	assert.False(t, p.LockedAt.IsZero())
	assert.Equal(t, DefaultTTL, l.ttl)
}

func TestAcquire_Locked(t *testing.T) {
	l, _ := NewLocker(blob.NewMemoryStore(), time.Minute)

	err := l.Acquire(context.Background(), "j1")
	require.Nil(t, err)
	err = l.Acquire(context.Background(), "j1")
	assert.Equal(t, ErrLocked, err)
}

func TestAcquire_OtherJob(t *testing.T) {
	l, _ := NewLocker(blob.NewMemoryStore(), time.Minute)

	err := l.Acquire(context.Background(), "j1")
	require.Nil(t, err)
	err = l.Acquire(context.Background(), "j2")
	assert.Nil(t, err)
}

func TestAcquire_Concurrent(t *testing.T) {
	l, _ := NewLocker(blob.NewMemoryStore(), time.Minute)
	var wg sync.WaitGroup
	var m sync.Mutex
	won := 0
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Acquire(context.Background(), "j1"); err == nil {
				m.Lock()
				won++
				m.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, won)
}

func TestAcquire_TakesOverExpired(t *testing.T) {
	st := blob.NewMemoryStore()
	l, _ := NewLocker(st, time.Minute)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	require.Nil(t, l.Acquire(context.Background(), "j1"))
	o1 := readPayload(t, st).Owner

	now = now.Add(59 * time.Second)
	err := l.Acquire(context.Background(), "j1")
	assert.Equal(t, ErrLocked, err)

	now = now.Add(2 * time.Second)
	err = l.Acquire(context.Background(), "j1")
	assert.Nil(t, err)
	p := readPayload(t, st)
	assert.NotEqual(t, o1, p.Owner)
	assert.True(t, now.Equal(p.LockedAt))

	err = l.Acquire(context.Background(), "j1")
	assert.Equal(t, ErrLocked, err)
}

func TestAcquire_TakesOverExpired_NoSwapper(t *testing.T) {
	st := &noSwapStore{st: blob.NewMemoryStore()}
	l, _ := NewLocker(st, time.Minute)
	now := time.Now()
	l.now = func() time.Time { return now }
	require.Nil(t, l.Acquire(context.Background(), "j1"))
	o1 := readPayload(t, st.st).Owner

	now = now.Add(time.Hour)
	assert.Nil(t, l.Acquire(context.Background(), "j1"))
	assert.NotEqual(t, o1, readPayload(t, st.st).Owner)
}

func TestAcquire_UnreadablePayloadIsExpired(t *testing.T) {
	st := blob.NewMemoryStore()
	require.Nil(t, st.WriteText(context.Background(), "locks/j1", "locked"))
	l, _ := NewLocker(st, time.Minute)

	err := l.Acquire(context.Background(), "j1")
	assert.Nil(t, err)
}

func TestAcquire_TakeOverConflict(t *testing.T) {
	st := &conflictStore{MemoryStore: blob.NewMemoryStore()}
	require.Nil(t, st.WriteText(context.Background(), "locks/j1", "locked"))
	l, _ := NewLocker(st, time.Minute)

	err := l.Acquire(context.Background(), "j1")
	assert.Equal(t, ErrLocked, err)
}

func TestRelease(t *testing.T) {
	st := blob.NewMemoryStore()
	l, _ := NewLocker(st, time.Minute)
	err := l.Acquire(context.Background(), "j1")
	require.Nil(t, err)

	assert.Nil(t, l.Release(context.Background(), "j1"))
	ok, _ := st.Exists(context.Background(), "locks/j1")
	assert.False(t, ok)
	assert.Nil(t, l.Release(context.Background(), "j1"))

	err = l.Acquire(context.Background(), "j1")
	assert.Nil(t, err)
}

func TestAcquire_Validates(t *testing.T) {
	l, _ := NewLocker(blob.NewMemoryStore(), time.Minute)

	err := l.Acquire(context.Background(), "a/../b")
	assert.Equal(t, job.ErrValidation, errors.Cause(err))
}

func readPayload(t *testing.T, st *blob.MemoryStore) payload {
	t.Helper()
	data, err := st.ReadText(context.Background(), "locks/j1")
	require.Nil(t, err)
	var res payload
	require.Nil(t, json.Unmarshal([]byte(data), &res))
	return res
}

type noSwapStore struct {
	st *blob.MemoryStore
}

func (s *noSwapStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.st.Exists(ctx, key)
}
func (s *noSwapStore) ReadText(ctx context.Context, key string) (string, error) {
	return s.st.ReadText(ctx, key)
}
func (s *noSwapStore) WriteText(ctx context.Context, key string, text string) error {
	return s.st.WriteText(ctx, key, text)
}
func (s *noSwapStore) CreateIfAbsent(ctx context.Context, key string, text string) error {
	return s.st.CreateIfAbsent(ctx, key, text)
}
func (s *noSwapStore) Delete(ctx context.Context, key string) error {
	return s.st.Delete(ctx, key)
}

type conflictStore struct {
	*blob.MemoryStore
}

func (s *conflictStore) CompareAndSwap(ctx context.Context, key string, old, new string) error {
	return blob.ErrConflict
}
