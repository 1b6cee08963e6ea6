package transcript

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"bitbucket.org/airenas/subtitler/internal/pkg/blob"
	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	st := blob.NewMemoryStore()
	keys := []string{}
	for i := 0; i < 5; i++ {
		k := blob.TranscriptKey("j1", i)
		require.Nil(t, st.WriteText(context.Background(), k, fmt.Sprintf(`{"segments":[],"duration":%d}`, i)))
		keys = append(keys, k)
	}
	l := newTestLoader(st)

	res, err := l.Load(context.Background(), keys)

	assert.Nil(t, err)
	require.Equal(t, 5, len(res))
	for i, c := range res {
		assert.Equal(t, float64(i), c.Duration)
	}
}

func TestLoad_Retries(t *testing.T) {
	st := &flakyStore{MemoryStore: blob.NewMemoryStore(), fails: 2}
	k := blob.TranscriptKey("j1", 0)
	require.Nil(t, st.WriteText(context.Background(), k, `{"duration":1}`))
	l := newTestLoader(st)

	res, err := l.Load(context.Background(), []string{k})

	assert.Nil(t, err)
	assert.Equal(t, 1.0, res[0].Duration)
	assert.Equal(t, 3, st.calls)
}

func TestLoad_FailsAfterRetries(t *testing.T) {
	st := &flakyStore{MemoryStore: blob.NewMemoryStore(), fails: 10}
	k := blob.TranscriptKey("j1", 0)
	require.Nil(t, st.WriteText(context.Background(), k, `{"duration":1}`))
	l := newTestLoader(st)

	_, err := l.Load(context.Background(), []string{k})

	assert.NotNil(t, err)
	assert.Equal(t, 4, st.calls)
}

func TestLoad_NotFoundIsPermanent(t *testing.T) {
	st := &flakyStore{MemoryStore: blob.NewMemoryStore()}
	l := newTestLoader(st)

	_, err := l.Load(context.Background(), []string{blob.TranscriptKey("j1", 0)})

	assert.Equal(t, blob.ErrNotFound, errors.Cause(err))
	assert.Equal(t, 1, st.calls)
}

func TestLoad_WrongJSON(t *testing.T) {
	st := &flakyStore{MemoryStore: blob.NewMemoryStore()}
	k := blob.TranscriptKey("j1", 0)
	require.Nil(t, st.WriteText(context.Background(), k, `{"duration":`))
	l := newTestLoader(st)

	_, err := l.Load(context.Background(), []string{k})

	assert.NotNil(t, err)
	assert.Equal(t, 1, st.calls)
}

func newTestLoader(st blob.Store) *Loader {
	l, _ := NewLoader(st)
	l.bp = &testBackOffProvider{}
	return l
}

type testBackOffProvider struct{}

func (bp *testBackOffProvider) Get() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 3)
}

type flakyStore struct {
	*blob.MemoryStore
	m     sync.Mutex
	fails int
	calls int
}

func (s *flakyStore) ReadText(ctx context.Context, key string) (string, error) {
	s.m.Lock()
	s.calls++
	if s.fails > 0 {
		s.fails--
		s.m.Unlock()
		return "", errors.New("olia")
	}
	s.m.Unlock()
	return s.MemoryStore.ReadText(ctx, key)
}
