package transcript

import (
	"context"
	"time"

	"bitbucket.org/airenas/subtitler/internal/pkg/blob"
	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"github.com/cenkalti/backoff"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

//BackOffProvider returns a fresh backoff for one operation
type BackOffProvider interface {
	Get() backoff.BackOff
}

//Loader reads transcripts concurrently
type Loader struct {
	store blob.Store
	bp    BackOffProvider
}

//NewLoader creates Loader with exponential retry of 3 attempts
func NewLoader(store blob.Store) (*Loader, error) {
	if store == nil {
		return nil, errors.New("no store")
	}
	return &Loader{store: store, bp: &expBackOffProvider{retries: 3}}, nil
}

//Load reads and parses all transcripts. The result is ordered as keys
func (l *Loader) Load(ctx context.Context, keys []string) ([]*Chunk, error) {
	res := make([]*Chunk, len(keys))
	g, gctx := errgroup.WithContext(ctx)
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			c, err := l.load(gctx, k)
			if err != nil {
				return errors.Wrapf(err, "can't load %s", k)
			}
			res[i] = c
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

func (l *Loader) load(ctx context.Context, key string) (*Chunk, error) {
	var res *Chunk
	op := func() error {
		txt, err := l.store.ReadText(ctx, key)
		if err != nil {
			if errors.Cause(err) == blob.ErrNotFound || ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			cmdapp.Log.Warnf("Can't read %s: %v", key, err)
			return err
		}
		res, err = Parse(txt)
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(l.bp.Get(), ctx)); err != nil {
		return nil, err
	}
	return res, nil
}

type expBackOffProvider struct {
	retries uint64
}

func (bp *expBackOffProvider) Get() backoff.BackOff {
	b := &backoff.ExponentialBackOff{
		InitialInterval:     200 * time.Millisecond,
		RandomizationFactor: backoff.DefaultRandomizationFactor,
		Multiplier:          backoff.DefaultMultiplier,
		MaxInterval:         5 * time.Second,
		MaxElapsedTime:      30 * time.Second,
		Clock:               backoff.SystemClock,
	}
	b.Reset()
	return backoff.WithMaxRetries(b, bp.retries)
}
