package orchestrator

import (
	"context"
	"sync"
	"time"

	"bitbucket.org/airenas/subtitler/internal/pkg/batch"
	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"bitbucket.org/airenas/subtitler/internal/pkg/result"
	"bitbucket.org/airenas/subtitler/internal/pkg/status"
	"github.com/pkg/errors"
)

// run is not bound to the request that started it
func (o *Orchestrator) run(jobID string, keys []string) {
	defer o.release(jobID)

	start := time.Now()
	cmdapp.Log.Infof("Starting translation of %s, chunks %d", jobID, len(keys))
	res, err := o.translateJob(context.Background(), jobID, keys)
	if err != nil {
		o.metrics.runs.WithLabelValues("fail").Inc()
		cmdapp.Log.Error(errors.Wrapf(err, "translation of %s failed", jobID))
		return
	}
	o.metrics.runs.WithLabelValues("ok").Inc()
	cmdapp.Log.Infof("Translated %s in %s", jobID, time.Since(start).Round(time.Millisecond))
	o.notify(status.NewCompleted(jobID, res.Document, res.PlainText))
}

func (o *Orchestrator) translateJob(ctx context.Context, jobID string, keys []string) (*result.Result, error) {
	chunks, err := o.loader.Load(ctx, keys)
	if err != nil {
		return nil, errors.Wrap(err, "can't load transcripts")
	}
	batches := batch.Plan(chunks, o.batchSize)
	cmdapp.Log.Infof("Planned %d batches for %s", len(batches), jobID)
	doc := batch.Join(o.translateAll(ctx, jobID, batches))
	return o.materializer.Save(ctx, jobID, doc)
}

// translateAll returns texts in batches order
func (o *Orchestrator) translateAll(ctx context.Context, jobID string, batches []batch.Batch) []string {
	res := make([]string, len(batches))
	var wg sync.WaitGroup
	for i := range batches {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res[i] = o.translateBatch(ctx, jobID, &batches[i])
		}(i)
	}
	wg.Wait()
	return res
}

// translateBatch never fails, the source text is returned on error
func (o *Orchestrator) translateBatch(ctx context.Context, jobID string, b *batch.Batch) string {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		cmdapp.Log.Warnf("Can't wait for a translation slot for %s %s: %v", jobID, b.Key(), err)
		o.metrics.batches.WithLabelValues("fail").Inc()
		return b.Text
	}
	defer o.sem.Release(1)
	o.metrics.inFlight.Inc()
	defer o.metrics.inFlight.Dec()

	cmdapp.Log.Debugf("Translating %s %s", jobID, b.Key())
	start := time.Now()
	res, err := o.translator.Translate(ctx, b.Text)
	o.metrics.batchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		o.metrics.batches.WithLabelValues("fail").Inc()
		cmdapp.Log.Warnf("Translation of %s %s failed, keeping source: %v", jobID, b.Key(), err)
		return b.Text
	}
	o.metrics.batches.WithLabelValues("ok").Inc()
	return res
}

func (o *Orchestrator) release(jobID string) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()
	if err := o.locker.Release(ctx, jobID); err != nil {
		cmdapp.Log.Error(errors.Wrapf(err, "can't release lock for %s", jobID))
		return
	}
	cmdapp.Log.Infof("Released lock for %s", jobID)
}

func (o *Orchestrator) notify(res *status.Result) {
	for _, n := range o.notifiers {
		cmdapp.LogIf(errors.Wrapf(n.Notify(res), "can't notify about %s", res.ID))
	}
}
