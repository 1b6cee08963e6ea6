package orchestrator

import (
	"context"
	"sync"
	"time"

	"bitbucket.org/airenas/subtitler/internal/pkg/batch"
	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"bitbucket.org/airenas/subtitler/internal/pkg/job"
	"bitbucket.org/airenas/subtitler/internal/pkg/lock"
	"bitbucket.org/airenas/subtitler/internal/pkg/result"
	"bitbucket.org/airenas/subtitler/internal/pkg/status"
	"bitbucket.org/airenas/subtitler/internal/pkg/transcript"
	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"
)

//ErrDegraded indicates that no translator is configured, new runs can't be started
var ErrDegraded = errors.New("translator is not available")

//DefaultWorkers is the process wide limit of simultaneous translation calls
const DefaultWorkers = 8

const releaseTimeout = 30 * time.Second

type (
	//Detector checks transcripts presence
	Detector interface {
		Check(ctx context.Context, jobID string, chunks int) (*transcript.Completion, error)
	}
	//Loader reads transcripts
	Loader interface {
		Load(ctx context.Context, keys []string) ([]*transcript.Chunk, error)
	}
	//Locker provides per job mutual exclusion
	Locker interface {
		Acquire(ctx context.Context, jobID string) error
		Release(ctx context.Context, jobID string) error
	}
	//Translator translates one batch
	Translator interface {
		Translate(ctx context.Context, text string) (string, error)
	}
	//Materializer persists results
	Materializer interface {
		Load(ctx context.Context, jobID string) (*result.Result, bool, error)
		Save(ctx context.Context, jobID string, doc string) (*result.Result, error)
	}
	//Notifier is informed about completed jobs
	Notifier interface {
		Notify(res *status.Result) error
	}
)

//Data keeps orchestrator dependencies
type Data struct {
	Detector     Detector
	Loader       Loader
	Locker       Locker
	Materializer Materializer
	// Translator may be nil, then the service is degraded
	Translator Translator
	// Semaphore is shared by all jobs, DefaultWorkers if nil
	Semaphore *semaphore.Weighted
	BatchSize int
	Notifiers []Notifier
}

//Orchestrator drives a job from complete transcripts to the persisted translation
type Orchestrator struct {
	detector     Detector
	loader       Loader
	locker       Locker
	materializer Materializer
	translator   Translator
	sem          *semaphore.Weighted
	batchSize    int
	notifiers    []Notifier
	metrics      *serviceMetrics

	wg sync.WaitGroup
}

//New creates Orchestrator
func New(data Data) (*Orchestrator, error) {
	if data.Detector == nil {
		return nil, errors.New("no detector")
	}
	if data.Loader == nil {
		return nil, errors.New("no loader")
	}
	if data.Locker == nil {
		return nil, errors.New("no locker")
	}
	if data.Materializer == nil {
		return nil, errors.New("no materializer")
	}
	res := &Orchestrator{detector: data.Detector, loader: data.Loader, locker: data.Locker,
		materializer: data.Materializer, translator: data.Translator, sem: data.Semaphore,
		batchSize: data.BatchSize, notifiers: data.Notifiers}
	if res.sem == nil {
		res.sem = semaphore.NewWeighted(DefaultWorkers)
	}
	if res.batchSize < 1 {
		res.batchSize = batch.DefaultSize
	}
	var err error
	if res.metrics, err = newMetrics(); err != nil {
		return nil, err
	}
	if res.translator == nil {
		cmdapp.Log.Warn("No translator, new translations are disabled")
	}
	return res, nil
}

//Status answers the job status query. It starts a translation run if the job is ready and nobody runs it
func (o *Orchestrator) Status(ctx context.Context, jobID string, chunks int) (*status.Result, error) {
	if err := job.ValidateID(jobID); err != nil {
		return nil, err
	}
	if err := job.ValidateChunkCount(chunks); err != nil {
		return nil, err
	}
	c, err := o.detector.Check(ctx, jobID, chunks)
	if err != nil {
		return nil, errors.Wrap(err, "can't check transcripts")
	}
	if !c.Complete() {
		return status.NewIncomplete(jobID, c.Missing), nil
	}
	res, found, err := o.materializer.Load(ctx, jobID)
	if err != nil {
		return nil, errors.Wrap(err, "can't load result")
	}
	if found {
		return status.NewCompleted(jobID, res.Document, res.PlainText), nil
	}
	if o.translator == nil {
		return nil, ErrDegraded
	}
	err = o.locker.Acquire(ctx, jobID)
	if errors.Cause(err) == lock.ErrLocked {
		return status.NewProcessing(jobID, status.LockWait), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "can't acquire lock")
	}
	cmdapp.Log.Infof("Acquired lock for %s", jobID)
	// a run may have finished between the result check and the lock
	res, found, err = o.materializer.Load(ctx, jobID)
	if err != nil || found {
		o.release(jobID)
	}
	if err != nil {
		return nil, errors.Wrap(err, "can't load result")
	}
	if found {
		return status.NewCompleted(jobID, res.Document, res.PlainText), nil
	}
	o.start(jobID, c.Keys)
	return status.NewProcessing(jobID, status.Translating), nil
}

//Wait blocks until all started runs end
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) start(jobID string, keys []string) {
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.run(jobID, keys)
	}()
}
