package transcript

import (
	"context"

	"bitbucket.org/airenas/subtitler/internal/pkg/blob"
	"bitbucket.org/airenas/subtitler/internal/pkg/job"
	"github.com/pkg/errors"
)

//Completion is a result of transcripts check
type Completion struct {
	// Keys in chunk order, set only if nothing is missing
	Keys    []string
	Missing []int
}

//Complete returns true if all transcripts are present
func (c *Completion) Complete() bool {
	return len(c.Missing) == 0
}

//Detector checks if all job's transcripts are written
type Detector struct {
	store blob.Store
}

//NewDetector creates Detector
func NewDetector(store blob.Store) (*Detector, error) {
	if store == nil {
		return nil, errors.New("no store")
	}
	return &Detector{store: store}, nil
}

//Check looks for transcripts of chunks [0, chunks). Has no side effects
func (d *Detector) Check(ctx context.Context, jobID string, chunks int) (*Completion, error) {
	if err := job.ValidateID(jobID); err != nil {
		return nil, err
	}
	if err := job.ValidateChunkCount(chunks); err != nil {
		return nil, err
	}
	keys := make([]string, chunks)
	missing := []int{}
	for i := 0; i < chunks; i++ {
		keys[i] = blob.TranscriptKey(jobID, i)
		ok, err := d.store.Exists(ctx, keys[i])
		if err != nil {
			return nil, errors.Wrapf(err, "can't check %s", keys[i])
		}
		if !ok {
			missing = append(missing, i)
		}
	}
	if len(missing) > 0 {
		return &Completion{Missing: missing}, nil
	}
	return &Completion{Keys: keys}, nil
}
