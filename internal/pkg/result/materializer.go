package result

import (
	"context"

	"bitbucket.org/airenas/subtitler/internal/pkg/blob"
	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"bitbucket.org/airenas/subtitler/internal/pkg/job"
	"github.com/pkg/errors"
)

//ErrUnknownKind indicates a wrong result file name
var ErrUnknownKind = errors.New("unknown result kind")

//Result keeps persisted job documents
type Result struct {
	Document  string
	PlainText string
}

//Materializer persists and reads job results
type Materializer struct {
	store blob.Store
}

//NewMaterializer creates Materializer
func NewMaterializer(store blob.Store) (*Materializer, error) {
	if store == nil {
		return nil, errors.New("no store")
	}
	return &Materializer{store: store}, nil
}

//Save writes the document once. If a document is already there it wins and is returned
func (m *Materializer) Save(ctx context.Context, jobID string, doc string) (*Result, error) {
	key := blob.CompleteResultKey(jobID)
	err := m.store.CreateIfAbsent(ctx, key, doc)
	if errors.Cause(err) == blob.ErrAlreadyExists {
		cmdapp.Log.Warnf("Result %s exists, keeping it", key)
		doc, err = m.store.ReadText(ctx, key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "can't save %s", key)
	}
	res := &Result{Document: doc, PlainText: PlainText(doc)}
	if err := m.store.WriteText(ctx, blob.PlainTextResultKey(jobID), res.PlainText); err != nil {
		return nil, errors.Wrap(err, "can't save plain text")
	}
	return res, nil
}

//Load returns the persisted result. A missing plain text is derived again
func (m *Materializer) Load(ctx context.Context, jobID string) (*Result, bool, error) {
	doc, err := m.store.ReadText(ctx, blob.CompleteResultKey(jobID))
	if errors.Cause(err) == blob.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "can't read result")
	}
	res := &Result{Document: doc}
	res.PlainText, err = m.store.ReadText(ctx, blob.PlainTextResultKey(jobID))
	if errors.Cause(err) == blob.ErrNotFound {
		res.PlainText = PlainText(doc)
		cmdapp.LogIf(errors.Wrap(m.store.WriteText(ctx, blob.PlainTextResultKey(jobID), res.PlainText),
			"can't restore plain text"))
		err = nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "can't read plain text")
	}
	return res, true, nil
}

//ReadFile returns one of the result documents by kind
func (m *Materializer) ReadFile(ctx context.Context, jobID string, kind string) (string, error) {
	if err := job.ValidateID(jobID); err != nil {
		return "", err
	}
	switch kind {
	case Complete, Plain:
	default:
		return "", errors.Wrapf(ErrUnknownKind, "'%s'", kind)
	}
	res, found, err := m.Load(ctx, jobID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", blob.ErrNotFound
	}
	if kind == Plain {
		return res.PlainText, nil
	}
	return res.Document, nil
}
