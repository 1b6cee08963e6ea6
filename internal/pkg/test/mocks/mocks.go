package mocks

import (
	"context"
	"io"

	"bitbucket.org/airenas/subtitler/internal/pkg/status"
	"github.com/stretchr/testify/mock"
)

//StatusProvider is a mock
type StatusProvider struct {
	mock.Mock
}

//Status is a mocked Status function
func (m *StatusProvider) Status(ctx context.Context, jobID string, chunks int) (*status.Result, error) {
	args := m.Called(ctx, jobID, chunks)
	return mockResult(args.Get(0)), args.Error(1)
}

func mockResult(v interface{}) *status.Result {
	if v == nil {
		return nil
	}
	return v.(*status.Result)
}

//ResultReader is a mock
type ResultReader struct {
	mock.Mock
}

//ReadFile is a mocked ReadFile function
func (m *ResultReader) ReadFile(ctx context.Context, jobID string, kind string) (string, error) {
	args := m.Called(ctx, jobID, kind)
	return args.String(0), args.Error(1)
}

//FileSaver is a mock, it keeps saved data
type FileSaver struct {
	mock.Mock
	Data map[string]string
}

//Save is a mocked Save function
func (m *FileSaver) Save(key string, reader io.Reader) error {
	b, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if m.Data == nil {
		m.Data = make(map[string]string)
	}
	m.Data[key] = string(b)
	args := m.Called(key)
	return args.Error(0)
}
