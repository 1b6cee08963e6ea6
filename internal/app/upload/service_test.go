package upload

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitbucket.org/airenas/subtitler/internal/pkg/messages"
	"bitbucket.org/airenas/subtitler/internal/pkg/test"
	"bitbucket.org/airenas/subtitler/internal/pkg/test/mocks"
	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	saverMock  *mocks.FileSaver
	senderMock *test.Sender
)

func initTest(t *testing.T) *ServiceData {
	t.Helper()
	saverMock = &mocks.FileSaver{}
	senderMock = &test.Sender{}
	return &ServiceData{FileSaver: saverMock, MessageSender: senderMock, health: healthcheck.NewHandler()}
}

func TestWrongPath(t *testing.T) {
	req := httptest.NewRequest("GET", "/invalid", nil)
	testCode(t, initTest(t), req, 404)
}

func TestNoForm(t *testing.T) {
	req := httptest.NewRequest("POST", "/upload_chunk", nil)
	testCode(t, initTest(t), req, 400)
}

func TestUpload(t *testing.T) {
	data := initTest(t)
	saverMock.On("Save", mock.Anything).Return(nil)
	req := newRequest(t, map[string]string{"file_id": "j1", "chunk_index": "1", "total_chunks": "3"}, true)

	resp := testCode(t, data, req, 200)

	var res ChunkResult
	require.Nil(t, json.Unmarshal(resp.Body.Bytes(), &res))
	assert.Equal(t, ChunkResult{Status: "uploaded", Index: 1}, res)
	assert.Equal(t, map[string]string{"raw_audio/j1/1": "audio"}, saverMock.Data)
	assert.True(t, test.ContainsMsg(senderMock.Sent(), "raw_audio/j1/1", messages.Transcribe))
}

func TestUpload_FirstSavesMetadata(t *testing.T) {
	data := initTest(t)
	saverMock.On("Save", mock.Anything).Return(nil)
	req := newRequest(t, map[string]string{"file_id": "j1", "chunk_index": "0", "total_chunks": "3", "mode": "song"}, true)

	testCode(t, data, req, 200)

	assert.JSONEq(t, `{"mode":"song"}`, saverMock.Data["raw_audio/j1/metadata.json"])
	assert.Equal(t, "audio", saverMock.Data["raw_audio/j1/0"])
}

func TestUpload_DefaultMode(t *testing.T) {
	data := initTest(t)
	saverMock.On("Save", mock.Anything).Return(nil)
	req := newRequest(t, map[string]string{"file_id": "j1", "chunk_index": "0", "total_chunks": "1"}, true)

	testCode(t, data, req, 200)

	assert.JSONEq(t, `{"mode":"speech"}`, saverMock.Data["raw_audio/j1/metadata.json"])
}

func TestUpload_NoSender(t *testing.T) {
	data := initTest(t)
	data.MessageSender = nil
	saverMock.On("Save", mock.Anything).Return(nil)
	req := newRequest(t, map[string]string{"file_id": "j1", "chunk_index": "2", "total_chunks": "3"}, true)

	testCode(t, data, req, 200)

	assert.Equal(t, "audio", saverMock.Data["raw_audio/j1/2"])
}

func TestUpload_WrongParams(t *testing.T) {
	tests := []map[string]string{
		{"chunk_index": "0", "total_chunks": "3"},
		{"file_id": "../j1", "chunk_index": "0", "total_chunks": "3"},
		{"file_id": "j1", "total_chunks": "3"},
		{"file_id": "j1", "chunk_index": "a", "total_chunks": "3"},
		{"file_id": "j1", "chunk_index": "3", "total_chunks": "3"},
		{"file_id": "j1", "chunk_index": "-1", "total_chunks": "3"},
		{"file_id": "j1", "chunk_index": "0"},
		{"file_id": "j1", "chunk_index": "0", "total_chunks": "0"},
		{"file_id": "j1", "chunk_index": "0", "total_chunks": "3", "mode": "music"},
	}
	for _, tc := range tests {
		data := initTest(t)
		testCode(t, data, newRequest(t, tc, true), 400)
		assert.Empty(t, saverMock.Data)
		assert.Empty(t, senderMock.Sent())
	}
}

func TestUpload_NoFile(t *testing.T) {
	data := initTest(t)
	req := newRequest(t, map[string]string{"file_id": "j1", "chunk_index": "1", "total_chunks": "3"}, false)

	testCode(t, data, req, 400)
}

func TestUpload_SaveFails(t *testing.T) {
	data := initTest(t)
	saverMock.On("Save", mock.Anything).Return(errors.New("olia"))
	req := newRequest(t, map[string]string{"file_id": "j1", "chunk_index": "1", "total_chunks": "3"}, true)

	testCode(t, data, req, 500)

	assert.Empty(t, senderMock.Sent())
}

func TestUpload_MetadataFails(t *testing.T) {
	data := initTest(t)
	saverMock.On("Save", "raw_audio/j1/metadata.json").Return(errors.New("olia"))
	req := newRequest(t, map[string]string{"file_id": "j1", "chunk_index": "0", "total_chunks": "3"}, true)

	testCode(t, data, req, 500)

	saverMock.AssertNumberOfCalls(t, "Save", 1)
}

func TestUpload_SendFails(t *testing.T) {
	data := initTest(t)
	saverMock.On("Save", mock.Anything).Return(nil)
	senderMock.Err = errors.New("olia")
	req := newRequest(t, map[string]string{"file_id": "j1", "chunk_index": "1", "total_chunks": "3"}, true)

	testCode(t, data, req, 500)
}

func TestLive(t *testing.T) {
	req := httptest.NewRequest("GET", "/live", nil)
	testCode(t, initTest(t), req, 200)
}

func TestMetrics(t *testing.T) {
	data := initTest(t)
	var err error
	data.metrics, err = newMetrics()
	require.Nil(t, err)
	saverMock.On("Save", mock.Anything).Return(nil)

	testCode(t, data, newRequest(t, map[string]string{"file_id": "j1", "chunk_index": "1", "total_chunks": "3"}, true), 200)
	resp := testCode(t, data, httptest.NewRequest("GET", "/metrics", nil), 200)

	assert.Contains(t, resp.Body.String(), "subtitler_upload_response_duration_seconds_count")
	assert.Contains(t, resp.Body.String(), "subtitler_upload_request_size_bytes_count")
}

func newRequest(t *testing.T, prm map[string]string, withFile bool) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if withFile {
		part, err := writer.CreateFormFile(prmFile, "chunk.webm")
		require.Nil(t, err)
		_, err = io.Copy(part, strings.NewReader("audio"))
		require.Nil(t, err)
	}
	for k, v := range prm {
		require.Nil(t, writer.WriteField(k, v))
	}
	require.Nil(t, writer.Close())
	req := httptest.NewRequest("POST", "/upload_chunk", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func testCode(t *testing.T, data *ServiceData, req *http.Request, code int) *httptest.ResponseRecorder {
	t.Helper()
	resp := httptest.NewRecorder()
	NewRouter(data).ServeHTTP(resp, req)
	assert.Equal(t, code, resp.Code, resp.Body.String())
	return resp
}
