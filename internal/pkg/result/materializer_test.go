package result

import (
	"context"
	"testing"

	"bitbucket.org/airenas/subtitler/internal/pkg/blob"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDoc = "1\n00:00:00,000 --> 00:00:02,000\nHello\n\n2\n00:00:02,000 --> 00:00:04,000\nWorld\n"

func TestSave(t *testing.T) {
	st := blob.NewMemoryStore()
	m, _ := NewMaterializer(st)

	r, err := m.Save(context.Background(), "j1", testDoc)

	assert.Nil(t, err)
	assert.Equal(t, &Result{Document: testDoc, PlainText: "Hello\nWorld\n"}, r)
	d, _ := st.ReadText(context.Background(), "final_results/j1_TW_Complete.txt")
	assert.Equal(t, testDoc, d)
	p, _ := st.ReadText(context.Background(), "final_results/j1_TW_PlainText.txt")
	assert.Equal(t, "Hello\nWorld\n", p)
}

func TestSave_FirstWins(t *testing.T) {
	st := blob.NewMemoryStore()
	m, _ := NewMaterializer(st)
	_, err := m.Save(context.Background(), "j1", testDoc)
	require.Nil(t, err)

	r, err := m.Save(context.Background(), "j1", "1\n00:00:00,000 --> 00:00:02,000\nOther\n")

	assert.Nil(t, err)
	assert.Equal(t, testDoc, r.Document)
	p, _ := st.ReadText(context.Background(), "final_results/j1_TW_PlainText.txt")
	assert.Equal(t, "Hello\nWorld\n", p)
}

func TestLoad(t *testing.T) {
	st := blob.NewMemoryStore()
	m, _ := NewMaterializer(st)

	_, found, err := m.Load(context.Background(), "j1")
	assert.Nil(t, err)
	assert.False(t, found)

	_, err = m.Save(context.Background(), "j1", testDoc)
	require.Nil(t, err)
	r, found, err := m.Load(context.Background(), "j1")
	assert.Nil(t, err)
	assert.True(t, found)
	assert.Equal(t, "Hello\nWorld\n", r.PlainText)
}

func TestLoad_RestoresPlainText(t *testing.T) {
	st := blob.NewMemoryStore()
	require.Nil(t, st.WriteText(context.Background(), "final_results/j1_TW_Complete.txt", testDoc))
	m, _ := NewMaterializer(st)

	r, found, err := m.Load(context.Background(), "j1")

	assert.Nil(t, err)
	assert.True(t, found)
	assert.Equal(t, "Hello\nWorld\n", r.PlainText)
	p, _ := st.ReadText(context.Background(), "final_results/j1_TW_PlainText.txt")
	assert.Equal(t, "Hello\nWorld\n", p)
}

func TestReadFile(t *testing.T) {
	m, _ := NewMaterializer(blob.NewMemoryStore())
	_, err := m.ReadFile(context.Background(), "j1", Complete)
	assert.Equal(t, blob.ErrNotFound, err)

	_, err = m.Save(context.Background(), "j1", testDoc)
	require.Nil(t, err)

	s, err := m.ReadFile(context.Background(), "j1", Complete)
	assert.Nil(t, err)
	assert.Equal(t, testDoc, s)
	s, err = m.ReadFile(context.Background(), "j1", Plain)
	assert.Nil(t, err)
	assert.Equal(t, "Hello\nWorld\n", s)
	_, err = m.ReadFile(context.Background(), "j1", "olia")
	assert.Equal(t, ErrUnknownKind, errors.Cause(err))
}
