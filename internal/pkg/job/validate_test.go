package job

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestValidateID(t *testing.T) {
	for _, s := range []string{"a", "job1", "0f8fad5b-d9cb-469f-a165-70867728950e", "a_b", strings.Repeat("a", 128)} {
		assert.Nil(t, ValidateID(s), s)
	}
}

func TestValidateID_Fail(t *testing.T) {
	for _, s := range []string{"", "-a", "_a", "a/b", "../a", "a.b", "a b", strings.Repeat("a", 129)} {
		assert.Equal(t, ErrValidation, errors.Cause(ValidateID(s)), s)
	}
}

func TestValidateChunkCount(t *testing.T) {
	assert.Nil(t, ValidateChunkCount(1))
	assert.Nil(t, ValidateChunkCount(MaxChunks))
	assert.Equal(t, ErrValidation, errors.Cause(ValidateChunkCount(0)))
	assert.Equal(t, ErrValidation, errors.Cause(ValidateChunkCount(-1)))
	assert.Equal(t, ErrValidation, errors.Cause(ValidateChunkCount(MaxChunks+1)))
}

func TestValidateChunkIndex(t *testing.T) {
	assert.Nil(t, ValidateChunkIndex(0, 1))
	assert.Nil(t, ValidateChunkIndex(2, 3))
	assert.Equal(t, ErrValidation, errors.Cause(ValidateChunkIndex(3, 3)))
	assert.Equal(t, ErrValidation, errors.Cause(ValidateChunkIndex(-1, 3)))
	assert.Equal(t, ErrValidation, errors.Cause(ValidateChunkIndex(0, 0)))
}

func TestParseInt(t *testing.T) {
	v, err := ParseInt("12", "n")
	assert.Nil(t, err)
	assert.Equal(t, 12, v)
	_, err = ParseInt("", "n")
	assert.Equal(t, ErrValidation, errors.Cause(err))
	_, err = ParseInt("1a", "n")
	assert.Equal(t, ErrValidation, errors.Cause(err))
}
