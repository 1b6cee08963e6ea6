package job

import (
	"regexp"
	"strconv"

	"github.com/pkg/errors"
)

//MaxChunks is the upper limit of chunks a job may be split into
const MaxChunks = 10000

//ErrValidation indicates wrong caller input
var ErrValidation = errors.New("validation error")

var idRegexp = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,127}$`)

//ValidateID checks if job id can be used in storage keys
func ValidateID(id string) error {
	if !idRegexp.MatchString(id) {
		return errors.Wrapf(ErrValidation, "wrong id '%s'", id)
	}
	return nil
}

//ValidateChunkCount checks total chunk count
func ValidateChunkCount(n int) error {
	if n < 1 || n > MaxChunks {
		return errors.Wrapf(ErrValidation, "wrong chunk count %d, expected [1, %d]", n, MaxChunks)
	}
	return nil
}

//ValidateChunkIndex checks chunk index against the total count
func ValidateChunkIndex(i, n int) error {
	if err := ValidateChunkCount(n); err != nil {
		return err
	}
	if i < 0 || i >= n {
		return errors.Wrapf(ErrValidation, "wrong chunk index %d, expected [0, %d)", i, n)
	}
	return nil
}

//ParseInt parses a request parameter
func ParseInt(s, name string) (int, error) {
	if s == "" {
		return 0, errors.Wrapf(ErrValidation, "no %s", name)
	}
	res, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.Wrapf(ErrValidation, "wrong %s '%s'", name, s)
	}
	return res, nil
}
