package blob

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

var (
	//ErrNotFound indicates no object for the key
	ErrNotFound = errors.New("object not found")
	//ErrAlreadyExists indicates a failed atomic create
	ErrAlreadyExists = errors.New("object already exists")
	//ErrConflict indicates a failed conditional replace
	ErrConflict = errors.New("object changed")
	//ErrWrongKey indicates the key can't be mapped to storage
	ErrWrongKey = errors.New("wrong key")
)

// Store is a text object storage. It is used for data and as a coordination substrate,
// so CreateIfAbsent must be atomic: of several concurrent callers only one succeeds.
type Store interface {
	Exists(ctx context.Context, key string) (bool, error)
	// ReadText returns ErrNotFound if there is no object
	ReadText(ctx context.Context, key string) (string, error)
	WriteText(ctx context.Context, key string, text string) error
	// CreateIfAbsent returns ErrAlreadyExists if the object is present
	CreateIfAbsent(ctx context.Context, key string, text string) error
	// Delete succeeds if there is no object
	Delete(ctx context.Context, key string) error
}

// Swapper is implemented by stores having a conditional replace primitive
type Swapper interface {
	// CompareAndSwap replaces the text only if the current one equals old,
	// returns ErrConflict otherwise
	CompareAndSwap(ctx context.Context, key string, old, new string) error
}

//ValidateKey checks if key is a relative slash separated path without '..' parts
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.HasSuffix(key, "/") {
		return errors.Wrapf(ErrWrongKey, "'%s'", key)
	}
	for _, p := range strings.Split(key, "/") {
		if p == "" || p == "." || p == ".." || strings.Contains(p, "\\") {
			return errors.Wrapf(ErrWrongKey, "'%s'", key)
		}
	}
	return nil
}
