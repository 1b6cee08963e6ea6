package file

import (
	"context"
	"os"
	"path"
	"path/filepath"
	"time"

	"bitbucket.org/airenas/subtitler/internal/pkg/blob"
	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"github.com/gofrs/flock"
	"github.com/pkg/errors"
)

// one lock file per directory serializes all writers of the directory
const lockName = ".store.flock"

const lockRetryDelay = 20 * time.Millisecond

//Store keeps objects as files under one directory. Several processes may share the directory
type Store struct {
	path string
}

//NewStore creates a Store, the directory is created if missing
func NewStore(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("no storage path")
	}
	if err := os.MkdirAll(path, os.ModePerm); err != nil {
		return nil, errors.Wrapf(err, "can't init storage directory %s", path)
	}
	cmdapp.Log.Infof("File storage at %s", path)
	return &Store{path: path}, nil
}

//Exists checks for the file
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	fp, err := s.filePath(key)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(fp)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "can't stat %s", fp)
	}
	return true, nil
}

//ReadText reads the file
func (s *Store) ReadText(ctx context.Context, key string) (string, error) {
	fp, err := s.filePath(key)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(fp)
	if os.IsNotExist(err) {
		return "", blob.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "can't read %s", fp)
	}
	return string(b), nil
}

//WriteText replaces the file atomically
func (s *Store) WriteText(ctx context.Context, key string, text string) error {
	fp, err := s.filePath(key)
	if err != nil {
		return err
	}
	return withLock(ctx, fp, func() error {
		return replace(fp, text)
	})
}

//CreateIfAbsent links a fully written temp file into place, link fails if the file exists
func (s *Store) CreateIfAbsent(ctx context.Context, key string, text string) error {
	fp, err := s.filePath(key)
	if err != nil {
		return err
	}
	return withLock(ctx, fp, func() error {
		tmp, err := writeTemp(fp, text)
		if err != nil {
			return err
		}
		defer os.Remove(tmp)
		if err := os.Link(tmp, fp); err != nil {
			if os.IsExist(err) {
				return blob.ErrAlreadyExists
			}
			return errors.Wrapf(err, "can't create %s", fp)
		}
		return nil
	})
}

//CompareAndSwap replaces the file if it still has the old content.
//Create, write and delete of the same directory wait for it
func (s *Store) CompareAndSwap(ctx context.Context, key string, old, new string) error {
	fp, err := s.filePath(key)
	if err != nil {
		return err
	}
	return withLock(ctx, fp, func() error {
		b, err := os.ReadFile(fp)
		if os.IsNotExist(err) {
			return blob.ErrConflict
		}
		if err != nil {
			return errors.Wrapf(err, "can't read %s", fp)
		}
		if string(b) != old {
			return blob.ErrConflict
		}
		return replace(fp, new)
	})
}

//Delete removes the file
func (s *Store) Delete(ctx context.Context, key string) error {
	fp, err := s.filePath(key)
	if err != nil {
		return err
	}
	if _, err := os.Stat(filepath.Dir(fp)); os.IsNotExist(err) {
		return nil
	}
	return withLock(ctx, fp, func() error {
		if err := os.Remove(fp); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "can't delete %s", fp)
		}
		return nil
	})
}

//Healthy checks if the storage dir is accessible
func (s *Store) Healthy() error {
	st, err := os.Stat(s.path)
	if err != nil {
		return errors.Wrapf(err, "can't access %s", s.path)
	}
	if !st.IsDir() {
		return errors.Errorf("%s is not a dir", s.path)
	}
	return nil
}

func (s *Store) filePath(key string) (string, error) {
	if err := blob.ValidateKey(key); err != nil {
		return "", err
	}
	if path.Base(key) == lockName {
		return "", errors.Wrapf(blob.ErrWrongKey, "reserved name '%s'", key)
	}
	return filepath.Join(s.path, filepath.FromSlash(key)), nil
}

// withLock runs f holding the lock file of fp's directory, the directory is created if missing
func withLock(ctx context.Context, fp string, f func() error) error {
	dir := filepath.Dir(fp)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return errors.Wrapf(err, "can't create dir %s", dir)
	}
	fl := flock.New(filepath.Join(dir, lockName))
	ok, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return errors.Wrapf(err, "can't lock %s", dir)
	}
	if !ok {
		return errors.Errorf("can't lock %s", dir)
	}
	defer fl.Unlock()
	return f()
}

func replace(fp, text string) error {
	tmp, err := writeTemp(fp, text)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, fp); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "can't rename to %s", fp)
	}
	return nil
}

func writeTemp(fp, text string) (string, error) {
	dir := filepath.Dir(fp)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return "", errors.Wrapf(err, "can't create dir %s", dir)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(fp)+".*.tmp")
	if err != nil {
		return "", errors.Wrapf(err, "can't create temp file in %s", dir)
	}
	_, err = f.WriteString(text)
	if err == nil {
		err = f.Sync()
	}
	if cErr := f.Close(); err == nil {
		err = cErr
	}
	if err != nil {
		os.Remove(f.Name())
		return "", errors.Wrapf(err, "can't write temp file for %s", fp)
	}
	return f.Name(), nil
}
