package saver

import (
	"io"
	"os"
	"path/filepath"

	"bitbucket.org/airenas/subtitler/internal/pkg/blob"
	"bitbucket.org/airenas/subtitler/internal/pkg/cmdapp"
	"github.com/pkg/errors"
)

//WriterCloser keeps Writer interface and close function
type WriterCloser interface {
	io.Writer
	Close() error
}

//OpenFileFunc declares function to open file by name and return Writer
type OpenFileFunc func(fileName string) (WriterCloser, error)

// LocalFileSaver saves uploaded files on local disk
type LocalFileSaver struct {
	// StoragePath is the main folder to save into
	StoragePath  string
	OpenFileFunc OpenFileFunc
}

//NewLocalFileSaver creates LocalFileSaver instance
func NewLocalFileSaver(storagePath string) (*LocalFileSaver, error) {
	if storagePath == "" {
		return nil, errors.New("no storage path")
	}
	return &LocalFileSaver{StoragePath: storagePath, OpenFileFunc: openFile}, nil
}

// Save saves file under the key, overwrites the old one
func (fs *LocalFileSaver) Save(key string, reader io.Reader) error {
	if err := blob.ValidateKey(key); err != nil {
		return err
	}
	fileName := filepath.Join(fs.StoragePath, filepath.FromSlash(key))
	f, err := fs.OpenFileFunc(fileName)
	if err != nil {
		return errors.Wrapf(err, "can't create file %s", fileName)
	}
	defer f.Close()
	savedBytes, err := io.Copy(f, reader)
	if err != nil {
		return errors.Wrapf(err, "can't save file %s", fileName)
	}
	cmdapp.Log.Infof("Saved file %s. Size = %d", fileName, savedBytes)
	return nil
}

func openFile(fileName string) (WriterCloser, error) {
	if err := os.MkdirAll(filepath.Dir(fileName), 0755); err != nil {
		return nil, err
	}
	return os.OpenFile(fileName, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}
