package upload

import (
	"io"
)

// FileSaver saves the file under the provided storage key
type FileSaver interface {
	Save(key string, reader io.Reader) error
}
