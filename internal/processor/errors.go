package processor

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrUnsupportedDrop      = errors.New("unsupported drop type")
	ErrSaveDirectoryMissing = errors.New("save directory missing")
	ErrBusy                 = errors.New("batch already in progress")
)

// DecodeError reports a single item that could not be fetched, decoded or
// written. It never aborts the batch.
type DecodeError struct {
	Index  int
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("item %d (%s): %v", e.Index, e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func decodeErr(it Item, err error) error {
	return &DecodeError{Index: it.Index, Source: it.Display(), Err: err}
}
