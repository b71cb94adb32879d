package manifest

import (
	"github.com/thoreinstein/snapkeep/internal/errors"
)

// ErrCorrupt matches every manifest load failure.
var ErrCorrupt = errors.New("manifest corrupt")

// CorruptError reports a manifest that failed to read, parse or validate.
type CorruptError struct {
	Path string
	Err  error
}

func newCorruptError(path string, cause error) *CorruptError {
	return &CorruptError{Path: path, Err: errors.Mark(cause, ErrCorrupt)}
}

func (e *CorruptError) Error() string {
	return "manifest " + e.Path + " is corrupt: " + e.Err.Error()
}

func (e *CorruptError) Unwrap() error {
	return e.Err
}

// Is makes the standard library's errors.Is match ErrCorrupt as well.
func (e *CorruptError) Is(target error) bool {
	return target == ErrCorrupt
}
