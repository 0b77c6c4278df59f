package counter

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidGoal     = errors.New("daily goal must be a positive integer")
	ErrInvalidVolume   = errors.New("volume must be between 0 and 1")
	ErrUnknownPeriod   = errors.New("unknown chart period")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// PersistError reports that one or more fields could not be written to
// storage. The in-memory change that triggered the write has already been
// applied and is not rolled back.
type PersistError struct {
	Keys []string
	Err  error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("failed to persist %s: %v", strings.Join(e.Keys, ", "), e.Err)
}

func (e *PersistError) Unwrap() error {
	return e.Err
}
