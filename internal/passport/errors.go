package passport

import (
	"errors"
	"fmt"
)

// Callers branch on these with errors.Is; every failure of a passport
// operation wraps exactly one of them.
var (
	ErrNotFound           = errors.New("not found")
	ErrAlreadyCheckedIn   = errors.New("already checked in to this event")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrValidation         = errors.New("validation failed")
	ErrInternal           = errors.New("internal error")
)

// Classify wraps err with ErrInternal unless it already carries one of the
// passport sentinels.
func Classify(err error, msg string) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{ErrNotFound, ErrAlreadyCheckedIn, ErrServiceUnavailable, ErrValidation, ErrInternal} {
		if errors.Is(err, sentinel) {
			return fmt.Errorf("%s: %w", msg, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", msg, ErrInternal, err)
}
