package importer

import (
	"errors"
	"fmt"
)

// ErrParse marks an unreadable or malformed input file. It aborts the run
// before any record is mapped.
var ErrParse = errors.New("parse error")

// SkipError is returned by Map for records that are deliberately not
// imported: zero amounts, excluded statuses, settlements captured by
// another source.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string { return "skipped: " + e.Reason }

func skip(format string, args ...any) error {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

// IsSkip reports whether err is a SkipError.
func IsSkip(err error) bool {
	var s *SkipError
	return errors.As(err, &s)
}

func parseErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}
