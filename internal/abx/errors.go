package abx

import (
	"errors"
	"fmt"
)

var (
	// ErrInputTooLarge is wrapped by ParseFailure when a document exceeds
	// the configured size limit.
	ErrInputTooLarge = errors.New("input exceeds size limit")
)

// ParseFailure is returned when parsing cannot complete for reasons other
// than ordinary malformed markup. BookName holds whatever title was
// recovered before the failure, if any.
type ParseFailure struct {
	BookName string
	Err      error
}

func (f *ParseFailure) Error() string {
	if f.BookName == "" {
		return fmt.Sprintf("parse abx: %v", f.Err)
	}
	return fmt.Sprintf("parse abx %q: %v", f.BookName, f.Err)
}

func (f *ParseFailure) Unwrap() error {
	return f.Err
}
