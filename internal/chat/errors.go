package chat

import (
	"errors"
	"fmt"
)

// Sentinel errors for exchange-level rejections. Everything below is
// surfaced to the caller; all other pipeline hiccups degrade to fallback
// values so the user still receives a best-effort answer.
var (
	// ErrMissingQuestion indicates the question was empty.
	ErrMissingQuestion = errors.New("missing question")

	// ErrMissingSession indicates no session id was supplied.
	ErrMissingSession = errors.New("missing session id")

	// ErrSessionExpired indicates the session has no registered database
	// connection; the caller must reconnect.
	ErrSessionExpired = errors.New("session expired, please reconnect your database")
)

// ExecutionError is returned when the generate/execute/repair loop exhausts
// its attempt budget. It carries the attempt count and the last SQL tried so
// the caller can show the user what failed.
type ExecutionError struct {
	Attempts int
	SQL      string
	Err      error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("SQL execution failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
