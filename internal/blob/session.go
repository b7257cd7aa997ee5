package blob

import (
	"errors"
)

// DefaultMaxAttempts bounds an upload session when no limit is configured.
const DefaultMaxAttempts = 15

// ErrSessionClosed is returned when a result is recorded on a finished session.
var ErrSessionClosed = errors.New("upload session already finished")

// State is the position of an upload session in its lifecycle.
type State int

const (
	// StatePending: attempt Attempt() is about to run.
	StatePending State = iota
	// StateSucceeded: a publisher returned a blob id.
	StateSucceeded
	// StateExhausted: MaxAttempts consecutive failures.
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSucceeded:
		return "succeeded"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Result is the outcome of one upload attempt.
type Result struct {
	BlobID string
	Kind   string
	Err    error
}

// Success reports whether the attempt produced a usable blob id.
func (r Result) Success() bool {
	return r.Err == nil && r.BlobID != ""
}

// Session is the retry state machine for a single upload:
//
//	Pending(a) --success--> Succeeded
//	Pending(a) --failure, a < max--> Pending(a+1)
//	Pending(a) --failure, a == max--> Exhausted
//
// A session is used for exactly one upload and never reset.
type Session struct {
	maxAttempts int
	attempt     int
	state       State
	blobID      string
	lastErr     error
}

// NewSession starts a session at attempt 1. Non-positive limits fall back
// to DefaultMaxAttempts.
func NewSession(maxAttempts int) *Session {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Session{maxAttempts: maxAttempts, attempt: 1}
}

// Attempt returns the 1-based number of the current (or final) attempt.
func (s *Session) Attempt() int { return s.attempt }

// MaxAttempts returns the attempt ceiling.
func (s *Session) MaxAttempts() int { return s.maxAttempts }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// BlobID is set once the session has succeeded.
func (s *Session) BlobID() string { return s.blobID }

// LastErr is the most recent failure, if any.
func (s *Session) LastErr() error { return s.lastErr }

// Record applies the outcome of the current attempt and returns the new state.
func (s *Session) Record(r Result) (State, error) {
	if s.state != StatePending {
		return s.state, ErrSessionClosed
	}

	if r.Success() {
		s.state = StateSucceeded
		s.blobID = r.BlobID
		return s.state, nil
	}

	s.lastErr = r.Err
	if s.lastErr == nil {
		s.lastErr = ErrMissingBlobID
	}
	if s.attempt >= s.maxAttempts {
		s.state = StateExhausted
		return s.state, nil
	}
	s.attempt++
	return s.state, nil
}
