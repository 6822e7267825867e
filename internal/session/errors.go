package session

import "errors"

var (
	// ErrBusy rejects a chat turn while another is in flight for the same interaction.
	ErrBusy            = errors.New("a request for this question is already in progress")
	ErrEmptyMessage    = errors.New("message text is empty")
	ErrIndexOutOfRange = errors.New("question index out of range")
	ErrAlreadyStarted  = errors.New("round already started")
	// ErrNotActive covers operations that the current phase does not allow.
	ErrNotActive     = errors.New("session is not active")
	ErrSessionClosed = errors.New("session closed")
)
