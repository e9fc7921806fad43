package types

import "errors"

var (
	// ErrIdentityViolation is returned when an operation names a session other than the reserved one
	ErrIdentityViolation = errors.New("session name is not allowed")
	// ErrSessionNotFound is returned when no active session exists
	ErrSessionNotFound = errors.New("session not found")
	// ErrAlreadyStarted is returned when starting over a live session
	ErrAlreadyStarted = errors.New("session already started")
	// ErrInvalidConfig is returned for session configuration that cannot be used
	ErrInvalidConfig = errors.New("invalid session config")
	// ErrShuttingDown is returned when starting a session during process shutdown
	ErrShuttingDown = errors.New("server is shutting down")
)
