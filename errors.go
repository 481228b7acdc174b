package core

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingAPIKey is returned when no API key is provided.
	ErrMissingAPIKey = errors.New("API key is required")

	// ErrNoChoices is returned when the API response has no choices.
	ErrNoChoices = errors.New("no choices in API response")

	// ErrUserNotFound is returned when no user matches the given email.
	ErrUserNotFound = errors.New("user not found")

	// ErrMaxLoginAttempts is returned after the identification retry budget
	// is exhausted.
	ErrMaxLoginAttempts = errors.New("maximum login attempts exceeded")

	// ErrToolRoundsExceeded is returned when the model keeps requesting tools
	// past the configured resolution bound.
	ErrToolRoundsExceeded = errors.New("tool resolution depth exceeded")

	// ErrDuplicateTool is returned when a tool name is registered twice.
	ErrDuplicateTool = errors.New("tool already registered")
)

// APIError represents an error from the chat API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Body)
}

// ReconstructionError reports a persisted record that cannot be replayed.
// It is fatal: the rebuilt context would diverge from what the model saw.
type ReconstructionError struct {
	MessageID int64
	Err       error
}

func (e *ReconstructionError) Error() string {
	return fmt.Sprintf("reconstruct message %d: %v", e.MessageID, e.Err)
}

func (e *ReconstructionError) Unwrap() error { return e.Err }
