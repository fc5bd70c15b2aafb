package core

import "errors"

// Error codes for domain errors.
const (
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeEmptyContent = "empty_content"
	ErrCodeStore        = "store_error"
	ErrCodeNotFound     = "not_found"
	ErrCodeBadRequest   = "bad_request"
)

var (
	// ErrEmptyContent rejects messages that are empty after trimming.
	ErrEmptyContent = errors.New("empty content")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// errorFor maps an ingest failure onto the protocol-visible error sent back
// to the originating connection.
func errorFor(err error) *CoreError {
	if errors.Is(err, ErrEmptyContent) {
		return coreError(ErrCodeEmptyContent, "message content is required")
	}
	return coreError(ErrCodeStore, "failed to send message")
}
