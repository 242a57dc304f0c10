package models

import "errors"

// Stable error taxonomy. Validation errors are detected before any state
// mutation and surface directly to the caller; external-collaborator failures
// never become errors past the orchestrator boundary, they only flip
// availability flags.
var (
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionClosed       = errors.New("session is closed")
	ErrInvalidFeedbackType = errors.New("invalid feedback type")
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrIdeaNotFound        = errors.New("idea not found")
)

// ReasonCode maps an error from the taxonomy to a stable machine-readable
// reason string integrators can branch on.
func ReasonCode(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrSessionClosed):
		return "session_closed"
	case errors.Is(err, ErrInvalidFeedbackType):
		return "invalid_feedback_type"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrIdeaNotFound):
		return "idea_not_found"
	default:
		return "internal_error"
	}
}
