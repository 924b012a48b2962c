package service

import (
	"github.com/rotisserie/eris"
)

// Error kinds. Every error returned by Service matches exactly one of these
// with errors.Is.
var (
	ErrValidation    = eris.New("validation failed")
	ErrNotConfigured = eris.New("service not configured")
	ErrNotFound      = eris.New("no solar potential")
	ErrUpstream      = eris.New("upstream failure")
)

// User-facing messages.
const (
	MsgRecomputeRequired = "Latitude, longitude, and panel specifications are required"
	MsgInsightRequired   = "Latitude and longitude are required"
	MsgNotConfigured     = "Google Solar API key not configured"
	MsgNotFound          = "No solar potential data available for this location"
	MsgFetchFailed       = "Failed to fetch building insights"
	MsgCalculateFailed   = "Failed to calculate custom panel configurations"
	MsgPanelTooSmall     = "Panel dimensions are too small for this roof"
)

// Error is a failed request tagged with its kind and a message safe to show
// callers.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func invalid(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

func fail(kind error, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}
