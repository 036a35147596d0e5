package tts

import (
	"errors"
	"fmt"
)

// Kind classifies a failure into the closed taxonomy callers switch on.
type Kind string

const (
	KindAuth         Kind = "AuthenticationFailure"
	KindQuota        Kind = "QuotaExceeded"
	KindInvalidInput Kind = "InvalidInput"
	KindTimeout      Kind = "Timeout"
	KindStorage      Kind = "StorageFailure"
	KindCombine      Kind = "CombinationFailure"
	KindUnknown      Kind = "Unknown"
)

// Error is a classified failure from the synthesis pipeline.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError builds a classified error wrapping cause (which may be nil).
func NewError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// KindOf extracts the failure kind from err, defaulting to Unknown.
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

// MessageOf returns the classified message when present, otherwise the
// plain error text.
func MessageOf(err error) string {
	var te *Error
	if errors.As(err, &te) {
		return te.Msg
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
