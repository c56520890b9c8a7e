package domain

import (
	"errors"
	"fmt"
)

// Kind classifies a failure at a component boundary.
type Kind string

const (
	KindPermissionDenied         Kind = "permission_denied"
	KindDeviceUnavailable        Kind = "device_unavailable"
	KindUnauthenticated          Kind = "unauthenticated"
	KindPayloadTooLarge          Kind = "payload_too_large"
	KindInvalidMediaType         Kind = "invalid_media_type"
	KindStorageUnavailable       Kind = "storage_unavailable"
	KindUpstreamProcessingFailed Kind = "upstream_processing_failed"
	KindValidation               Kind = "validation_error"
	KindPersistenceFailed        Kind = "persistence_failed"
)

// Sentinels for errors.Is checks. Matching is by Kind only.
var (
	ErrPermissionDenied         = &Error{Kind: KindPermissionDenied}
	ErrDeviceUnavailable        = &Error{Kind: KindDeviceUnavailable}
	ErrUnauthenticated          = &Error{Kind: KindUnauthenticated}
	ErrPayloadTooLarge          = &Error{Kind: KindPayloadTooLarge}
	ErrInvalidMediaType         = &Error{Kind: KindInvalidMediaType}
	ErrStorageUnavailable       = &Error{Kind: KindStorageUnavailable}
	ErrUpstreamProcessingFailed = &Error{Kind: KindUpstreamProcessingFailed}
	ErrValidation               = &Error{Kind: KindValidation}
	ErrPersistenceFailed        = &Error{Kind: KindPersistenceFailed}
)

// genericMessage is shown when a failure carries no localized text.
const genericMessage = "Erro interno do servidor"

// Error is a classified failure carrying the localized message shown to the
// user. Err keeps the underlying cause for logs.
type Error struct {
	Kind    Kind
	Message string
	// Status is the upstream HTTP status, zero when unknown.
	Status int
	Err    error
}

// NewError builds a classified error.
func NewError(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Errorf builds a classified error with a formatted message and no cause.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// UserMessage returns the text to show for err. Unclassified errors never
// leak their internals.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return genericMessage
}
