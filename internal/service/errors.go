package service

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure so transports can map it to a status code.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindConflict           Kind = "conflict"
	KindValidation         Kind = "validation"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindServiceUnavailable Kind = "service_unavailable"
	KindInternal           Kind = "internal"
)

// Error is the typed result returned by every service operation that fails.
// Code distinguishes errors of the same kind (e.g. campaign_full vs already_booked).
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches on Kind and Code so wrapped copies of a sentinel compare equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

var (
	ErrCampaignNotFound = &Error{Kind: KindNotFound, Code: "campaign_not_found", Message: "campaign not found"}
	ErrBookingNotFound  = &Error{Kind: KindNotFound, Code: "booking_not_found", Message: "booking not found"}
	ErrUserNotFound     = &Error{Kind: KindNotFound, Code: "user_not_found", Message: "user not found"}
	ErrCampaignFull     = &Error{Kind: KindConflict, Code: "campaign_full", Message: "campaign is fully booked"}
	ErrAlreadyBooked    = &Error{Kind: KindConflict, Code: "already_booked", Message: "user already holds a confirmed booking for this campaign"}
	ErrEmailTaken       = &Error{Kind: KindConflict, Code: "email_taken", Message: "an account with this email already exists"}
)

// Validation wraps err as a Validation-kind failure.
func Validation(err error) *Error {
	return &Error{Kind: KindValidation, Code: "invalid_input", Message: "invalid input", Err: err}
}

// Validationf builds a Validation-kind failure from a message.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: "invalid_input", Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a failure of an external collaborator.
func Unavailable(err error) *Error {
	return &Error{Kind: KindServiceUnavailable, Code: "service_unavailable", Message: "service unavailable", Err: err}
}

// Internal wraps an unexpected storage or programming fault.
func Internal(op string, err error) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: op, Err: err}
}

// KindOf returns the kind of err, or KindInternal for untyped errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
