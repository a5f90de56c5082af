package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the application reports.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrUnauthorized = errors.New("unauthorized")
	ErrTransport    = errors.New("transport failure")
	ErrDecode       = errors.New("malformed response")
	ErrApplication  = errors.New("application error")
)

// Error carries a user-facing message next to the wrapped cause.
type Error struct {
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

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new error with a message
func New(message string) error {
	return &Error{
		Message: message,
	}
}

// Wrap wraps an error with additional message
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Message: message,
		Err:     err,
	}
}

// Transport marks a connectivity or timeout failure. Always retryable.
func Transport(err error) error {
	return &Error{
		Message: "could not reach the story service",
		Err:     errors.Join(err, ErrTransport),
	}
}

// Decode marks a response whose shape could not be parsed.
func Decode(err error) error {
	return &Error{
		Message: "unexpected response from the story service",
		Err:     errors.Join(err, ErrDecode),
	}
}

// Unauthorized marks a missing, invalid or expired session.
func Unauthorized(message string) error {
	return &Error{
		Message: message,
		Err:     ErrUnauthorized,
	}
}

// Application carries the API-level error message verbatim.
func Application(message string) error {
	return &Error{
		Message: message,
		Err:     ErrApplication,
	}
}

// Validation marks client-side input rejection; no network call was made.
func Validation(message string) error {
	return &Error{
		Message: message,
		Err:     ErrInvalidInput,
	}
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// GetMessage returns the user-facing message of an error.
func GetMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

func IsDecode(err error) bool {
	return errors.Is(err, ErrDecode)
}

func IsApplication(err error) bool {
	return errors.Is(err, ErrApplication)
}

func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
