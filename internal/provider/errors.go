package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorClass partitions everything an adapter can throw. Handlers decide
// between retrying and terminating a job on the class alone, never on the
// raw error text.
type ErrorClass string

const (
	ClassValidation    ErrorClass = "validation"
	ClassTransient     ErrorClass = "provider_transient"
	ClassPermanent     ErrorClass = "provider_permanent"
	ClassTimeout       ErrorClass = "timeout"
	ClassStorageUpload ErrorClass = "storage_upload"
	ClassWebhook       ErrorClass = "webhook_delivery"
)

type Error struct {
	Class ErrorClass
	Op    string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Class, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether this error class is worth another attempt.
// Validation and permanent provider rejections fail fast; everything else
// goes back through the queue's backoff policy.
func (e *Error) Retryable() bool {
	switch e.Class {
	case ClassValidation, ClassPermanent:
		return false
	default:
		return true
	}
}

func Validationf(format string, args ...any) *Error {
	return &Error{Class: ClassValidation, Op: "validate", Err: fmt.Errorf(format, args...)}
}

func Transient(op string, err error) *Error {
	return &Error{Class: ClassTransient, Op: op, Err: err}
}

func Permanent(op string, err error) *Error {
	return &Error{Class: ClassPermanent, Op: op, Err: err}
}

func Timeout(op string, err error) *Error {
	return &Error{Class: ClassTimeout, Op: op, Err: err}
}

func StorageUpload(op string, err error) *Error {
	return &Error{Class: ClassStorageUpload, Op: op, Err: err}
}

func WebhookFailure(op string, err error) *Error {
	return &Error{Class: ClassWebhook, Op: op, Err: err}
}

// ClassOf extracts the class from any error. Unclassified errors are
// treated as transient so a flaky dependency does not burn a job.
func ClassOf(err error) ErrorClass {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Class
	}
	return ClassTransient
}

// Retryable reports whether err should go back through the retry policy.
func Retryable(err error) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return true
}

// classifyHTTP maps a provider HTTP response to an error class: 5xx and
// 429 are transient, every other non-2xx is a permanent rejection of the
// input.
func classifyHTTP(op string, status int, body string) *Error {
	err := fmt.Errorf("http %d: %s", status, body)
	if status >= 500 || status == 429 {
		return Transient(op, err)
	}
	return Permanent(op, err)
}

// classifyTransport maps request transport failures. Context expiry keeps
// its timeout identity, everything else is network-level transient.
func classifyTransport(op string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(op, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Timeout(op, err)
	}
	return Transient(op, err)
}
