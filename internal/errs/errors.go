// Package errs describes the failures the resolvers, the ledger and the
// upload store report to the conversation layer.
//
// Every error here is translated into user-facing text before it leaves
// the bot; none of them reach the HTTP client as a fault.
package errs

import (
	"errors"
	"fmt"
)

// UpstreamUnavailableError is a network failure, a timeout or a non-2xx
// answer from a third-party API.
type UpstreamUnavailableError struct {
	Url     string
	Code    int
	Message string
	Err     error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed: %v", e.Url, e.Err)
	}
	return fmt.Sprintf("request to %s failed with code %d and message:\n%s", e.Url, e.Code, e.Message)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Err
}

// UpstreamMalformedError means the upstream answered, but not in the
// shape we expect.
type UpstreamMalformedError struct {
	Url string
	Err error
}

func (e *UpstreamMalformedError) Error() string {
	return fmt.Sprintf("unexpected response from %s: %v", e.Url, e.Err)
}

func (e *UpstreamMalformedError) Unwrap() error {
	return e.Err
}

// NotFoundError is a valid upstream call with no matching record.
type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return "not found: " + e.Message
}

// ValidationError is bad user input: a wrong pincode format, a disallowed
// file type, an empty upload.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// StorageError is a failed read or write of a local store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// IsUpstream reports whether err is caused by an unavailable or malformed upstream.
func IsUpstream(err error) bool {
	var unavailable *UpstreamUnavailableError
	var malformed *UpstreamMalformedError
	return errors.As(err, &unavailable) || errors.As(err, &malformed)
}

// IsNotFound reports whether err is a NotFoundError and returns its message.
func IsNotFound(err error) (string, bool) {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Message, true
	}
	return "", false
}

// IsValidation reports whether err is caused by bad user input.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
