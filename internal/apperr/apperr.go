// Package apperr defines the error kinds surfaced by wizard operations.
// Extraction misses are not errors and have no type here.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed or missing structural request field.
type ValidationError struct {
	Op      string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: invalid %s: %s", e.Op, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

// Validation builds a ValidationError.
func Validation(op, field, msg string) error {
	return &ValidationError{Op: op, Field: field, Message: msg}
}

// NotFoundError reports an unknown session or document.
type NotFoundError struct {
	Op       string
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s not found: %s", e.Op, e.Resource, e.ID)
}

// NotFound builds a NotFoundError.
func NotFound(op, resource, id string) error {
	return &NotFoundError{Op: op, Resource: resource, ID: id}
}

// UpstreamError reports a failure in an external collaborator such as the
// OCR service, the LLM, object storage or the notification topic.
type UpstreamError struct {
	Op        string
	Service   string
	SessionID string
	Err       error
}

func (e *UpstreamError) Error() string {
	if e.SessionID != "" {
		return fmt.Sprintf("%s: %s failed for session %s: %v", e.Op, e.Service, e.SessionID, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Op, e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Upstream builds an UpstreamError.
func Upstream(op, service, sessionID string, err error) error {
	return &UpstreamError{Op: op, Service: service, SessionID: sessionID, Err: err}
}

// UnauthorizedError reports missing or rejected credentials.
type UnauthorizedError struct {
	Op     string
	Reason string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("%s: unauthorized: %s", e.Op, e.Reason)
}

// Unauthorized builds an UnauthorizedError.
func Unauthorized(op, reason string) error {
	return &UnauthorizedError{Op: op, Reason: reason}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsUpstream reports whether err wraps an UpstreamError.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// IsUnauthorized reports whether err wraps an UnauthorizedError.
func IsUnauthorized(err error) bool {
	var ue *UnauthorizedError
	return errors.As(err, &ue)
}
