package errorutil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes shared by the composer, the API client and the proxy.
const (
	CodeValidationFailed  = "VALIDATION_FAILED"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInternal          = "INTERNAL_ERROR"
	CodePermissionDenied  = "PERMISSION_DENIED"
	CodeEmptyMessage      = "EMPTY_MESSAGE"
	CodeSendFailed        = "SEND_FAILED"
	CodeUploadFailed      = "UPLOAD_FAILED"
	CodeMalformedResponse = "MALFORMED_RESPONSE"
	CodeSendInProgress    = "SEND_IN_PROGRESS"
	CodeRecordingFailed   = "RECORDING_FAILED"
	CodeBadGateway        = "BAD_GATEWAY"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by code, so errors.Is(err, ErrEmptyMessage) works.
func (e *DomainError) Is(target error) bool {
	var other *DomainError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

// Sentinels usable with errors.Is.
var (
	ErrEmptyMessage     = NewDomainError(CodeEmptyMessage, "message is empty", http.StatusBadRequest, nil)
	ErrSendInProgress   = NewDomainError(CodeSendInProgress, "a reply is already being sent", http.StatusConflict, nil)
	ErrPermissionDenied = NewDomainError(CodePermissionDenied, "microphone access denied", http.StatusForbidden, nil)
)

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewUnauthorized(message string) error {
	return NewDomainError(CodeUnauthorized, message, http.StatusUnauthorized, nil)
}

// NewPermissionDenied reports a refused or unavailable microphone.
func NewPermissionDenied(message string, err error) error {
	return &DomainError{
		Code:       CodePermissionDenied,
		Message:    message,
		HTTPStatus: http.StatusForbidden,
		Err:        err,
	}
}

// NewRecordingFailed reports a capture that broke before it was stopped.
func NewRecordingFailed(err error) error {
	return &DomainError{
		Code:       CodeRecordingFailed,
		Message:    "recording failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// NewSendFailed carries the server-provided error code as the user-facing message.
func NewSendFailed(code string, serverCode string, status int) error {
	return &DomainError{
		Code:       code,
		Message:    serverCode,
		HTTPStatus: status,
		Details:    map[string]any{"server_code": serverCode},
	}
}

// NewMalformedResponse reports a reply body that could not be decoded.
func NewMalformedResponse(fallback string, status int, err error) error {
	return &DomainError{
		Code:       CodeMalformedResponse,
		Message:    fallback,
		HTTPStatus: status,
		Err:        err,
	}
}

func NewBadGateway(err error) error {
	return &DomainError{
		Code:       CodeBadGateway,
		Message:    "backend unavailable",
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &DomainError{
			Code:       CodeBadGateway,
			Message:    "request timed out",
			HTTPStatus: http.StatusGatewayTimeout,
			Err:        err,
		}
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// WireCode renders a code the way the backend spells its error field.
func WireCode(code string) string {
	return strings.ToLower(code)
}

// UserMessage returns the text to show to an operator for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Message
	}
	return err.Error()
}
