package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches another DomainError by code and message so sentinel values
// keep working with errors.Is after being wrapped with a cause.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodePrecondition      = "PRECONDITION_FAILED"
	ErrCodeNetwork           = "NETWORK_ERROR"
	ErrCodeAPIRejected       = "API_REJECTED"
	ErrCodeMalformedResponse = "MALFORMED_RESPONSE"
	ErrCodeEmptyResult       = "EMPTY_RESULT"
	ErrCodeWriteFailed       = "WRITE_FAILED"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeInternalError     = "INTERNAL_ERROR"
)

// Precondition errors
var (
	ErrNoActiveDocument = NewDomainError(ErrCodePrecondition, "no active document")
	ErrMissingAPIKey    = NewDomainError(ErrCodePrecondition, "OpenAI API key is not configured")
	ErrAlreadyRunning   = NewDomainError(ErrCodePrecondition, "alias generation is already running for this document")
)

// Completion errors
var (
	ErrNetwork           = NewDomainError(ErrCodeNetwork, "could not reach the completion endpoint")
	ErrMalformedResponse = NewDomainError(ErrCodeMalformedResponse, "completion response is missing expected fields")
)

// Pipeline errors
var (
	ErrNoAliases        = NewDomainError(ErrCodeEmptyResult, "could not obtain aliases")
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrInvalidHandle    = NewDomainError(ErrCodeValidation, "invalid document handle")
	ErrInvalidMode      = NewDomainError(ErrCodeValidation, "invalid mode")
	ErrRunNotFound      = NewDomainError(ErrCodeNotFound, "alias run not found")
)

// NewAPIRejectedError wraps a non-success reply from the completion endpoint.
// The provider message is kept verbatim so it can be shown to the user.
func NewAPIRejectedError(message string, cause error) *DomainError {
	if message == "" {
		message = "completion request was rejected"
	}
	return NewDomainErrorWithCause(ErrCodeAPIRejected, message, cause)
}

// NewWriteFailedError wraps a failed metadata write-back.
func NewWriteFailedError(cause error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeWriteFailed, "failed to update document aliases", cause)
}

// CodeOf returns the DomainError code in err's chain, or ErrCodeInternalError.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ErrCodeInternalError
}

// UserMessage renders err as the text shown in the notification channel.
func UserMessage(err error) string {
	var de *DomainError
	if !errors.As(err, &de) {
		return "Alias generation failed. See the log for details."
	}

	switch de.Code {
	case ErrCodeNetwork:
		return "Could not connect to the completion service. Check your network connection."
	case ErrCodeAPIRejected:
		return "Completion service error: " + de.Message
	case ErrCodeMalformedResponse:
		return "The completion service returned an unexpected response. See the log for details."
	case ErrCodeEmptyResult:
		return "Could not obtain aliases for this document."
	case ErrCodeWriteFailed:
		return "Failed to update the document aliases."
	default:
		msg := de.Message
		if msg == "" {
			return "Alias generation failed."
		}
		return capitalize(msg) + "."
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
