// Package errors defines the typed error taxonomy shared by the services
// and mapped to stable machine-readable codes at the API boundary.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Code is a stable machine-readable error code exposed to clients.
type Code string

const (
	CodeValidation           Code = "VALIDATION_ERROR"
	CodeInvalidFormat        Code = "INVALID_FORMAT"
	CodeInappropriateContent Code = "INAPPROPRIATE_CONTENT"
	CodeDuplicateID          Code = "DUPLICATE_MESSAGE_ID"
	CodeNotFound             Code = "NOT_FOUND"
	CodeSearchQueryTooShort  Code = "SEARCH_QUERY_TOO_SHORT"
	CodeDatabase             Code = "DATABASE_ERROR"
)

var (
	ErrDuplicateID = stderrors.New("message_id already exists")
	ErrNotFound    = stderrors.New("message not found")
)

// ProcessingError carries everything the boundary needs to build an error
// response: a stable code, an HTTP-style status, a human message and
// optional structured details. Internal causes stay wrapped and are never
// exposed in Message.
type ProcessingError struct {
	Code    Code
	Status  int
	Message string
	Details map[string]any
	cause   error
}

func (e *ProcessingError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ProcessingError) Unwrap() error { return e.cause }

// AsProcessing extracts a ProcessingError from an error chain.
func AsProcessing(err error) (*ProcessingError, bool) {
	var perr *ProcessingError
	ok := stderrors.As(err, &perr)
	return perr, ok
}

func NewValidation(message string, details map[string]any) *ProcessingError {
	return &ProcessingError{Code: CodeValidation, Status: http.StatusBadRequest, Message: message, Details: details}
}

func NewInvalidFormat(message string, details map[string]any) *ProcessingError {
	return &ProcessingError{Code: CodeInvalidFormat, Status: http.StatusBadRequest, Message: message, Details: details}
}

func NewInappropriateContent(matchedTerms []string) *ProcessingError {
	return &ProcessingError{
		Code:    CodeInappropriateContent,
		Status:  http.StatusBadRequest,
		Message: "message contains inappropriate content",
		Details: map[string]any{"inappropriate_words_found": matchedTerms},
	}
}

func NewDuplicateID(messageID string) *ProcessingError {
	return &ProcessingError{
		Code:    CodeDuplicateID,
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("a message with ID %q already exists", messageID),
		cause:   ErrDuplicateID,
	}
}

func NewNotFound(message string) *ProcessingError {
	return &ProcessingError{Code: CodeNotFound, Status: http.StatusNotFound, Message: message, cause: ErrNotFound}
}

func NewSearchQueryTooShort() *ProcessingError {
	return &ProcessingError{
		Code:    CodeSearchQueryTooShort,
		Status:  http.StatusBadRequest,
		Message: "search query must be at least 3 characters long",
	}
}

func NewDatabase(err error) *ProcessingError {
	return &ProcessingError{
		Code:    CodeDatabase,
		Status:  http.StatusInternalServerError,
		Message: "storage failure",
		cause:   err,
	}
}
