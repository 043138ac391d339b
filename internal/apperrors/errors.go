package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a failure by the pipeline stage that produced it.
type Code string

const (
	CodeConfiguration    Code = "configuration_error"
	CodeConnection       Code = "connection_error"
	CodeModelUnavailable Code = "model_unavailable"
	CodeQueryExecution   Code = "query_execution_error"
	CodeGeneration       Code = "generation_error"
)

// Error carries a code alongside the message and wrapped cause. All errors
// propagate to the caller and terminate the in-progress answer stream; there
// is no retry or recovery layer anywhere below the caller.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the outermost *Error in err's chain, or the
// empty code when the chain carries none.
func CodeOf(err error) Code {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func Is(err error, code Code) bool {
	return CodeOf(err) == code
}

// HTTPStatus maps a pipeline error onto a response status for the API layer.
func HTTPStatus(err error) int {
	return StatusForCode(CodeOf(err))
}

func StatusForCode(code Code) int {
	switch code {
	case CodeConfiguration:
		return http.StatusInternalServerError
	case CodeConnection:
		return http.StatusBadGateway
	case CodeModelUnavailable:
		return http.StatusServiceUnavailable
	case CodeQueryExecution:
		return http.StatusBadGateway
	case CodeGeneration:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
