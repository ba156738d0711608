/*
Package errs provides custom error types and application-level error code constants.

This file defines CustomError, which carries a business code, a user-facing message and
an HTTP status, and is used both for HTTP responses and for websocket error events.
*/
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"chessrooms/internal/pkg/logx"
)

// CustomError is the error structure used throughout the application.
type CustomError struct {
	// Code is the business error code (see constants definition).
	Code int

	// Message is the user-facing error description.
	Message string

	// Status is the HTTP status code used when the error is returned over HTTP.
	Status int
}

// Error implements the error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// Is reports whether target is a CustomError carrying the same code.
func (e *CustomError) Is(target error) bool {
	var other *CustomError
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// NewError builds a *CustomError from a predefined code.
// details are printf arguments for templates containing a verb; for ErrUnknown the
// first detail may be the underlying error, which is logged. Unknown codes map to ErrUnknown.
func NewError(code int, details ...any) *CustomError {
	templateErr, ok := errorMap[code]

	if !ok {
		logx.Error(
			fmt.Errorf("attempted to create an error with an unknown code in errorMap"),
			"Unknown error code requested",
			"requested_code", code,
		)

		unknownErr := errorMap[ErrUnknown]
		return &CustomError{
			Code:    unknownErr.Code,
			Message: unknownErr.Message,
			Status:  unknownErr.Status,
		}
	}

	customErr := templateErr

	if customErr.Status == 0 {
		customErr.Status = http.StatusOK
	}

	if code == ErrUnknown && len(details) > 0 {
		if originalErr, ok := details[0].(error); ok {
			logx.Error(originalErr, "Handling ErrUnknown with underlying error")
		}
	} else if len(details) > 0 {
		if strings.Contains(customErr.Message, "%") {
			customErr.Message = fmt.Sprintf(customErr.Message, details...)
		} else {
			logx.Warn("Details provided for error, but message template has no formatting placeholders. Details ignored.")
		}
	}

	return &customErr
}
