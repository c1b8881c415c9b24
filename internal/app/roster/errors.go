package roster

import (
	"errors"
	"net/http"
)

const (
	CodeValidation       = "VALIDATION_ERROR"
	CodeActivityNotFound = "ACTIVITY_NOT_FOUND"
	CodeAlreadySignedUp  = "ALREADY_SIGNED_UP"
	CodeNotSignedUp      = "NOT_SIGNED_UP"
	CodeActivityFull     = "ACTIVITY_FULL"
)

// Error is an application-layer error that can be mapped to an HTTP response.
//
// Unknown activities and membership conflicts are both client errors and share
// status 400; Code tells them apart.
type Error struct {
	Status  int
	Code    string
	Message string
	Details map[string]any
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Code
}

// IsNotFound reports whether err is an unknown-activity error.
func IsNotFound(err error) bool {
	return hasCode(err, CodeActivityNotFound)
}

// IsConflict reports whether err is a membership conflict
// (duplicate signup, missing registration, or full activity).
func IsConflict(err error) bool {
	return hasCode(err, CodeAlreadySignedUp) || hasCode(err, CodeNotSignedUp) || hasCode(err, CodeActivityFull)
}

func hasCode(err error, code string) bool {
	ae := (*Error)(nil)
	return errors.As(err, &ae) && ae.Code == code
}

func notFound(name string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Code:    CodeActivityNotFound,
		Message: "Activity not found",
		Details: map[string]any{"activity": name},
	}
}

func emailRequired() *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeValidation,
		Message: "email is required",
		Details: map[string]any{"email": "must be non-empty"},
	}
}
