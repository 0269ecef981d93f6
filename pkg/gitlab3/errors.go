package gitlab3

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the category of a GitLab API error.
type ErrorType string

const (
	ErrorTypeBadRequest   ErrorType = "bad_request"
	ErrorTypeAuth         ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeNotSupported ErrorType = "not_supported"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeServer       ErrorType = "server"
	ErrorTypeConnection   ErrorType = "connection"
	ErrorTypeLocal        ErrorType = "local"
)

// Error is returned for every failed API call. Errors returned by the
// client match the sentinel values below with errors.Is by Type.
type Error struct {
	Type       ErrorType
	Message    string
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	Err        error
}

// Error returns the error message.
func (e *Error) Error() string {
	msg := e.Message
	if e.Method != "" {
		msg = fmt.Sprintf("%s (%s %s", msg, e.Method, e.URL)
		if e.StatusCode != 0 {
			msg += fmt.Sprintf(": status %d", e.StatusCode)
		}
		msg += ")"
		if len(e.Body) > 0 {
			msg += ": " + string(e.Body)
		}
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same type. Sentinels carry
// no status code, so a concrete error matches the sentinel for its category.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.StatusCode != 0 || t.Method != "" {
		return e == t
	}
	if t.Type == ErrorTypeLocal {
		return e.Message == t.Message && e.Type == t.Type
	}
	return e.Type == t.Type
}

// Sentinel errors for the HTTP status taxonomy.
var (
	// ErrMissingAttribute is returned for 400 responses and for missing
	// required create parameters.
	ErrMissingAttribute = &Error{Type: ErrorTypeBadRequest, Message: "missing required attribute"}

	// ErrAuthentication is returned for 401 responses.
	ErrAuthentication = &Error{Type: ErrorTypeAuth, Message: "authentication failed"}

	// ErrAuthorization is returned for 403 responses.
	ErrAuthorization = &Error{Type: ErrorTypeForbidden, Message: "request forbidden"}

	// ErrNotFound is returned for 404 responses.
	ErrNotFound = &Error{Type: ErrorTypeNotFound, Message: "resource not found"}

	// ErrNotSupported is returned for 405 responses and for actions a
	// resource does not support.
	ErrNotSupported = &Error{Type: ErrorTypeNotSupported, Message: "request not supported"}

	// ErrConflict is returned for 409 responses.
	ErrConflict = &Error{Type: ErrorTypeConflict, Message: "resource conflict"}

	// ErrValidation is returned for 422 responses.
	ErrValidation = &Error{Type: ErrorTypeValidation, Message: "validation failed"}

	// ErrServer is returned for 5xx and unexpected responses, including
	// bodies that cannot be decoded.
	ErrServer = &Error{Type: ErrorTypeServer, Message: "server error"}

	// ErrConnection is returned when GitLab could not be reached.
	ErrConnection = &Error{Type: ErrorTypeConnection, Message: "connection failed"}
)

// Local errors that never involve a request.
var (
	// ErrUnknownAttribute is returned by Entity.Attr for absent attributes.
	ErrUnknownAttribute = &Error{Type: ErrorTypeLocal, Message: "unknown attribute"}

	// ErrDeleted is returned when mutating an entity after Delete.
	ErrDeleted = &Error{Type: ErrorTypeLocal, Message: "entity has been deleted"}

	// ErrNoCriteria is returned by fetching find helpers called without criteria.
	ErrNoCriteria = &Error{Type: ErrorTypeLocal, Message: "find requires at least one criterion"}
)

// errorTypeForStatus maps an HTTP status code to an error category.
func errorTypeForStatus(status int) (ErrorType, string) {
	switch status {
	case http.StatusBadRequest:
		return ErrorTypeBadRequest, ErrMissingAttribute.Message
	case http.StatusUnauthorized:
		return ErrorTypeAuth, ErrAuthentication.Message
	case http.StatusForbidden:
		return ErrorTypeForbidden, ErrAuthorization.Message
	case http.StatusNotFound:
		return ErrorTypeNotFound, ErrNotFound.Message
	case http.StatusMethodNotAllowed:
		return ErrorTypeNotSupported, ErrNotSupported.Message
	case http.StatusConflict:
		return ErrorTypeConflict, ErrConflict.Message
	case http.StatusUnprocessableEntity:
		return ErrorTypeValidation, ErrValidation.Message
	default:
		return ErrorTypeServer, ErrServer.Message
	}
}

// newStatusError builds the error for a non-2xx response.
func newStatusError(method, url string, status int, body []byte) *Error {
	errType, msg := errorTypeForStatus(status)
	return &Error{
		Type:       errType,
		Message:    msg,
		Method:     method,
		URL:        url,
		StatusCode: status,
		Body:       body,
	}
}

// localError wraps a sentinel with call-specific detail.
func localError(sentinel *Error, format string, args ...any) *Error {
	return &Error{
		Type:    sentinel.Type,
		Message: sentinel.Message,
		Err:     fmt.Errorf(format, args...),
	}
}

// IsNotFound reports whether err is a 404 from GitLab.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
