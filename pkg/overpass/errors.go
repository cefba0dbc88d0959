package overpass

import (
	"fmt"
	"net/http"
)

// APIError represents an Overpass API failure identified by its HTTP status
// code. The recognized statuses each map to a package-level sentinel so
// callers can test with errors.Is.
type APIError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("overpass: %s (status %d)", e.Message, e.StatusCode)
}

// Is reports whether target is an APIError with the same status code, so
// that errors.Is(err, ErrBadRequest) matches any 400 APIError.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	return ok && t.StatusCode == e.StatusCode
}

// Errors returned by Client.Query for recognized Overpass HTTP statuses.
var (
	// ErrMoved indicates the API endpoint has relocated (302).
	ErrMoved = &APIError{StatusCode: http.StatusFound, Message: "API endpoint moved"}

	// ErrBadRequest indicates a malformed Overpass QL query (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest, Message: "bad request, check query syntax"}

	// ErrTooManyRequests indicates the client-side rate limit was hit (429).
	ErrTooManyRequests = &APIError{StatusCode: http.StatusTooManyRequests, Message: "too many requests"}

	// ErrGatewayTimeout indicates server-side timeout or overload (504).
	ErrGatewayTimeout = &APIError{StatusCode: http.StatusGatewayTimeout, Message: "gateway timeout, server too loaded"}
)

// statusError maps a recognized HTTP status code to its sentinel error.
// Unrecognized statuses return nil: the response is decoded and passed
// through to the caller as-is.
func statusError(code int) *APIError {
	switch code {
	case http.StatusFound:
		return ErrMoved
	case http.StatusBadRequest:
		return ErrBadRequest
	case http.StatusTooManyRequests:
		return ErrTooManyRequests
	case http.StatusGatewayTimeout:
		return ErrGatewayTimeout
	default:
		return nil
	}
}
