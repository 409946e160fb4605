package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// AuthError indicates rejected credentials or an expired session. The
// session layer responds by clearing credentials; the navigation guard
// redirects to login.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%d): %s", e.Status, e.Message)
}

// ValidationError is a request the backend rejected as malformed. It is
// surfaced to the caller for display and never tears down session or
// workspace state.
type ValidationError struct {
	Status  int
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%d): %s", e.Status, e.Message)
}

// TransientNetworkError wraps a failure that did not reach the backend or
// did not produce a definitive answer. Session state is preserved; the
// operation is retried implicitly by the next navigation or reconnect.
type TransientNetworkError struct {
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// Message extracts the human-readable message from a taxonomy error,
// falling back to the error string.
func Message(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Message
	}
	var netErr *TransientNetworkError
	if errors.As(err, &netErr) {
		return "Network error, please try again"
	}
	return err.Error()
}

// apiDetail is the backend's error body shape.
type apiDetail struct {
	Detail string `json:"detail"`
}

// classify maps a non-2xx response to the error taxonomy.
func classify(status int, body []byte) error {
	msg := http.StatusText(status)
	var d apiDetail
	if json.Unmarshal(body, &d) == nil && d.Detail != "" {
		msg = d.Detail
	}

	switch {
	case status == http.StatusUnauthorized:
		return &AuthError{Status: status, Message: msg}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity || status == http.StatusConflict:
		return &ValidationError{Status: status, Message: msg}
	case status >= 500:
		return &TransientNetworkError{Err: fmt.Errorf("server error (%d): %s", status, msg)}
	default:
		return fmt.Errorf("unexpected status %d: %s", status, msg)
	}
}
