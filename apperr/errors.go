// Package apperr defines the error taxonomy surfaced by the dashboard
// controller. Every network-facing operation converts failures into one of
// these kinds at its own boundary; raw transport errors never reach the
// rendering layer. Each kind maps to a dictionary key so the HTTP surface
// can show a localized message.
package apperr

import (
	"errors"
	"fmt"
)

// ErrNoAnalysis is returned by the export orchestrator when no successful
// analysis result is cached.
var ErrNoAnalysis = errors.New("no analysis result available")

// ErrBusy is returned when an analyze request arrives while one is already
// in flight.
var ErrBusy = errors.New("analysis already in progress")

// ValidationError reports bad input caught before any I/O. Key selects the
// user-facing message; the URL and article inputs have distinct ones.
type ValidationError struct {
	Msg string
	Key string
}

func (e *ValidationError) Error() string { return e.Msg }

// LocaleKey returns the dictionary key for the user-facing message.
func (e *ValidationError) LocaleKey() string {
	if e.Key != "" {
		return e.Key
	}
	return "invalidInput"
}

// TimeoutError reports an analysis request that exceeded its deadline.
type TimeoutError struct {
	Op string
}

func (e *TimeoutError) Error() string { return e.Op + ": request timed out" }

func (e *TimeoutError) LocaleKey() string { return "analysisTimedOut" }

// NetworkError reports a transport-level failure.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network failure: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) LocaleKey() string { return "networkError" }

// HTTPError reports a non-2xx response. Message holds the server-supplied
// error text when the body carried parseable JSON, otherwise a truncated
// copy of the raw body.
type HTTPError struct {
	Status  int
	Message string
	// RawBody reports that Message is a truncated raw body rather than a
	// server-localized error string.
	RawBody bool
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.Status, e.Message)
}

func (e *HTTPError) LocaleKey() string {
	if e.RawBody {
		return "serverReturnedNonJson"
	}
	return "serverError"
}

// Unauthorized reports whether the failure should make the session gate
// re-prompt for authentication.
func (e *HTTPError) Unauthorized() bool { return e.Status == 401 || e.Status == 403 }

// AuthReason classifies an authentication failure.
type AuthReason string

const (
	MissingCredentials AuthReason = "missing_credentials"
	InvalidCredentials AuthReason = "invalid_credentials"
	ServerRejected     AuthReason = "server_rejected"
	PopupClosedByUser  AuthReason = "popup_closed_by_user"
	PopupCancelled     AuthReason = "popup_cancelled"
	AccountConflict    AuthReason = "account_conflict"
	AuthNetworkFailure AuthReason = "network_failure"
	AuthFailed         AuthReason = "auth_failed"
)

// AuthError reports an authentication failure with a classified reason.
type AuthError struct {
	Reason AuthReason
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed (%s): %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed (%s)", e.Reason)
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) LocaleKey() string {
	switch e.Reason {
	case MissingCredentials:
		return "authMissingCredentials"
	case InvalidCredentials, ServerRejected:
		return "authInvalidCredentials"
	case PopupClosedByUser:
		return "authPopupClosed"
	case PopupCancelled:
		return "authPopupCancelled"
	case AccountConflict:
		return "authAccountConflict"
	case AuthNetworkFailure:
		return "networkError"
	default:
		return "authFailed"
	}
}

// Localizable is implemented by every error kind that carries a dictionary
// key for its user-facing message.
type Localizable interface {
	LocaleKey() string
}

// LocaleKey extracts the dictionary key from err, walking the wrap chain.
// The sentinel errors and unclassified errors get generic keys.
func LocaleKey(err error) string {
	if errors.Is(err, ErrNoAnalysis) {
		return "analyzeFirst"
	}
	if errors.Is(err, ErrBusy) {
		return "analysisInProgress"
	}
	var loc Localizable
	if errors.As(err, &loc) {
		return loc.LocaleKey()
	}
	return "analysisFailed"
}

// IsUnauthorized reports whether err is an HTTP 401/403 anywhere in its
// wrap chain.
func IsUnauthorized(err error) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.Unauthorized()
}
