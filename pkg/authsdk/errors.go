package authsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ============================================================================
// Sentinel Errors
// ============================================================================

var (
	// ErrUnauthorized marks any 401 response. Wrapped by APIError.Unwrap.
	ErrUnauthorized = errors.New("authsdk: unauthorized")

	// ErrInvalidCredentials is returned by SignIn when the backend rejects the
	// email/password pair with 401.
	ErrInvalidCredentials = errors.New("authsdk: invalid credentials")

	// ErrServer covers every non-2xx response that is not a 401, as well as
	// malformed success bodies. It is never retried.
	ErrServer = errors.New("authsdk: server error")

	// ErrNetwork is returned when no response was received at all (dial
	// failure, timeout, cancelled context). Operations treat it like ErrServer.
	ErrNetwork = errors.New("authsdk: network failure")

	// ErrNoTwoFactorToken is a local precondition failure: no challenge is pending.
	ErrNoTwoFactorToken = errors.New("authsdk: no pending two-factor challenge")

	// ErrNoRefreshToken is a local precondition failure: nothing to refresh with.
	ErrNoRefreshToken = errors.New("authsdk: no refresh token")

	// ErrInvalidCode is a local precondition failure: the 2FA code is not six digits.
	ErrInvalidCode = errors.New("authsdk: two-factor code must be 6 digits")

	// ErrStale is returned when a network exchange finished after the session
	// had been signed out (or otherwise reset) and its result was discarded.
	ErrStale = errors.New("authsdk: session changed while request was in flight")
)

// ============================================================================
// APIError - non-2xx backend responses
// ============================================================================

// APIError describes a non-2xx response from the backend.
type APIError struct {
	// StatusCode is the HTTP status returned by the backend.
	StatusCode int `json:"-"`

	// Code is a machine readable error code if the backend sent one.
	Code string `json:"error"`

	// Description is a human-readable description of the error.
	Description string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Description)
	}
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Code, e.Description)
}

// Unwrap classifies the error so callers can use errors.Is(err, ErrUnauthorized)
// or errors.Is(err, ErrServer).
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return ErrServer
}

// IsUnauthorized reports whether err carries a 401 from the backend.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// ============================================================================
// DecodeError - responses failing the schema check at the HTTP boundary
// ============================================================================

// DecodeError is returned when a success response cannot be decoded or does
// not satisfy the payload's schema. Nothing from such a response reaches the
// TokenStore.
type DecodeError struct {
	// Payload names the expected payload type, e.g. "TokenPairResponse".
	Payload string

	// Err is the underlying JSON or validation error.
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("authsdk: decode %s: %v", e.Payload, e.Err)
}

// Unwrap returns ErrServer first so malformed bodies classify as server errors,
// and the underlying cause second.
func (e *DecodeError) Unwrap() []error {
	return []error{ErrServer, e.Err}
}

// ============================================================================
// User facing messages
// ============================================================================

const (
	msgInvalidCredentials = "Your username or password is incorrect"
	msgServerError        = "500 Internal Server Error"
)

// UserMessage maps a SignIn failure onto the message shown to the user. It
// distinguishes bad credentials from everything else and returns the empty
// string for a nil error.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return msgInvalidCredentials
	default:
		return msgServerError
	}
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse converts a non-2xx response body into an *APIError.
// The backend is not consistent about its error shape, so a couple of common
// layouts are tried before falling back to the status text.
func parseErrorResponse(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		desc := firstNonEmpty(errResp.Message, errResp.ErrorDescription)
		if errResp.Error != "" || desc != "" {
			return &APIError{
				StatusCode:  resp.StatusCode,
				Code:        errResp.Error,
				Description: desc,
			}
		}
	}

	desc := strings.TrimSpace(string(body))
	if desc == "" || len(desc) > 256 {
		desc = http.StatusText(resp.StatusCode)
	}

	return &APIError{
		StatusCode:  resp.StatusCode,
		Description: desc,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
