package authsdk

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		body     string
		wantCode string
		wantDesc string
	}{
		{"message field", 401, `{"error":"unauthorized","message":"token expired"}`, "unauthorized", "token expired"},
		{"error_description field", 400, `{"error":"invalid_request","error_description":"missing code"}`, "invalid_request", "missing code"},
		{"plain text", 502, "upstream down", "", "upstream down"},
		{"empty body", 503, "", "", http.StatusText(503)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := parseErrorResponse(&http.Response{StatusCode: tt.status}, []byte(tt.body))

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			require.Equal(t, tt.status, apiErr.StatusCode)
			require.Equal(t, tt.wantCode, apiErr.Code)
			require.Equal(t, tt.wantDesc, apiErr.Description)
		})
	}

	require.NoError(t, parseErrorResponse(&http.Response{StatusCode: 204}, nil))
}

func TestAPIError_Classification(t *testing.T) {
	t.Parallel()

	unauth := &APIError{StatusCode: 401}
	require.ErrorIs(t, unauth, ErrUnauthorized)
	require.NotErrorIs(t, unauth, ErrServer)

	server := &APIError{StatusCode: 500}
	require.ErrorIs(t, server, ErrServer)
	require.False(t, IsUnauthorized(server))

	decode := &DecodeError{Payload: "UserInfo", Err: errMissingUserID}
	require.ErrorIs(t, decode, ErrServer)
	require.ErrorIs(t, decode, errMissingUserID)
}

func TestUserMessage(t *testing.T) {
	t.Parallel()

	require.Empty(t, UserMessage(nil))
	require.Equal(t, "Your username or password is incorrect",
		UserMessage(fmt.Errorf("%w: %w", ErrInvalidCredentials, &APIError{StatusCode: 401})))
	require.Equal(t, "500 Internal Server Error", UserMessage(&APIError{StatusCode: 500}))
	require.Equal(t, "500 Internal Server Error", UserMessage(errors.New("boom")))
}
