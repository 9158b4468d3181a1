package authsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
)

// Backend routes consumed by the SDK.
const (
	PathSignIn              = "/api/auth/signin"
	PathSignUp              = "/api/auth/signup"
	PathValidateAccessToken = "/api/auth/validate/access-token"
	PathRefreshToken        = "/api/auth/validate/refresh-token"
	PathTwoFactor           = "/api/auth/validate/2fa"
	PathUserInfo            = "/api/auth/user-info"
)

// maxBodyBytes caps how much of a response body is read into memory.
const maxBodyBytes = 1 << 20

// url builds a complete URL. Absolute URLs are passed through untouched so
// consumers can address other hosts through AuthorizedRequest.
func (c *SDKClient) url(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}
	if !strings.HasPrefix(pathOrURL, "/") {
		pathOrURL = "/" + pathOrURL
	}
	return c.BaseURL + pathOrURL
}

// applyCommonHeaders sets the bypass header.
func (c *SDKClient) applyCommonHeaders(h http.Header) {
	if c.bypassKey != "" {
		h.Set(c.bypassKey, c.bypassValue)
	}
}

// call performs one bounded request against the backend and decodes a 200
// response into target (which may be nil when the body is unused).
// bearer, when non-empty, is sent as the Authorization credential.
func (c *SDKClient) call(
	ctx context.Context,
	method, path, bearer string,
	body any,
	target any,
) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	c.applyCommonHeaders(req.Header)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrNetwork, method, path, err)
	}

	return decodeJSON(resp, target)
}

// decodeJSON reads the response, converts non-2xx statuses into *APIError and
// otherwise decodes and validates the body into target.
func decodeJSON(resp *http.Response, target any) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: failed to read response body: %w", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return parseErrorResponse(resp, bodyBytes)
	}

	if target == nil {
		return nil
	}

	if err := json.Unmarshal(bodyBytes, target); err != nil {
		return &DecodeError{Payload: payloadName(target), Err: err}
	}

	if v, ok := target.(validator); ok {
		if err := v.Validate(); err != nil {
			return &DecodeError{Payload: payloadName(target), Err: err}
		}
	}

	return nil
}

func payloadName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}
