package authsdk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// fetchOptions are the per-call switches of an authorized request.
type fetchOptions struct {
	skipTokenRefresh bool
}

// FetchOption customises a single authorized request.
type FetchOption func(*fetchOptions)

// SkipTokenRefresh returns a 401 to the caller as-is instead of refreshing
// and retrying.
func SkipTokenRefresh() FetchOption {
	return func(o *fetchOptions) { o.skipTokenRefresh = true }
}

// Fetch builds and sends an authorized request. pathOrURL is resolved
// against the backend base URL unless it is absolute. header may be nil.
func (s *Session) Fetch(
	ctx context.Context,
	method, pathOrURL string,
	body []byte,
	header http.Header,
	opts ...FetchOption,
) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.client.url(pathOrURL), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	return s.Do(req, opts...)
}

// Do sends req with the current access token attached. If the response is a
// 401 and SkipTokenRefresh was not given, the session refreshes once and
// re-issues the identical request, returning the second response whatever
// its status. When the refresh fails the session is signed out and the
// original 401 response is returned unmodified. A caller whose context ends
// while waiting on the refresh gets an ErrNetwork error and leaves the
// session alone. Do never retries more than once. The caller's headers are left untouched; its body is consumed.
func (s *Session) Do(req *http.Request, opts ...FetchOption) (*http.Response, error) {
	var o fetchOptions
	for _, opt := range opts {
		opt(&o)
	}

	getBody, err := rewindableBody(req)
	if err != nil {
		return nil, err
	}

	token := s.store.AccessToken()
	resp, err := s.send(req, getBody, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || o.skipTokenRefresh {
		return resp, nil
	}

	ctx := req.Context()
	s.logger.Debug("authorized request got 401, refreshing", "path", req.URL.Path)

	newToken, err := s.refreshAfter(ctx, token)
	switch {
	case err == nil:
	case ctx.Err() != nil:
		// Only this caller gave up. The shared refresh keeps running for
		// everyone else and must not be undone by a sign-out.
		_ = resp.Body.Close()
		return nil, err
	case errors.Is(err, ErrStale):
		// A stale refresh belongs to a session that no longer exists; the
		// current one must not be signed out because of it.
		return resp, nil
	default:
		s.logger.Info("refresh after 401 failed, signing out", "path", req.URL.Path, "err", err)
		s.SignOut(ctx)
		return resp, nil
	}

	// The first response is being replaced; release its connection.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
	_ = resp.Body.Close()

	s.logger.Debug("retrying request with new access token", "path", req.URL.Path)
	retry, err := s.send(req, getBody, newToken)
	if err != nil {
		return nil, err
	}
	return retry, nil
}

// send clones req, attaches credentials and transmits it.
func (s *Session) send(req *http.Request, getBody func() (io.ReadCloser, error), token string) (*http.Response, error) {
	out := req.Clone(req.Context())
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, fmt.Errorf("failed to rewind request body: %w", err)
		}
		out.Body = body
		out.GetBody = getBody
	}

	if token != "" {
		out.Header.Set("Authorization", "Bearer "+token)
	} else {
		out.Header.Del("Authorization")
	}
	s.client.applyCommonHeaders(out.Header)

	resp, err := s.client.HTTPClient.Do(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, req.Method, req.URL.Path, err)
	}
	return resp, nil
}

// rewindableBody returns a function producing fresh copies of req's body so
// the retry is byte-identical. Bodies without GetBody are buffered once.
func rewindableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		_ = req.Body.Close()
		return req.GetBody, nil
	}

	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to buffer request body: %w", err)
	}

	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

// ============================================================================
// RoundTripper
// ============================================================================

// Transport returns an http.RoundTripper applying the same authorization
// and single refresh-and-retry behaviour as Do. The base transport is the
// session client's own; requests sent through it carry the session token.
func (s *Session) Transport() http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		return s.Do(req)
	})
}

// HTTPClient returns a client whose requests are authorized by the session.
func (s *Session) HTTPClient() *http.Client {
	return &http.Client{Transport: s.Transport()}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }
