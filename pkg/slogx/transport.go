package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/modconsole/pkg/idx"
)

// Transport is the client-side counterpart of HTTPMiddleware: it tags each
// outbound request with an X-Request-ID and logs the exchange at debug level.
// Headers are never logged since they carry bearer tokens.
type Transport struct {
	base   http.RoundTripper
	logger *slog.Logger
}

// NewTransport wraps base. A nil base uses http.DefaultTransport.
func NewTransport(base http.RoundTripper, logger *slog.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Transport{base: base, logger: logger}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	reqID := req.Header.Get(RequestIDHeader)
	if reqID == "" {
		reqID = idx.New().String()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, reqID)
	}

	logger := FromContextOr(req.Context(), t.logger).With(
		"req_id", reqID,
		"method", req.Method,
		"host", req.URL.Host,
		"path", req.URL.Path,
	)

	resp, err := t.base.RoundTrip(req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		logger.Debug("http_client_request", "duration_ms", duration, "err", err)
		return nil, err
	}

	logger.Debug("http_client_request", "status", resp.StatusCode, "duration_ms", duration)
	return resp, nil
}
