package authsdk

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/modconsole/pkg/slogx"
)

// Default values used by NewSDKClient.
const (
	DefaultRequestTimeout = 10 * time.Second

	// DefaultBypassHeader is sent on every request so the development tunnel in
	// front of the backend skips its browser warning page. It has no security
	// meaning and can be disabled with Config.DisableBypassHeader.
	DefaultBypassHeader      = "ngrok-skip-browser-warning"
	DefaultBypassHeaderValue = "true"
)

// Config configures an SDKClient.
type Config struct {
	// BaseURL of the backend, e.g. "https://api.example.com". Required.
	BaseURL string

	// RequestTimeout bounds every credential-bearing call. A timeout is
	// treated like any other network failure. Default: 10s.
	RequestTimeout time.Duration

	// BypassHeader / BypassHeaderValue override the tunnel bypass header.
	BypassHeader      string
	BypassHeaderValue string

	// DisableBypassHeader drops the bypass header entirely (production).
	DisableBypassHeader bool

	// Transport is the base RoundTripper. Default: http.DefaultTransport
	// wrapped with request logging.
	Transport http.RoundTripper

	// Logger for the client and sessions created from it. Default: slog.Default().
	Logger *slog.Logger
}

// SDKClient performs the unauthenticated plumbing shared by every Session:
// URL building, the bypass header, timeouts, and response decoding.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	requestTimeout time.Duration
	bypassKey      string
	bypassValue    string
	logger         *slog.Logger
}

// NewSDKClient creates a client from cfg, filling in defaults.
func NewSDKClient(cfg Config) *SDKClient {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}

	c := &SDKClient{
		BaseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		HTTPClient: &http.Client{
			Transport: slogx.NewTransport(base, logger),
		},
		requestTimeout: timeout,
		logger:         logger,
	}

	if !cfg.DisableBypassHeader {
		c.bypassKey = cfg.BypassHeader
		c.bypassValue = cfg.BypassHeaderValue
		if c.bypassKey == "" {
			c.bypassKey = DefaultBypassHeader
		}
		if c.bypassValue == "" {
			c.bypassValue = DefaultBypassHeaderValue
		}
	}

	return c
}

// Logger returns the client's logger.
func (c *SDKClient) Logger() *slog.Logger { return c.logger }

// RequestTimeout returns the per-call deadline.
func (c *SDKClient) RequestTimeout() time.Duration { return c.requestTimeout }
