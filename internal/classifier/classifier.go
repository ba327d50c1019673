// Package classifier issues the reputation check against the remote
// backend and normalizes its response into a verdict.Entry. Every failure
// path resolves to a usable entry: the gate must never block navigation
// just because the backend was unreachable (fail-open).
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"phishgate/internal/logging"
	"phishgate/internal/verdict"
)

// SettingsSource yields the configured backend base URL. It is consulted on
// every request, never cached here, so a configuration change takes effect
// on the next call.
type SettingsSource interface {
	BackendURL(ctx context.Context) (string, error)
}

// Config controls the classifier client.
type Config struct {
	// DefaultBackendURL is used when the settings source has no value.
	DefaultBackendURL string

	// Timeout bounds the whole round trip to the backend.
	Timeout time.Duration
}

// DefaultConfig returns development defaults matching the stock backend.
func DefaultConfig() Config {
	return Config{
		DefaultBackendURL: "http://localhost:5000",
		Timeout:           10 * time.Second,
	}
}

// checkResponse is the backend /check wire shape.
type checkResponse struct {
	Result     string   `json:"result"`
	Source     string   `json:"source"`
	Confidence *float64 `json:"confidence"`
	Type       *string  `json:"type"`
	ElapsedMS  float64  `json:"elapsed_ms"`
}

// Client talks to the backend /check endpoint.
type Client struct {
	cfg      Config
	settings SettingsSource
	http     *http.Client
	logger   logging.Logger
}

// New creates a Client. settings may be nil, in which case the configured
// default backend is always used. httpClient may be nil for a default with
// the configured timeout.
func New(cfg Config, settings SettingsSource, logger logging.Logger, httpClient *http.Client) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.DefaultBackendURL == "" {
		cfg.DefaultBackendURL = DefaultConfig().DefaultBackendURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("classifier")
	}
	return &Client{
		cfg:      cfg,
		settings: settings,
		http:     httpClient,
		logger:   logger.With(logging.Field{Key: "component", Value: "classifier"}),
	}
}

// errorEntry is the fail-open result for rawURL.
func errorEntry(rawURL string) *verdict.Entry {
	return &verdict.Entry{
		URL:    rawURL,
		Result: verdict.Unknown,
		Source: verdict.SourceError,
	}
}

// backendBase resolves the backend base URL for this request, trailing
// slash stripped.
func (c *Client) backendBase(ctx context.Context) string {
	base := ""
	if c.settings != nil {
		b, err := c.settings.BackendURL(ctx)
		if err != nil {
			c.logger.Warn("reading backend url from settings",
				logging.Field{Key: "error", Value: err.Error()})
		} else {
			base = b
		}
	}
	if base == "" {
		base = c.cfg.DefaultBackendURL
	}
	return strings.TrimRight(base, "/")
}

// Classify checks rawURL against the backend. It never returns an error:
// non-success status, network failure, timeout or a malformed body all
// resolve to an Unknown/error entry.
func (c *Client) Classify(ctx context.Context, rawURL string) *verdict.Entry {
	endpoint := fmt.Sprintf("%s/check?%s", c.backendBase(ctx),
		url.Values{"url": {rawURL}}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.logger.Warn("building check request",
			logging.Field{Key: "url", Value: rawURL},
			logging.Field{Key: "error", Value: err.Error()})
		return errorEntry(rawURL)
	}
	// The engine owns caching; the transport layer must not.
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("backend check failed",
			logging.Field{Key: "url", Value: rawURL},
			logging.Field{Key: "error", Value: err.Error()})
		return errorEntry(rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("backend check returned non-success status",
			logging.Field{Key: "url", Value: rawURL},
			logging.Field{Key: "status", Value: resp.StatusCode})
		return errorEntry(rawURL)
	}

	var body checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.logger.Warn("decoding check response",
			logging.Field{Key: "url", Value: rawURL},
			logging.Field{Key: "error", Value: err.Error()})
		return errorEntry(rawURL)
	}

	entry := &verdict.Entry{
		URL:       rawURL,
		Result:    verdict.ParseResult(body.Result),
		Source:    verdict.ParseSource(body.Source),
		ElapsedMS: body.ElapsedMS,
	}
	if body.Type != nil {
		entry.Category = *body.Type
	}
	// Confidence is the model's probability for the predicted class and is
	// stored as-is; it is only meaningful for model verdicts.
	if entry.Source == verdict.SourceModel && body.Confidence != nil {
		conf := *body.Confidence
		entry.Confidence = &conf
	}

	c.logger.Debug("classified url",
		logging.Field{Key: "url", Value: rawURL},
		logging.Field{Key: "result", Value: string(entry.Result)},
		logging.Field{Key: "source", Value: string(entry.Source)})
	return entry
}
