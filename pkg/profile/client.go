// Package profile is the client-side boundary to the marketplace profile
// API. It supplies the wizard's initial data (the current profile), acts as
// its completion sink (saving the answers) and translates API validation
// failures back onto wizard field keys. Endpoints are resolved by operation
// id from an OpenAPI document; authentication is delegated to a TokenSource.
package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-formwizard/pkg/wizard"
)

const maxErrorBody = 4 << 10

// TokenSource returns the bearer token for a request. An empty token sends
// no Authorization header.
type TokenSource func(ctx context.Context) (string, error)

// StaticToken returns a TokenSource that always yields token.
func StaticToken(token string) TokenSource {
	return func(context.Context) (string, error) {
		return token, nil
	}
}

// Client talks to the profile API.
type Client struct {
	base      *url.URL
	http      *http.Client
	tokens    TokenSource
	endpoints *Endpoints
	sanitizer *Sanitizer
	fieldKeys []string
	logger    *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTokenSource sets the bearer token provider.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithEndpoints bypasses OpenAPI resolution.
func WithEndpoints(endpoints Endpoints) Option {
	return func(c *Client) {
		c.endpoints = &endpoints
	}
}

// WithFieldKeys lists the wizard field keys API errors are mapped onto.
func WithFieldKeys(keys ...string) Option {
	return func(c *Client) {
		c.fieldKeys = append(c.fieldKeys, keys...)
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New constructs a client rooted at baseURL. Without WithEndpoints the
// embedded API description is used.
func New(baseURL string, options ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return nil, errors.New("profile: base url is required")
	}
	base, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("profile: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("profile: unsupported base url scheme %q", base.Scheme)
	}

	c := &Client{
		base:      base,
		http:      &http.Client{Timeout: 15 * time.Second},
		sanitizer: NewSanitizer(),
		logger:    slog.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}

	if c.endpoints == nil {
		endpoints, err := DefaultEndpoints(context.Background())
		if err != nil {
			return nil, err
		}
		c.endpoints = &endpoints
	}
	return c, nil
}

// Endpoints returns the resolved endpoints.
func (c *Client) Endpoints() Endpoints {
	return *c.endpoints
}

// CurrentProfile fetches the stored profile to seed the wizard. A missing
// profile yields an empty state. Payloads wrapped in {"data": {...}} are
// unwrapped.
func (c *Client) CurrentProfile(ctx context.Context) (wizard.FormState, error) {
	endpoint := c.endpoints.Get
	resp, err := c.do(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return wizard.FormState{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(endpoint, resp)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			return wizard.FormState{}, nil
		}
		return nil, fmt.Errorf("profile: decode profile: %w", err)
	}
	if inner, ok := payload["data"].(map[string]any); ok && len(payload) == 1 {
		payload = inner
	}

	out := make(wizard.FormState, len(payload))
	for key, value := range payload {
		out[key] = value
	}
	return out, nil
}

// SaveProfile sends the sanitised answers. API validation failures come back
// as *ValidationError.
func (c *Client) SaveProfile(ctx context.Context, values wizard.FormState) error {
	endpoint := c.endpoints.Update
	body, err := json.Marshal(c.sanitizer.Payload(values))
	if err != nil {
		return fmt.Errorf("profile: encode payload: %w", err)
	}

	resp, err := c.do(ctx, endpoint, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnprocessableEntity || resp.StatusCode == http.StatusBadRequest:
		return c.validationError(resp)
	default:
		return statusError(endpoint, resp)
	}
}

// Sink adapts SaveProfile into a wizard completion sink bound to ctx.
func (c *Client) Sink(ctx context.Context) wizard.CompletionFunc {
	return func(values wizard.FormState) error {
		return c.SaveProfile(ctx, values)
	}
}

func (c *Client) do(ctx context.Context, endpoint Endpoint, body []byte) (*http.Response, error) {
	target := c.base.JoinPath(endpoint.Path)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, endpoint.Method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("profile: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens(ctx)
		if err != nil {
			return nil, fmt.Errorf("profile: token: %w", err)
		}
		if token = strings.TrimSpace(token); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("profile: %s %s: %w", endpoint.Method, endpoint.Path, err)
	}
	c.logger.Debug("profile request",
		slog.String("method", endpoint.Method),
		slog.String("path", endpoint.Path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(started)),
	)
	return resp, nil
}

type problem struct {
	Message string                     `json:"message"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

func (c *Client) validationError(resp *http.Response) error {
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("profile: read error body: %w", err)
	}

	var body problem
	if err := json.Unmarshal(data, &body); err != nil {
		return &ValidationError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	payload := make(map[string][]string, len(body.Errors))
	for path, raw := range body.Errors {
		var many []string
		if err := json.Unmarshal(raw, &many); err == nil {
			payload[path] = many
			continue
		}
		var one string
		if err := json.Unmarshal(raw, &one); err == nil {
			payload[path] = []string{one}
		}
	}

	mapping := MapErrorPayload(c.fieldKeys, payload)
	return &ValidationError{
		Status:  resp.StatusCode,
		Message: body.Message,
		Fields:  mapping.Fields,
		Form:    mapping.Form,
	}
}

func statusError(endpoint Endpoint, resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{
		Method: endpoint.Method,
		Path:   endpoint.Path,
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(data)),
	}
}
