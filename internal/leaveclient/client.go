// Package leaveclient is the portal side of the leave lifecycle. It runs the
// same validator and transition table as the server before every remote call
// and only replaces local state with snapshots the server confirmed.
package leaveclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	apiPrefix      = "/api/v1"
	defaultTimeout = 10 * time.Second
)

type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
	now     func() time.Time
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger.Named("leaveclient")
		}
	}
}

// WithClock sets what "today" means for local validation.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		logger:  zap.L().Named("leaveclient"),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Ok    bool            `json:"ok"`
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

// do sends one request and decodes data into out. token may be empty.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Client-Type", "API")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("leave service request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Ok {
		if env.Error == nil {
			return &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("error response without error body")}
		}
		c.logger.Debug("leave service refused request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("code", env.Error.Code),
		)
		return classify(resp.StatusCode, env.Error.Code, env.Error.Message, detailFields(env.Error.Details))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}

// detailFields flattens error.details into strings. Non-object details are
// dropped.
func detailFields(raw json.RawMessage) map[string]string {
	if len(raw) == 0 {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = fmt.Sprint(v)
	}
	return out
}
