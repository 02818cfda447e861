// Package service talks to the workspace backend: the workspace listing and
// loading endpoints and the publisher.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/sirupsen/logrus"

	"github.com/mattsolo1/grove-projects/pkg/models"
)

const (
	workspacesPath = "/services/ide/workspaces"
	publisherPath  = "/services/ide/publisher/request"
)

// ErrRateLimited is returned when the client refuses to issue a request
// because the configured rate was exceeded.
var ErrRateLimited = errors.New("request rate limit exceeded")

// StatusError is returned when the backend answers with an unexpected status.
type StatusError struct {
	Op   string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Op, e.Code)
}

// Config holds client configuration
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit int // requests per second, 0 disables limiting
	RateBurst int
}

type limiter interface {
	Allow(ctx context.Context, key string) bool
}

// Client is the HTTP client for the workspace backend.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    limiter
	logger     *logrus.Entry
}

// New creates a client for the backend at cfg.BaseURL.
func New(cfg Config, logger *logrus.Entry) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", cfg.BaseURL)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = logrus.NewEntry(l)
	}

	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.WithField("component", "service"),
	}

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < cfg.RateLimit {
			burst = cfg.RateLimit
		}
		c.limiter = ratelimit.New(&ratelimit.Config{
			Rate:     cfg.RateLimit,
			Burst:    burst,
			Interval: time.Second,
		})
	}

	return c, nil
}

// ListNames returns the names of all workspaces known to the backend.
func (c *Client) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	if err := c.getJSON(ctx, "list workspaces", c.endpoint(workspacesPath), &names); err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Load returns the full description of a workspace.
func (c *Client) Load(ctx context.Context, name string) (*models.Workspace, error) {
	ws := &models.Workspace{}
	op := fmt.Sprintf("load workspace %q", name)
	if err := c.getJSON(ctx, op, c.endpoint(workspacesPath, name), ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// Publish asks the publisher to publish path, optionally scoped to a
// workspace. The backend's status code is returned as is; 201 means success.
func (c *Client) Publish(ctx context.Context, path, workspace string) (int, error) {
	return c.publisher(ctx, http.MethodPost, path, workspace)
}

// Unpublish reverses Publish.
func (c *Client) Unpublish(ctx context.Context, path, workspace string) (int, error) {
	return c.publisher(ctx, http.MethodDelete, path, workspace)
}

func (c *Client) publisher(ctx context.Context, method, path, workspace string) (int, error) {
	u := c.endpoint(publisherPath, path)
	if workspace != "" {
		q := u.Query()
		q.Set("workspace", workspace)
		u.RawQuery = q.Encode()
	}

	resp, err := c.do(ctx, method, u)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	c.logger.WithFields(logrus.Fields{
		"method":    method,
		"path":      path,
		"workspace": workspace,
		"status":    resp.StatusCode,
	}).Debug("publisher request")
	return resp.StatusCode, nil
}

func (c *Client) getJSON(ctx context.Context, op string, u *url.URL, out any) error {
	resp, err := c.do(ctx, http.MethodGet, u)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{Op: op, Code: resp.StatusCode}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method string, u *url.URL) (*http.Response, error) {
	if c.limiter != nil && !c.limiter.Allow(ctx, c.baseURL.Host) {
		return nil, ErrRateLimited
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	return resp, nil
}

func (c *Client) endpoint(elems ...string) *url.URL {
	return c.baseURL.JoinPath(elems...)
}
