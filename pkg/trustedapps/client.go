package trustedapps

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNotFound is returned when the service reports no matching trusted app.
var ErrNotFound = errors.New("trusted app not found")

// Client talks to the trusted apps service over HTTP.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// Config holds client construction parameters.
type Config struct {
	// BaseURL is the service root, e.g. "http://localhost:8080".
	BaseURL string

	// APIKey authenticates requests as a Bearer token.
	APIKey string

	// Timeout bounds each request. Defaults to 30 seconds.
	Timeout time.Duration
}

// New creates a new client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("BaseURL is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// List returns one page of trusted apps.
func (c *Client) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	q := url.Values{}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(opts.PerPage))
	}
	if opts.Filter != "" {
		q.Set("filter", opts.Filter)
	}

	endpoint := c.baseURL + "/api/trusted_apps"
	if encoded := q.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}

	var result ListResult
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Create registers a new trusted app and returns the stored record.
func (c *Client) Create(ctx context.Context, app NewTrustedApp) (*TrustedApp, error) {
	var envelope struct {
		Data TrustedApp `json:"data"`
	}
	err := c.do(ctx, http.MethodPost, c.baseURL+"/api/trusted_apps", app, &envelope)
	if err != nil {
		return nil, err
	}
	return &envelope.Data, nil
}

// Delete removes a trusted app by id. Returns ErrNotFound when no app
// matched.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, c.baseURL+"/api/trusted_apps/"+url.PathEscape(id), nil, nil)
}

// do performs one request, encoding body and decoding out when non-nil.
func (c *Client) do(ctx context.Context, method, endpoint string, body, out any) error {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s %s: unexpected status %d", method, endpoint, resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
