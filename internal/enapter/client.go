// ABOUTME: HTTP client for the Enapter HTTP API v3 (sites, devices, telemetry)
// ABOUTME: One client per caller credential; Close releases its pooled connections

package enapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public Enapter HTTP API endpoint.
	DefaultBaseURL = "https://api.enapter.com"

	defaultTimeout  = 30 * time.Second
	defaultPageSize = 50
	userAgent       = "enapter-mcp-server"

	headerAuthToken = "X-Enapter-Auth-Token"
	headerAuthUser  = "X-Enapter-Auth-User"
)

// Credentials identify the caller to the upstream API. Either field may be
// empty; only non-empty values are sent.
type Credentials struct {
	Token string
	User  string
}

// Config holds the settings shared by every client the server creates.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	PageSize int
}

// Client talks to the Enapter HTTP API on behalf of a single caller.
type Client struct {
	baseURL   string
	creds     Credentials
	pageSize  int
	transport *http.Transport
	http      *http.Client
}

// Error is returned for every non-2xx upstream response.
type Error struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("enapter api request failed with status %d: %s", e.StatusCode, e.Message)
	case e.Body != "":
		return fmt.Sprintf("enapter api request failed with status %d: %s", e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("enapter api request failed with status %d", e.StatusCode)
	}
}

// IsNotFound reports whether err is an upstream 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// New creates a client bound to creds. The caller must Close it.
func New(cfg Config, creds Credentials) (*Client, error) {
	normalized := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if normalized == "" {
		normalized = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(normalized); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	return &Client{
		baseURL:   normalized,
		creds:     creds,
		pageSize:  pageSize,
		transport: transport,
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}, nil
}

// Close drops idle connections held by this client.
func (c *Client) Close() error {
	c.transport.CloseIdleConnections()
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, accept string) ([]byte, error) {
	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("User-Agent", userAgent)
	if c.creds.Token != "" {
		req.Header.Set(headerAuthToken, c.creds.Token)
	}
	if c.creds.User != "" {
		req.Header.Set(headerAuthUser, c.creds.User)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	body, err := c.get(ctx, path, query, "application/json")
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// newError extracts the first entry of the API's {"errors": [...]} envelope
// when the body carries one.
func newError(status int, body []byte) *Error {
	apiErr := &Error{StatusCode: status, Body: strings.TrimSpace(string(body))}

	var envelope struct {
		Errors []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if json.Unmarshal(body, &envelope) == nil && len(envelope.Errors) > 0 {
		apiErr.Code = envelope.Errors[0].Code
		apiErr.Message = envelope.Errors[0].Message
	}
	return apiErr
}

// list pages through a collection endpoint lazily. Iteration stops at the
// first short page or the first error, which is yielded once.
func list[T any](ctx context.Context, c *Client, path string, query url.Values, field string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		for offset := 0; ; offset += c.pageSize {
			pageQuery := url.Values{}
			for k, v := range query {
				pageQuery[k] = v
			}
			pageQuery.Set("offset", strconv.Itoa(offset))
			pageQuery.Set("limit", strconv.Itoa(c.pageSize))

			var page map[string][]T
			if err := c.getJSON(ctx, path, pageQuery, &page); err != nil {
				yield(zero, err)
				return
			}

			items := page[field]
			for _, item := range items {
				if !yield(item, nil) {
					return
				}
			}
			if len(items) < c.pageSize {
				return
			}
		}
	}
}
