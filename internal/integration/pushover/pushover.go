// Package pushover provides a minimal client for the Pushover notification
// service (https://pushover.net).
//
// It follows the uniform integration shape: a pure Configured check on
// credential presence plus exactly one fallible remote call, with no retry or
// partial-success handling.
package pushover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://api.pushover.net/1/messages.json"
	defaultTitle   = "Voice Assistant Notification"
)

// ErrNotConfigured is returned by Send when the app token or user key is missing.
var ErrNotConfigured = errors.New("pushover: credentials are not configured")

// Message is a single push notification.
type Message struct {
	// Message is the notification body. Required.
	Message string

	// Title is the notification title. Empty uses a default.
	Title string

	// Priority is the Pushover priority (-2 to 2, 0 = normal).
	Priority int

	// URL is an optional supplementary link.
	URL string
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithBaseURL overrides the Pushover messages endpoint. Used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client sends push notifications through the Pushover messages API.
type Client struct {
	appToken   string
	userKey    string
	baseURL    string
	httpClient *http.Client
}

// New creates a Client. Empty credentials are allowed and leave the client
// unconfigured; Send then fails with [ErrNotConfigured].
func New(appToken, userKey string, opts ...Option) *Client {
	c := &Client{
		appToken:   appToken,
		userKey:    userKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Configured reports whether both the app token and user key are present.
// It performs no network call.
func (c *Client) Configured() bool {
	return c.appToken != "" && c.userKey != ""
}

// Send delivers msg and returns the decoded Pushover response body.
func (c *Client) Send(ctx context.Context, msg Message) (map[string]any, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	title := msg.Title
	if title == "" {
		title = defaultTitle
	}

	form := url.Values{}
	form.Set("token", c.appToken)
	form.Set("user", c.userKey)
	form.Set("message", msg.Message)
	form.Set("title", title)
	form.Set("priority", strconv.Itoa(msg.Priority))
	if msg.URL != "" {
		form.Set("url", msg.URL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("pushover: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pushover: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("pushover: send: status %d: %s", resp.StatusCode, body)
	}

	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("pushover: decode response: %w", err)
	}
	return result, nil
}
