// Package email provides a SendGrid-backed email integration client.
//
// It follows the uniform integration shape: a pure Configured check on
// credential presence plus exactly one fallible remote call. SendGrid returns
// an empty body on success, so Send emulates a useful payload for the
// notification outcome list.
package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const defaultSubject = "Update from Hiya Assistant"

// ErrNotConfigured is returned by Send when the API key or sender is missing.
var ErrNotConfigured = errors.New("email: sendgrid credentials are not configured")

// sendClient is the slice of *sendgrid.Client that Send uses. Narrowed to an
// interface so tests can substitute a scripted implementation.
type sendClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithSenderName sets the display name used in the From header.
func WithSenderName(name string) Option {
	return func(c *Client) {
		c.senderName = name
	}
}

// withSendClient replaces the underlying SendGrid client. Used in tests.
func withSendClient(sc sendClient) Option {
	return func(c *Client) {
		c.client = sc
	}
}

// Client sends plain-text email through the SendGrid v3 mail API.
type Client struct {
	apiKey     string
	sender     string
	senderName string
	client     sendClient
}

// New creates a Client. Empty credentials are allowed and leave the client
// unconfigured; Send then fails with [ErrNotConfigured].
func New(apiKey, sender string, opts ...Option) *Client {
	c := &Client{
		apiKey: apiKey,
		sender: sender,
	}
	for _, o := range opts {
		o(c)
	}
	if c.client == nil {
		c.client = sendgrid.NewSendClient(apiKey)
	}
	return c
}

// Configured reports whether both the API key and the sender address are
// present. It performs no network call.
func (c *Client) Configured() bool {
	return c.apiKey != "" && c.sender != ""
}

// Send delivers a plain-text email. An empty subject uses a default. The
// returned map mirrors the original service's "queued" acknowledgement since
// SendGrid responds with an empty body on acceptance.
func (c *Client) Send(ctx context.Context, to, subject, body string) (map[string]any, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if subject == "" {
		subject = defaultSubject
	}

	from := mail.NewEmail(c.senderName, c.sender)
	toEmail := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, toEmail, body, "")

	resp, err := c.client.SendWithContext(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("email: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("email: sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return map[string]any{"status": "queued"}, nil
}
