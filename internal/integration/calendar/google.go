// Package calendar provides a read-only Google Calendar integration client.
//
// The client wraps the Calendar v3 events.list REST endpoint. It follows the
// uniform integration shape used throughout Hiya: a pure Configured check on
// credential presence plus exactly one fallible remote call. Retry policy, if
// any, belongs to the caller.
package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL    = "https://www.googleapis.com/calendar/v3"
	defaultCalendarID = "primary"
)

// ErrNotConfigured is returned by ListUpcomingEvents when no access token is set.
var ErrNotConfigured = errors.New("calendar: client is not configured")

// EventTime is the Google Calendar representation of an event boundary.
// Timed events carry DateTime (RFC 3339); all-day events carry Date only.
type EventTime struct {
	DateTime string `json:"dateTime,omitempty"`
	Date     string `json:"date,omitempty"`
}

// Value returns DateTime when present, otherwise Date. Empty for a zero value.
func (t EventTime) Value() string {
	if t.DateTime != "" {
		return t.DateTime
	}
	return t.Date
}

// Event mirrors the wire shape of a Google Calendar event resource, limited to
// the fields Hiya consumes. Events are passed through to callers as-is so the
// turn result keeps the provider-shaped payload.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Location    string    `json:"location,omitempty"`
	Start       EventTime `json:"start"`
	End         EventTime `json:"end"`
}

// eventList is the events.list response envelope.
type eventList struct {
	Items []Event `json:"items"`
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithBaseURL overrides the Calendar API base URL. Used in tests.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// WithCalendarID selects the calendar to query. Defaults to "primary".
func WithCalendarID(id string) Option {
	return func(c *Client) {
		c.calendarID = id
	}
}

// WithHTTPClient replaces the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client calls the Google Calendar API with a pre-issued OAuth bearer token.
// Token acquisition and refresh happen outside this package.
type Client struct {
	accessToken string
	calendarID  string
	baseURL     string
	httpClient  *http.Client
	now         func() time.Time
}

// New creates a Client. An empty accessToken is allowed and simply leaves the
// client unconfigured; ListUpcomingEvents then fails with [ErrNotConfigured].
func New(accessToken string, opts ...Option) *Client {
	c := &Client{
		accessToken: accessToken,
		calendarID:  defaultCalendarID,
		baseURL:     defaultBaseURL,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
		now:         time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Configured reports whether an access token is present. It performs no
// network call.
func (c *Client) Configured() bool {
	return c.accessToken != ""
}

// ListUpcomingEvents returns up to maxResults events starting within the next
// withinDays days, optionally filtered by the free-text query. Events are
// returned in start-time order, expanded to single instances.
func (c *Client) ListUpcomingEvents(ctx context.Context, query string, withinDays, maxResults int) ([]Event, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	now := c.now().UTC()
	params := url.Values{}
	params.Set("timeMin", now.Format(time.RFC3339))
	params.Set("timeMax", now.AddDate(0, 0, withinDays).Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")
	params.Set("maxResults", strconv.Itoa(maxResults))
	if query != "" {
		params.Set("q", query)
	}

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s",
		c.baseURL, url.PathEscape(c.calendarID), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("calendar: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar: list events: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("calendar: list events: status %d: %s", resp.StatusCode, body)
	}

	var list eventList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("calendar: decode response: %w", err)
	}
	return list.Items, nil
}
