package pushover

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestConfigured(t *testing.T) {
	cases := []struct {
		name     string
		appToken string
		userKey  string
		want     bool
	}{
		{"both set", "app", "user", true},
		{"missing app token", "", "user", false},
		{"missing user key", "app", "", false},
		{"neither", "", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := New(tc.appToken, tc.userKey).Configured(); got != tc.want {
				t.Errorf("Configured() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSend(t *testing.T) {
	t.Run("posts the message form", func(t *testing.T) {
		var gotForm url.Values
		var gotContentType string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotContentType = r.Header.Get("Content-Type")
			if err := r.ParseForm(); err != nil {
				t.Errorf("ParseForm() error = %v", err)
			}
			gotForm = r.PostForm
			w.Write([]byte(`{"status":1,"request":"abc-123"}`))
		}))
		defer srv.Close()

		c := New("app-tok", "user-key", WithBaseURL(srv.URL))
		result, err := c.Send(context.Background(), Message{
			Message:  "Meeting in 10 minutes",
			Title:    "Reminder from Hiya Assistant",
			Priority: 1,
			URL:      "https://example.com/agenda",
		})
		if err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if gotContentType != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", gotContentType)
		}
		want := map[string]string{
			"token":    "app-tok",
			"user":     "user-key",
			"message":  "Meeting in 10 minutes",
			"title":    "Reminder from Hiya Assistant",
			"priority": "1",
			"url":      "https://example.com/agenda",
		}
		for k, v := range want {
			if got := gotForm.Get(k); got != v {
				t.Errorf("form[%s] = %q, want %q", k, got, v)
			}
		}
		if result["request"] != "abc-123" {
			t.Errorf("result = %v, want decoded response body", result)
		}
	})

	t.Run("defaults the title and omits the URL", func(t *testing.T) {
		var gotForm url.Values
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.ParseForm()
			gotForm = r.PostForm
			w.Write([]byte(`{"status":1}`))
		}))
		defer srv.Close()

		c := New("app", "user", WithBaseURL(srv.URL))
		if _, err := c.Send(context.Background(), Message{Message: "ping"}); err != nil {
			t.Fatalf("Send() error = %v", err)
		}
		if got := gotForm.Get("title"); got != defaultTitle {
			t.Errorf("title = %q, want %q", got, defaultTitle)
		}
		if gotForm.Has("url") {
			t.Error("url parameter sent despite empty URL")
		}
	})

	t.Run("fails without credentials", func(t *testing.T) {
		c := New("", "user")
		_, err := c.Send(context.Background(), Message{Message: "ping"})
		if !errors.Is(err, ErrNotConfigured) {
			t.Errorf("error = %v, want ErrNotConfigured", err)
		}
	})

	t.Run("surfaces non-2xx responses", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"status":0,"errors":["application token is invalid"]}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		c := New("bad", "user", WithBaseURL(srv.URL))
		_, err := c.Send(context.Background(), Message{Message: "ping"})
		if err == nil {
			t.Fatal("expected error for 400 response")
		}
	})
}
