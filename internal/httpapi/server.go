// Package httpapi exposes the Hiya pipeline over a thin JSON HTTP API.
//
// Routes:
//
//   - POST /v1/turns         — multipart audio upload, runs one turn.
//   - GET  /v1/conversations — recent conversation log entries.
//   - GET  /healthz, /readyz — liveness and readiness probes.
//   - GET  /metrics          — Prometheus scrape endpoint.
//
// The API trusts the identity produced by its [UserResolver]; any web UI or
// authentication layer lives in front of this server.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"github.com/hiyahq/hiya/internal/assistant"
	"github.com/hiyahq/hiya/internal/health"
	"github.com/hiyahq/hiya/internal/observe"
	"github.com/hiyahq/hiya/internal/store"
)

// maxUploadBytes caps the multipart audio upload size (25 MiB, matching the
// transcription API's own file limit).
const maxUploadBytes = 25 << 20

// defaultConversationLimit is the page size for GET /v1/conversations when
// the request does not specify one.
const defaultConversationLimit = 20

// TurnRunner executes one conversation turn. Satisfied by
// [assistant.Assistant].
type TurnRunner interface {
	RunTurn(ctx context.Context, audioPath string) *assistant.TurnResult
}

// AssistantFor returns the turn runner bound to the given user identity.
// Assistants are cheap to construct; one is created per request.
type AssistantFor func(userID int64) TurnRunner

// ConversationReader is the slice of the store the API reads from.
type ConversationReader interface {
	RecentConversations(ctx context.Context, userID int64, limit int) ([]store.Conversation, error)
}

// Server is the Hiya HTTP API server.
type Server struct {
	addr          string
	assistantFor  AssistantFor
	conversations ConversationReader
	resolver      UserResolver
	health        *health.Handler
	metrics       *observe.Metrics
	log           *slog.Logger

	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// NewServer assembles the API server on addr.
func NewServer(
	addr string,
	assistantFor AssistantFor,
	conversations ConversationReader,
	resolver UserResolver,
	healthHandler *health.Handler,
	metrics *observe.Metrics,
	opts ...Option,
) *Server {
	s := &Server{
		addr:          addr,
		assistantFor:  assistantFor,
		conversations: conversations,
		resolver:      resolver,
		health:        healthHandler,
		metrics:       metrics,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/turns", s.handleTurn)
	mux.HandleFunc("GET /v1/conversations", s.handleConversations)
	s.health.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           observe.Middleware(metrics)(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the fully assembled HTTP handler. Used in tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		s.log.Info("http api listening", "addr", s.addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("httpapi: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("httpapi: shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

// handleTurn accepts a multipart audio upload in the "audio" form field,
// runs one conversation turn for the resolved user, and responds with the
// turn result.
func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown user identity")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "multipart field \"audio\" is required")
		return
	}
	defer file.Close()

	audioPath, err := spoolUpload(file, header.Filename)
	if err != nil {
		s.log.Error("spooling upload failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not store the uploaded audio")
		return
	}
	defer os.Remove(audioPath)

	start := time.Now()
	result := s.assistantFor(userID).RunTurn(r.Context(), audioPath)

	s.metrics.RecordTurn(r.Context(), result.Intent)
	s.metrics.TurnDuration.Record(r.Context(), time.Since(start).Seconds(),
		metric.WithAttributes(observe.Attr("intent", result.Intent)))

	writeJSON(w, http.StatusOK, result)
}

// conversationEntry is the wire shape of one conversation log row.
type conversationEntry struct {
	ID          int64     `json:"id"`
	UserMessage string    `json:"user_message"`
	Reply       string    `json:"reply"`
	Intent      string    `json:"intent"`
	Confidence  int       `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

// handleConversations returns the most recent conversation log entries for
// the resolved user, newest first.
func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	userID, err := s.resolver.Resolve(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown user identity")
		return
	}

	limit := defaultConversationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, "limit must be an integer in [1, 100]")
			return
		}
		limit = n
	}

	rows, err := s.conversations.RecentConversations(r.Context(), userID, limit)
	if err != nil {
		s.log.Error("listing conversations failed", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load conversations")
		return
	}

	entries := make([]conversationEntry, 0, len(rows))
	for _, c := range rows {
		entries = append(entries, conversationEntry{
			ID:          c.ID,
			UserMessage: c.UserMessage,
			Reply:       c.Reply,
			Intent:      c.Intent,
			Confidence:  c.Confidence,
			CreatedAt:   c.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversations": entries})
}

// spoolUpload writes the uploaded audio to a temp file, preserving the
// original extension so the transcription backend can sniff the container
// format.
func spoolUpload(file io.Reader, filename string) (string, error) {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".wav"
	}
	tmp, err := os.CreateTemp("", "hiya-upload-*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp file: %w", err)
	}
	return tmp.Name(), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding failed"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
