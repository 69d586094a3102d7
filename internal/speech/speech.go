// Package speech adapts the STT and TTS provider layer to the needs of the
// conversation pipeline: file-based transcription input and file-based
// synthesis output.
//
// Both providers are optional. Transcription without a configured backend is
// an error (the caller turns it into a spoken apology); synthesis is strictly
// best-effort and degrades to "no audio" on any failure.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hiyahq/hiya/pkg/provider/stt"
	"github.com/hiyahq/hiya/pkg/provider/tts"
)

// ErrNotConfigured is returned by Transcribe when no STT backend is available.
var ErrNotConfigured = errors.New("speech service is not configured")

const defaultOutputDir = "output/audio"

// Option configures an Adapter.
type Option func(*Adapter)

// WithOutputDir sets the directory synthesized audio files are written to.
func WithOutputDir(dir string) Option {
	return func(a *Adapter) {
		a.outputDir = dir
	}
}

// WithVoice sets the voice profile used for synthesis.
func WithVoice(voice tts.VoiceProfile) Option {
	return func(a *Adapter) {
		a.voice = voice
	}
}

// WithLogger sets the logger used for degradation diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(a *Adapter) {
		a.log = log
	}
}

func withNow(now func() time.Time) Option {
	return func(a *Adapter) {
		a.now = now
	}
}

// Adapter bridges file paths and provider calls. Either provider may be nil,
// in which case the corresponding operation degrades.
type Adapter struct {
	stt       stt.Provider
	tts       tts.Provider
	voice     tts.VoiceProfile
	outputDir string
	now       func() time.Time
	log       *slog.Logger
}

// NewAdapter creates an Adapter over the given providers. Either may be nil.
func NewAdapter(sttProvider stt.Provider, ttsProvider tts.Provider, opts ...Option) *Adapter {
	a := &Adapter{
		stt:       sttProvider,
		tts:       ttsProvider,
		voice:     tts.VoiceProfile{ID: "alloy"},
		outputDir: defaultOutputDir,
		now:       time.Now,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// CanTranscribe reports whether an STT backend is available.
func (a *Adapter) CanTranscribe() bool { return a.stt != nil }

// CanSynthesize reports whether a TTS backend is available.
func (a *Adapter) CanSynthesize() bool { return a.tts != nil }

// Transcribe reads the audio file at audioPath and returns its transcript.
// It fails when no STT backend is configured or when the file does not exist;
// the caller decides how to degrade.
func (a *Adapter) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if a.stt == nil {
		return "", fmt.Errorf("speech: transcribe: %w", ErrNotConfigured)
	}

	f, err := os.Open(audioPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("speech: audio file %s not found: %w", audioPath, err)
		}
		return "", fmt.Errorf("speech: open audio file: %w", err)
	}
	defer f.Close()

	text, err := a.stt.Transcribe(ctx, f, filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("speech: transcribe: %w", err)
	}
	return text, nil
}

// Synthesize renders text to an MP3 file under the adapter's output directory
// and returns its path. It is best-effort: when no TTS backend is configured,
// the text is blank, or synthesis or the file write fails, it returns "" and
// the turn proceeds without audio. Failures are logged, never returned.
func (a *Adapter) Synthesize(ctx context.Context, text string) string {
	if a.tts == nil {
		return ""
	}
	if strings.TrimSpace(text) == "" {
		return ""
	}

	audio, err := a.tts.Synthesize(ctx, text, a.voice)
	if err != nil {
		a.log.Error("speech: synthesis failed", "error", err)
		return ""
	}

	if err := os.MkdirAll(a.outputDir, 0o755); err != nil {
		a.log.Error("speech: create output directory", "dir", a.outputDir, "error", err)
		return ""
	}

	ts := a.now().UTC()
	name := fmt.Sprintf("assistant_%s%06d.mp3", ts.Format("20060102150405"), ts.Nanosecond()/1000)
	path := filepath.Join(a.outputDir, name)
	if err := os.WriteFile(path, audio, 0o644); err != nil {
		a.log.Error("speech: write audio file", "path", path, "error", err)
		return ""
	}
	return path
}
