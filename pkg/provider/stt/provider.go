// Package stt defines the Provider interface for Speech-to-Text backends.
//
// An STT provider wraps a batch transcription service (e.g., the OpenAI
// Whisper API) and exposes a uniform interface: the caller supplies a complete
// recorded utterance and receives its transcript. There is no streaming or
// partial-result surface — the Hiya pipeline records a full utterance before
// transcribing it.
//
// Implementations must be safe for concurrent use.
package stt

import (
	"context"
	"io"
)

// Provider is the abstraction over any batch STT backend.
type Provider interface {
	// Transcribe reads a complete audio recording from r and returns its
	// transcript. filename carries the original file name so providers that
	// sniff the container format from the extension (e.g., multipart uploads)
	// can do so.
	//
	// Returns an error if the provider cannot be reached, rejects the audio, or
	// if ctx is cancelled before the transcript arrives. No retry is performed.
	Transcribe(ctx context.Context, r io.Reader, filename string) (string, error)
}
