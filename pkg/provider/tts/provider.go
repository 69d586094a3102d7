// Package tts defines the Provider interface for Text-to-Speech backends.
//
// A TTS provider wraps a speech synthesis service (e.g., the OpenAI speech
// API) behind a uniform batch interface: the caller supplies the full reply
// text and receives the encoded audio. Synthesis in the Hiya pipeline is
// best-effort — callers decide how to degrade when it fails — so providers
// report errors plainly and perform no retries.
//
// Implementations must be safe for concurrent use.
package tts

import "context"

// VoiceProfile describes a synthesis voice configuration.
type VoiceProfile struct {
	// ID is the provider-specific voice identifier (e.g., "alloy").
	ID string

	// SpeedFactor adjusts speaking rate (0.25–4.0, 0 = provider default).
	SpeedFactor float64
}

// Provider is the abstraction over any TTS backend.
type Provider interface {
	// Synthesize renders text as encoded audio (MP3 unless the implementation
	// documents otherwise) using the given voice profile.
	//
	// Returns an error if the provider cannot be reached, rejects the request,
	// or if ctx is cancelled before synthesis completes.
	Synthesize(ctx context.Context, text string, voice VoiceProfile) ([]byte, error)
}
