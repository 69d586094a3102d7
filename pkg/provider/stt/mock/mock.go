// Package mock provides a test double for the stt.Provider interface.
package mock

import (
	"context"
	"io"
	"sync"

	"github.com/hiyahq/hiya/pkg/provider/stt"
)

// TranscribeCall records a single invocation of Transcribe.
type TranscribeCall struct {
	// Filename is the filename passed to Transcribe.
	Filename string
	// Audio is the full content read from the supplied reader.
	Audio []byte
}

// Provider is a mock implementation of stt.Provider.
// Set Text to control the returned transcript and Err to inject an error.
type Provider struct {
	mu sync.Mutex

	// Text is returned as the transcript by Transcribe.
	Text string

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// TranscribeCalls records all invocations of Transcribe in order.
	TranscribeCalls []TranscribeCall
}

// Compile-time interface check.
var _ stt.Provider = (*Provider)(nil)

// Transcribe implements stt.Provider.
func (p *Provider) Transcribe(_ context.Context, r io.Reader, filename string) (string, error) {
	audio, _ := io.ReadAll(r)

	p.mu.Lock()
	p.TranscribeCalls = append(p.TranscribeCalls, TranscribeCall{Filename: filename, Audio: audio})
	p.mu.Unlock()

	if p.Err != nil {
		return "", p.Err
	}
	return p.Text, nil
}

// Calls returns a copy of all recorded Transcribe invocations.
func (p *Provider) Calls() []TranscribeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]TranscribeCall, len(p.TranscribeCalls))
	copy(out, p.TranscribeCalls)
	return out
}
