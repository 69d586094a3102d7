// Package mock provides a test double for the tts.Provider interface.
package mock

import (
	"context"
	"sync"

	"github.com/hiyahq/hiya/pkg/provider/tts"
)

// SynthesizeCall records a single invocation of Synthesize.
type SynthesizeCall struct {
	// Text is the text passed to Synthesize.
	Text string
	// Voice is the voice profile passed to Synthesize.
	Voice tts.VoiceProfile
}

// Provider is a mock implementation of tts.Provider.
// Set Audio to control the returned payload and Err to inject an error.
type Provider struct {
	mu sync.Mutex

	// Audio is returned by Synthesize.
	Audio []byte

	// Err, if non-nil, is returned as the error from Synthesize.
	Err error

	// SynthesizeCalls records all invocations of Synthesize in order.
	SynthesizeCalls []SynthesizeCall
}

// Compile-time interface check.
var _ tts.Provider = (*Provider)(nil)

// Synthesize implements tts.Provider.
func (p *Provider) Synthesize(_ context.Context, text string, voice tts.VoiceProfile) ([]byte, error) {
	p.mu.Lock()
	p.SynthesizeCalls = append(p.SynthesizeCalls, SynthesizeCall{Text: text, Voice: voice})
	p.mu.Unlock()

	if p.Err != nil {
		return nil, p.Err
	}
	return p.Audio, nil
}

// Calls returns a copy of all recorded Synthesize invocations.
func (p *Provider) Calls() []SynthesizeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]SynthesizeCall, len(p.SynthesizeCalls))
	copy(out, p.SynthesizeCalls)
	return out
}
