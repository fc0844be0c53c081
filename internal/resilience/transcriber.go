package resilience

import (
	"context"

	"github.com/rostrumhq/rostrum/pkg/asr"
)

// TranscriberFallback implements [asr.Transcriber] with automatic failover
// across multiple recognition engines. Each engine has its own circuit
// breaker, so a hosted API that starts timing out is bypassed in favour of a
// local model without waiting for every request to fail.
type TranscriberFallback struct {
	group *FallbackGroup[asr.Transcriber]
}

// Compile-time interface assertion.
var _ asr.Transcriber = (*TranscriberFallback)(nil)

// NewTranscriberFallback creates a [TranscriberFallback] with primary as the
// preferred engine.
func NewTranscriberFallback(primary asr.Transcriber, primaryName string, cfg FallbackConfig) *TranscriberFallback {
	return &TranscriberFallback{
		group: NewFallbackGroup(primary, primaryName, cfg),
	}
}

// AddFallback registers an additional recognition engine as a fallback.
func (f *TranscriberFallback) AddFallback(name string, t asr.Transcriber) {
	f.group.AddFallback(name, t)
}

// Transcribe runs recognition against the first healthy engine. If the
// primary fails, subsequent fallbacks are tried with the same samples.
func (f *TranscriberFallback) Transcribe(ctx context.Context, samples []float32, sampleRate int) (asr.Transcript, error) {
	return ExecuteWithResult(f.group, func(t asr.Transcriber) (asr.Transcript, error) {
		return t.Transcribe(ctx, samples, sampleRate)
	})
}
