// Package mock provides test doubles for the asr package interfaces.
//
// Use Transcriber to feed a controlled Transcript into the pipeline and
// inspect what audio was delivered.
//
// Example:
//
//	tr := &mock.Transcriber{Result: asr.Transcript{Text: "hello world"}}
//	got, _ := tr.Transcribe(ctx, samples, 16000)
package mock

import (
	"context"
	"sync"

	"github.com/rostrumhq/rostrum/pkg/asr"
)

// TranscribeCall records a single invocation of Transcriber.Transcribe.
type TranscribeCall struct {
	// Ctx is the context passed to Transcribe.
	Ctx context.Context
	// SampleCount is the number of samples delivered.
	SampleCount int
	// SampleRate is the sample rate passed to Transcribe.
	SampleRate int
}

// Transcriber is a mock implementation of asr.Transcriber.
type Transcriber struct {
	mu sync.Mutex

	// Result is the Transcript returned by Transcribe.
	Result asr.Transcript

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Calls records every call to Transcribe.
	Calls []TranscribeCall
}

// Transcribe records the call and returns Result, Err.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (asr.Transcript, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = append(t.Calls, TranscribeCall{Ctx: ctx, SampleCount: len(samples), SampleRate: sampleRate})
	if t.Err != nil {
		return asr.Transcript{}, t.Err
	}
	return t.Result, nil
}

// Reset clears all recorded calls. Thread-safe.
func (t *Transcriber) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Calls = nil
}

// Compile-time interface check.
var _ asr.Transcriber = (*Transcriber)(nil)
