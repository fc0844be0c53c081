// Package whisper provides an asr.Transcriber backed by the whisper.cpp CGO
// bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.
//
// The model is loaded once at construction and shared across all concurrent
// transcriptions; each call creates its own whisper context, which is the
// unit of thread safety in whisper.cpp.
package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/rostrumhq/rostrum/pkg/asr"
)

// Compile-time assertion that Transcriber satisfies asr.Transcriber.
var _ asr.Transcriber = (*Transcriber)(nil)

const defaultLanguage = "en"

// whisper.cpp operates on 16 kHz mono input.
const nativeSampleRate = 16000

// Transcriber implements asr.Transcriber using whisper.cpp Go bindings.
type Transcriber struct {
	model    whisperlib.Model
	language string
}

// Option is a functional option for configuring a Transcriber.
type Option func(*Transcriber)

// WithLanguage sets the BCP-47 language code for recognition (e.g., "en",
// "de", "fr"). Defaults to "en".
func WithLanguage(lang string) Option {
	return func(t *Transcriber) { t.language = lang }
}

// New creates a Transcriber that loads the whisper.cpp model from the given
// file path. The caller must call Close when the transcriber is no longer
// needed.
func New(modelPath string, opts ...Option) (*Transcriber, error) {
	if modelPath == "" {
		return nil, errors.New("whisper: modelPath must not be empty")
	}
	model, err := whisperlib.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", modelPath, err)
	}

	t := &Transcriber{
		model:    model,
		language: defaultLanguage,
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Close releases the whisper model. Must be called when the transcriber is no
// longer needed.
func (t *Transcriber) Close() error {
	if t.model != nil {
		return t.model.Close()
	}
	return nil
}

// Transcribe runs whisper.cpp inference over the samples and returns the
// transcript with token-level timestamps mapped to words. Samples must be
// mono float32 at 16 kHz; other rates are rejected so that timing offsets
// stay correct.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (asr.Transcript, error) {
	if err := ctx.Err(); err != nil {
		return asr.Transcript{}, fmt.Errorf("whisper: context already cancelled: %w", err)
	}
	if sampleRate != nativeSampleRate {
		return asr.Transcript{}, fmt.Errorf("whisper: sample rate %d not supported, resample to %d first", sampleRate, nativeSampleRate)
	}
	if len(samples) == 0 {
		return asr.Transcript{}, errors.New("whisper: no audio samples")
	}

	// Each context is NOT thread-safe, but the model can be shared across
	// goroutines.
	wctx, err := t.model.NewContext()
	if err != nil {
		return asr.Transcript{}, fmt.Errorf("whisper: create context: %w", err)
	}

	if err := wctx.SetLanguage(t.language); err != nil {
		slog.Warn("whisper: failed to set language, using default", "language", t.language, "error", err)
	}
	wctx.SetTokenTimestamps(true)

	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return asr.Transcript{}, fmt.Errorf("whisper: process audio: %w", err)
	}

	var (
		transcript asr.Transcript
		parts      []string
	)
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return asr.Transcript{}, fmt.Errorf("whisper: read segment: %w", err)
		}

		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)

		seg := asr.Segment{
			Start: segment.Start.Seconds(),
			End:   segment.End.Seconds(),
			Text:  text,
		}
		for _, tok := range segment.Tokens {
			word := strings.TrimSpace(tok.Text)
			if word == "" || strings.HasPrefix(word, "[_") {
				continue
			}
			seg.Words = append(seg.Words, asr.Word{
				Text:       word,
				Start:      tok.Start.Seconds(),
				End:        tok.End.Seconds(),
				Confidence: float64(tok.P),
			})
		}
		transcript.Segments = append(transcript.Segments, seg)
	}

	transcript.Text = strings.Join(parts, " ")
	transcript.Duration = float64(len(samples)) / float64(nativeSampleRate)
	return transcript, nil
}
