// Package openai provides an asr.Transcriber backed by the OpenAI audio
// transcription API. Word-level timestamps are requested via the
// verbose_json response format.
package openai

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/rostrumhq/rostrum/pkg/asr"
)

// Compile-time assertion that Transcriber satisfies asr.Transcriber.
var _ asr.Transcriber = (*Transcriber)(nil)

const defaultModel = "whisper-1"

// Transcriber implements asr.Transcriber using the OpenAI API.
type Transcriber struct {
	client oai.Client
	model  string
}

// config holds optional configuration for the transcriber.
type config struct {
	baseURL string
	model   string
	timeout time.Duration
}

// Option is a functional option for Transcriber.
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL. Useful for
// API-compatible local servers.
func WithBaseURL(url string) Option {
	return func(c *config) { c.baseURL = url }
}

// WithModel overrides the transcription model. Defaults to "whisper-1".
func WithModel(model string) Option {
	return func(c *config) { c.model = model }
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}

// New constructs a new OpenAI Transcriber.
func New(apiKey string, opts ...Option) (*Transcriber, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: apiKey must not be empty")
	}

	cfg := &config{model: defaultModel}
	for _, o := range opts {
		o(cfg)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.baseURL))
	}
	if cfg.timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.timeout,
		}))
	}

	client := oai.NewClient(reqOpts...)
	return &Transcriber{client: client, model: cfg.model}, nil
}

// Transcribe uploads the samples as a WAV payload and returns the transcript
// with word-level timing. The API accepts whole files only, so the samples
// are encoded in memory before the request.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (asr.Transcript, error) {
	if len(samples) == 0 {
		return asr.Transcript{}, fmt.Errorf("openai: no audio samples")
	}

	payload := encodeWAV(samples, sampleRate)

	var verbose oai.TranscriptionVerbose
	_, err := t.client.Audio.Transcriptions.New(ctx,
		oai.AudioTranscriptionNewParams{
			File:                   oai.File(bytes.NewReader(payload), "speech.wav", "audio/wav"),
			Model:                  oai.AudioModel(t.model),
			ResponseFormat:         oai.AudioResponseFormatVerboseJSON,
			TimestampGranularities: []string{"word"},
		},
		option.WithResponseBodyInto(&verbose),
	)
	if err != nil {
		return asr.Transcript{}, fmt.Errorf("openai: transcribe: %w", err)
	}

	transcript := asr.Transcript{
		Text:     strings.TrimSpace(verbose.Text),
		Duration: verbose.Duration,
	}

	// The API returns one flat word list; expose it as a single segment so
	// downstream pause detection applies the intra-segment threshold.
	if len(verbose.Words) > 0 {
		seg := asr.Segment{
			Start: verbose.Words[0].Start,
			End:   verbose.Words[len(verbose.Words)-1].End,
			Text:  transcript.Text,
		}
		for _, w := range verbose.Words {
			seg.Words = append(seg.Words, asr.Word{
				Text:  w.Word,
				Start: w.Start,
				End:   w.End,
			})
		}
		transcript.Segments = []asr.Segment{seg}
	}

	return transcript, nil
}

// encodeWAV serialises mono float32 samples into a 16-bit PCM WAV payload.
func encodeWAV(samples []float32, sampleRate int) []byte {
	dataLen := len(samples) * 2
	buf := bytes.NewBuffer(make([]byte, 0, 44+dataLen))

	// RIFF header.
	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+dataLen))
	buf.WriteString("WAVE")

	// fmt chunk: PCM, mono, 16-bit.
	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint16(1))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(buf, binary.LittleEndian, uint16(2))
	binary.Write(buf, binary.LittleEndian, uint16(16))

	// data chunk.
	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, uint32(dataLen))
	for _, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		binary.Write(buf, binary.LittleEndian, int16(v*32767))
	}

	return buf.Bytes()
}
