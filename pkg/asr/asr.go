// Package asr defines the Transcriber interface for speech-to-text backends.
//
// A transcriber wraps a speech recognition engine (a local whisper.cpp model
// or the OpenAI transcription API) and exposes a uniform batch interface:
// given the full audio of a recording it returns the transcript text together
// with word-level timing. Word timestamps drive pause detection and emphasis
// mapping downstream; their absence is a valid degraded result, not an error.
//
// Implementations must be safe for concurrent use. A single recording is
// transcribed exactly once per evaluation.
package asr

import "context"

// Word is a single recognised word with its position in the recording.
// Start and End are offsets in seconds from the beginning of the audio.
type Word struct {
	// Text is the recognised word, possibly carrying leading whitespace or
	// trailing punctuation exactly as the engine emitted it.
	Text string

	// Start is the word onset in seconds.
	Start float64

	// End is the word offset in seconds. Invariant: Start <= End.
	End float64

	// Confidence is the engine's confidence (0.0–1.0). Zero when the engine
	// does not report per-word confidence.
	Confidence float64
}

// Segment is a contiguous run of words as grouped by the recognition engine.
// Engines that do not segment their output produce a single segment spanning
// the whole recording.
type Segment struct {
	// Start and End bound the segment in seconds.
	Start float64
	End   float64

	// Text is the concatenated segment text.
	Text string

	// Words holds the per-word detail. May be empty when the engine cannot
	// produce word-level timestamps.
	Words []Word
}

// Transcript is the complete recognition result for one recording.
type Transcript struct {
	// Text is the full transcript without pause markers.
	Text string

	// Segments groups the recognised words. Empty segments (or segments
	// without Words) indicate a degraded, text-only result.
	Segments []Segment

	// Duration is the recording length in seconds as reported by the engine,
	// or 0 when unknown.
	Duration float64
}

// Words returns all words across segments in recording order.
func (t Transcript) Words() []Word {
	var words []Word
	for _, seg := range t.Segments {
		words = append(words, seg.Words...)
	}
	return words
}

// Transcriber is the abstraction over any speech-to-text backend.
//
// Implementations must be safe for concurrent use; multiple recordings may be
// transcribed simultaneously.
type Transcriber interface {
	// Transcribe runs recognition over mono float32 PCM samples at the given
	// sample rate and returns the transcript with word-level timing when the
	// backend supports it.
	//
	// A backend that cannot produce word timestamps must still return the
	// plain text; callers treat missing timestamps as a degraded input.
	// Returns an error only when no usable transcript can be produced at all.
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (Transcript, error)
}
