// Package timing converts raw speech recognition output into an ordered
// sequence of timed words with pause events between them.
//
// A pause is recorded when the silent gap between two consecutive words
// reaches one second within a recognition segment, or two seconds across a
// segment boundary (segment boundaries already absorb short silences, so the
// bar is higher there). Each pause is tagged with whether the preceding word
// ended a sentence — grammatical pauses after a full stop are expected and
// never penalised downstream.
package timing

import (
	"math"
	"strings"

	"github.com/rostrumhq/rostrum/pkg/asr"
)

// Gap thresholds in seconds.
const (
	intraSegmentGap = 1.0
	interSegmentGap = 2.0
)

// TimedWord is one recognised word with its timing.
type TimedWord struct {
	// Text is the word with surrounding whitespace trimmed.
	Text string

	// Start and End are offsets in seconds. Invariant: Start <= End.
	Start float64
	End   float64
}

// PauseEvent is a silent gap between two consecutive words.
type PauseEvent struct {
	// Duration in seconds, rounded to one decimal.
	Duration float64

	// AfterSentenceEnd reports whether the word before the pause ended a
	// sentence (its text ends with a full stop).
	AfterSentenceEnd bool

	// Position is the index of the word preceding the pause within the
	// normalised word sequence.
	Position int
}

// Sequence is the normalised timing view of one transcript.
type Sequence struct {
	// Words in recording order. Empty when the recognition engine produced
	// no word timestamps; that is a valid degraded state.
	Words []TimedWord

	// Pauses between words, in recording order.
	Pauses []PauseEvent

	// Text is the transcript with inline pause markers of the form
	// "[2.3 second pause]" inserted at pause positions. When Words is empty
	// this is the raw transcript text unchanged.
	Text string

	// TotalPauseSeconds is the sum of all pause durations.
	TotalPauseSeconds float64
}

// TotalWords returns the number of words in the sequence, falling back to a
// whitespace count of the raw text when no word timing exists.
func (s Sequence) TotalWords() int {
	if len(s.Words) > 0 {
		return len(s.Words)
	}
	return len(strings.Fields(StripMarkers(s.Text)))
}

// Normalize walks the transcript's words in order and derives the timed
// sequence with pause events. Fails soft: a transcript without word
// timestamps yields a Sequence carrying only the raw text and zero pauses.
func Normalize(t asr.Transcript) Sequence {
	seq := Sequence{}

	type timed struct {
		word    TimedWord
		segment int
	}
	var all []timed
	for si, seg := range t.Segments {
		for _, w := range seg.Words {
			text := strings.TrimSpace(w.Text)
			if text == "" {
				continue
			}
			end := w.End
			if end < w.Start {
				end = w.Start
			}
			all = append(all, timed{
				word:    TimedWord{Text: text, Start: w.Start, End: end},
				segment: si,
			})
		}
	}

	if len(all) == 0 {
		seq.Text = t.Text
		return seq
	}

	var b strings.Builder
	for i, cur := range all {
		seq.Words = append(seq.Words, cur.word)
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(cur.word.Text)

		if i+1 >= len(all) {
			break
		}
		next := all[i+1]
		gap := next.word.Start - cur.word.End

		threshold := intraSegmentGap
		if next.segment != cur.segment {
			threshold = interSegmentGap
		}
		if gap < threshold {
			continue
		}

		dur := math.Round(gap*10) / 10
		seq.Pauses = append(seq.Pauses, PauseEvent{
			Duration:         dur,
			AfterSentenceEnd: strings.HasSuffix(cur.word.Text, "."),
			Position:         i,
		})
		seq.TotalPauseSeconds += dur

		b.WriteByte(' ')
		b.WriteString(Marker(dur))
	}

	seq.Text = normalizeSpace(b.String())
	return seq
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
