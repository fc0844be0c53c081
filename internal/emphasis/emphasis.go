// Package emphasis maps acoustic emphasis segments onto the transcript and
// scores how well vocal stress lands on the key phrases of the talk.
//
// Key phrases come from the annotation: multi-word noun chunks, named
// entities, and short windows around emphasis-indicator words ("important",
// "critical", ...). Each detected emphasis segment is mapped to the words
// spoken inside it via the word timestamps; a key phrase counts as
// emphasized when it overlaps one of those spoken phrases.
package emphasis

import (
	"fmt"
	"strings"

	"github.com/rostrumhq/rostrum/internal/acoustic"
	"github.com/rostrumhq/rostrum/internal/evaluate"
	"github.com/rostrumhq/rostrum/internal/timing"
	"github.com/rostrumhq/rostrum/pkg/nlp"
)

// Score weights and targets. Coverage of key phrases dominates; density is
// scored against a five-segments-per-minute target.
const (
	coverageWeight = 40
	densityWeight  = 30
	spreadWeight   = 30

	targetDensityPerMinute = 5.0
)

// indicatorWindow bounds the phrase captured around an emphasis-indicator
// word: two tokens before, four after.
const (
	indicatorBefore = 2
	indicatorAfter  = 5
)

// indicators are words whose surroundings the speaker likely meant to
// stress.
var indicators = map[string]bool{
	"important":   true,
	"critical":    true,
	"essential":   true,
	"crucial":     true,
	"significant": true,
	"key":         true,
	"primary":     true,
	"fundamental": true,
	"vital":       true,
	"central":     true,
}

// Stats describes how detected emphasis lined up with the transcript.
type Stats struct {
	// KeyPhrases are the lowercased candidate phrases worth stressing,
	// in order of first appearance.
	KeyPhrases []string

	// EmphasizedPhrases are the words spoken inside each emphasis segment,
	// one phrase per segment that overlapped any words.
	EmphasizedPhrases []string

	// Matched counts key phrases that overlap an emphasized phrase.
	Matched int

	// Coverage is Matched over the number of key phrases.
	Coverage float64

	// Segments is the number of detected emphasis segments.
	Segments int

	// DensityPerMinute is Segments per minute of speech.
	DensityPerMinute float64
}

// Analyze scores emphasis placement on the 0-100 scale.
func Analyze(ann nlp.Annotation, words []timing.TimedWord, em acoustic.Emphasis, seconds float64) (Stats, evaluate.ComponentScore) {
	stats := Stats{
		KeyPhrases:        keyPhrases(ann),
		EmphasizedPhrases: emphasizedPhrases(em.Segments, words),
		Segments:          len(em.Segments),
	}

	for _, kp := range stats.KeyPhrases {
		for _, ep := range stats.EmphasizedPhrases {
			ep = strings.ToLower(ep)
			if strings.Contains(ep, kp) || strings.Contains(kp, ep) {
				stats.Matched++
				break
			}
		}
	}
	if n := len(stats.KeyPhrases); n > 0 {
		stats.Coverage = float64(stats.Matched) / float64(n)
	}
	if seconds > 0 {
		stats.DensityPerMinute = float64(stats.Segments) / (seconds / 60)
	}

	// Spread rewards having roughly one emphasis segment per key phrase.
	spread := float64(stats.Segments) / float64(max(1, len(stats.KeyPhrases)))

	raw := coverageWeight*clamp01(stats.Coverage) +
		densityWeight*clamp01(stats.DensityPerMinute/targetDensityPerMinute) +
		spreadWeight*clamp01(spread)
	value := float64(min(100, max(0, int(raw))))

	return stats, evaluate.ComponentScore{
		Name:     evaluate.ComponentEmphasis,
		Value:    value,
		Scale:    100,
		Feedback: feedback(stats, value),
	}
}

// keyPhrases extracts the candidate phrases worth stressing, lowercased and
// deduplicated in order of first appearance.
func keyPhrases(ann nlp.Annotation) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(phrase string) {
		phrase = strings.ToLower(strings.TrimSpace(phrase))
		if len(phrase) <= 2 || seen[phrase] {
			return
		}
		seen[phrase] = true
		out = append(out, phrase)
	}

	for _, chunk := range ann.NounChunks {
		toks := spanTokens(ann, chunk)
		if len(toks) < 2 || allStopwords(toks) {
			continue
		}
		add(chunk.Text)
	}
	for _, ent := range ann.Entities {
		add(ent.Text)
	}
	for i, tok := range ann.Tokens {
		if !indicators[strings.ToLower(tok.Text)] {
			continue
		}
		lo := max(0, i-indicatorBefore)
		hi := min(len(ann.Tokens), i+indicatorAfter)
		parts := make([]string, 0, hi-lo)
		for _, t := range ann.Tokens[lo:hi] {
			parts = append(parts, t.Text)
		}
		add(strings.Join(parts, " "))
	}
	return out
}

// emphasizedPhrases joins, per segment, the words whose timestamps overlap
// it. Segments that cover no words are dropped.
func emphasizedPhrases(segments []acoustic.EmphasisSegment, words []timing.TimedWord) []string {
	var out []string
	for _, seg := range segments {
		var parts []string
		for _, w := range words {
			if w.Start <= seg.End && w.End >= seg.Start {
				parts = append(parts, w.Text)
			}
		}
		if phrase := strings.Join(parts, " "); len(phrase) > 1 {
			out = append(out, phrase)
		}
	}
	return out
}

func feedback(stats Stats, value float64) []string {
	var fb []string
	switch {
	case value >= 80:
		fb = append(fb, "Excellent use of vocal emphasis to highlight key points.")
	case value >= 60:
		fb = append(fb, "Good emphasis on important content, with room to be more deliberate.")
	case value >= 40:
		fb = append(fb, "Some vocal emphasis detected, but key points often go unstressed.")
	default:
		fb = append(fb, "Little vocal emphasis detected; important points blend into the rest.")
	}
	if stats.Coverage < 0.3 && len(stats.KeyPhrases) > 0 {
		fb = append(fb, "Stress the phrases that carry your main ideas, not just transitions.")
	}
	if stats.DensityPerMinute < 2 {
		fb = append(fb, "Add more vocal variety; long stretches sound flat.")
	} else if stats.DensityPerMinute > 10 {
		fb = append(fb, "Emphasis is so frequent that nothing stands out; save it for key points.")
	}
	if stats.Matched > 0 && value >= 60 {
		fb = append(fb, fmt.Sprintf("Effectively emphasized %d key points in your speech.", stats.Matched))
	}
	return fb
}

// spanTokens returns the tokens covered by a span, clamped to the token
// slice.
func spanTokens(ann nlp.Annotation, s nlp.Span) []nlp.Token {
	lo := max(0, s.Start)
	hi := min(len(ann.Tokens), s.End)
	if lo >= hi {
		return nil
	}
	return ann.Tokens[lo:hi]
}

func allStopwords(toks []nlp.Token) bool {
	for _, t := range toks {
		if !t.IsStop {
			return false
		}
	}
	return true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
