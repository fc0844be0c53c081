// Package fluency scores filler word usage and pause patterns, and combines
// them into the proficiency component.
//
// Filler scoring penalises overall density and, separately, bursty usage
// within individual minutes — a speech that front-loads its fillers into one
// minute is worse than the same count spread evenly. Pause scoring counts
// only mid-sentence pauses; a pause after a full stop is delivery, not
// hesitation. Absolute count thresholds are rescaled for the expected speech
// length so a two-minute speech is not held to seven-minute allowances.
package fluency

import (
	"fmt"
	"math"
	"strings"

	"github.com/rostrumhq/rostrum/internal/evaluate"
	"github.com/rostrumhq/rostrum/internal/timing"
)

// fillerVocabulary is the fixed set of words counted as fillers after
// cleaning. Multi-word entries are retained for text-level counting but can
// only match when the recognition engine emits them as one token.
var fillerVocabulary = map[string]bool{
	"um": true, "uh": true, "ah": true, "er": true, "like": true,
	"you know": true, "sort of": true, "kind of": true, "basically": true,
	"literally": true, "actually": true, "hmm": true, "huh": true,
	"yeah": true, "right": true, "okay": true, "well": true,
	"kinda": true, "gonna": true, "wanna": true, "i guess": true,
	"so yeah": true,
}

// cleanWord lowercases a word and strips the punctuation that recognition
// engines attach to word tokens.
func cleanWord(w string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		switch r {
		case '.', ',', '!', '?', '"':
			return -1
		}
		return r
	}, strings.ToLower(w)))
}

// FillerOccurrence records one detected filler word.
type FillerOccurrence struct {
	// Word is the cleaned filler text.
	Word string

	// Minute is the zero-based minute bucket of the word's start time.
	Minute int
}

// FillerStats summarises filler usage across a speech.
type FillerStats struct {
	// Total is the number of filler words detected.
	Total int

	// TotalWords is the number of words scanned.
	TotalWords int

	// Density is Total/TotalWords, or 0 when no words were scanned.
	Density float64

	// PerMinute maps zero-based minute buckets to filler counts.
	PerMinute map[int]int

	// Occurrences lists each detected filler in order.
	Occurrences []FillerOccurrence
}

// CountFillers scans the timed word sequence for filler vocabulary. Words
// without timestamps cannot be bucketed per minute; in the degraded
// text-only state the whole transcript counts as minute zero.
func CountFillers(seq timing.Sequence) FillerStats {
	stats := FillerStats{PerMinute: make(map[int]int)}

	if len(seq.Words) == 0 {
		for _, field := range strings.Fields(timing.StripMarkers(seq.Text)) {
			stats.TotalWords++
			if w := cleanWord(field); fillerVocabulary[w] {
				stats.Total++
				stats.PerMinute[0]++
				stats.Occurrences = append(stats.Occurrences, FillerOccurrence{Word: w})
			}
		}
	} else {
		for _, tw := range seq.Words {
			stats.TotalWords++
			w := cleanWord(tw.Text)
			if !fillerVocabulary[w] {
				continue
			}
			minute := int(tw.Start / 60)
			stats.Total++
			stats.PerMinute[minute]++
			stats.Occurrences = append(stats.Occurrences, FillerOccurrence{Word: w, Minute: minute})
		}
	}

	if stats.TotalWords > 0 {
		stats.Density = float64(stats.Total) / float64(stats.TotalWords)
	}
	return stats
}

// Density breakpoints for the filler score.
const (
	densityFail     = 0.15
	densityHigh     = 0.10
	densityModerate = 0.05
)

// ScoreFillers maps filler statistics to the 0–10 filler component score.
//
// Density sets the base: at or above 15 percent the score is zero outright;
// 10–15 percent scores 2; 5–10 percent scores 4; below that the score falls
// linearly from 10 by one point per percent. Per-minute burst penalties are
// then subtracted cumulatively using the duration-adjusted thresholds, so
// bursty usage is penalised even when overall density is low.
func ScoreFillers(stats FillerStats, thr Thresholds) evaluate.ComponentScore {
	var feedback []string
	score := 10.0

	switch {
	case stats.Density >= densityFail:
		score = 0
		feedback = append(feedback, "Filler words dominate your speech. Practice pausing silently instead of filling gaps.")
	case stats.Density >= densityHigh:
		score = 2
		feedback = append(feedback, "Very frequent filler words detected. Slow down and let sentences end cleanly.")
	case stats.Density >= densityModerate:
		score = 4
		feedback = append(feedback, "Noticeable filler word usage. Replacing fillers with short pauses will sharpen delivery.")
	default:
		score = math.Max(0, 10-stats.Density*100)
	}

	burstPenalty := 0.0
	for _, count := range stats.PerMinute {
		switch {
		case count > thr.FillerBurstHeavy:
			burstPenalty += 4
		case count > thr.FillerBurstHigh:
			burstPenalty += 3
		case count > thr.FillerBurstModerate:
			burstPenalty += 2
		}
	}
	if burstPenalty > 0 {
		score = math.Max(0, score-burstPenalty)
		feedback = append(feedback, "Filler words cluster into short bursts. Watch for moments where you lose your thread.")
	}

	if len(feedback) == 0 {
		if stats.Total == 0 {
			feedback = append(feedback, "No filler words detected. Excellent control.")
		} else {
			feedback = append(feedback, fmt.Sprintf("Only %d filler words across the speech. Good control.", stats.Total))
		}
	}

	return evaluate.ComponentScore{
		Name:     evaluate.ComponentFillerWords,
		Value:    math.Round(score*10) / 10,
		Scale:    10,
		Feedback: feedback,
	}
}
