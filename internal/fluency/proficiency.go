package fluency

import (
	"math"

	"github.com/rostrumhq/rostrum/internal/evaluate"
	"github.com/rostrumhq/rostrum/internal/timing"
)

// Proficiency combination weights. Filler control dominates because pause
// placement is already partially captured by the filler burst penalty.
const (
	fillerWeight = 0.6
	pauseWeight  = 0.4
)

// Analyze runs the full fluency analysis for a speech: it counts fillers,
// buckets mid-sentence pauses, and produces both the filler component score
// and the combined proficiency score on its 0–20 scale.
//
// expectedDuration adjusts the absolute count thresholds; an empty or
// malformed value keeps the seven-minute baseline.
func Analyze(seq timing.Sequence, expectedDuration string) (filler, proficiency evaluate.ComponentScore) {
	thr := ResolveThresholds(expectedDuration)

	stats := CountFillers(seq)
	filler = ScoreFillers(stats, thr)

	buckets := BucketPauses(seq)
	pauseScore, pauseFeedback := ScorePauses(buckets, thr)

	combined := (filler.Value*fillerWeight + pauseScore*pauseWeight) * 2

	feedback := make([]string, 0, len(pauseFeedback)+1)
	feedback = append(feedback, pauseFeedback...)
	if combined >= 16 {
		feedback = append(feedback, "Fluent, confident delivery overall.")
	}

	proficiency = evaluate.ComponentScore{
		Name:     evaluate.ComponentProficiency,
		Value:    math.Round(combined*10) / 10,
		Scale:    20,
		Feedback: feedback,
	}
	return filler, proficiency
}
