package fluency

import (
	"fmt"
	"math"

	"github.com/rostrumhq/rostrum/internal/timing"
)

// Pause bucket boundaries in seconds.
const (
	pauseShortMax  = 1.5
	pauseMediumMax = 3.0
	pauseLongMax   = 5.0
)

// PauseBuckets counts mid-sentence pauses by duration band. Pauses that
// follow a sentence end are excluded entirely.
type PauseBuckets struct {
	// Short counts pauses under 1.5 s.
	Short int

	// Medium counts pauses of 1.5–3 s.
	Medium int

	// Long counts pauses over 3 s up to 5 s.
	Long int

	// VeryLong counts pauses over 5 s.
	VeryLong int
}

// Total returns the mid-sentence pause count across all buckets.
func (b PauseBuckets) Total() int {
	return b.Short + b.Medium + b.Long + b.VeryLong
}

// BucketPauses classifies the sequence's pauses into duration bands,
// skipping pauses that follow a sentence end.
func BucketPauses(seq timing.Sequence) PauseBuckets {
	var b PauseBuckets
	for _, p := range seq.Pauses {
		if p.AfterSentenceEnd {
			continue
		}
		switch {
		case p.Duration < pauseShortMax:
			b.Short++
		case p.Duration <= pauseMediumMax:
			b.Medium++
		case p.Duration <= pauseLongMax:
			b.Long++
		default:
			b.VeryLong++
		}
	}
	return b
}

// ScorePauses maps pause buckets to a 0–10 score using duration-adjusted
// count thresholds. A single pause over five seconds is disqualifying and
// forces the score to zero regardless of anything else.
func ScorePauses(b PauseBuckets, thr Thresholds) (float64, []string) {
	var feedback []string
	score := 10.0

	if b.Short > thr.PauseShort {
		score -= 2
		feedback = append(feedback, "Frequent brief hesitations detected mid-sentence.")
	}
	if b.Medium > thr.PauseMedium {
		score -= 3
		feedback = append(feedback, "Several noticeable mid-sentence pauses interrupt your flow.")
	}
	if b.Long > thr.PauseLong {
		score -= 4
		feedback = append(feedback, "Long mid-sentence pauses suggest losing your place. Practicing transitions will help.")
	}
	if b.VeryLong > 0 {
		score = 0
		feedback = append(feedback, fmt.Sprintf("A pause over %.0f seconds breaks the speech entirely. Rehearse until you can recover without stopping.", pauseLongMax))
	}
	if b.Total() > thr.PauseTotal {
		score = math.Max(0, score-5)
		feedback = append(feedback, "The overall number of mid-sentence pauses is high.")
	}

	score = math.Max(0, score)
	if len(feedback) == 0 {
		feedback = append(feedback, "Pausing is well controlled and placed at natural boundaries.")
	}
	return score, feedback
}
