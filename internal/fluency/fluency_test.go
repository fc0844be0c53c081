package fluency_test

import (
	"strings"
	"testing"

	"github.com/rostrumhq/rostrum/internal/evaluate"
	"github.com/rostrumhq/rostrum/internal/fluency"
	"github.com/rostrumhq/rostrum/internal/timing"
)

func timedWords(texts []string, spacing float64) []timing.TimedWord {
	words := make([]timing.TimedWord, len(texts))
	for i, t := range texts {
		start := float64(i) * spacing
		words[i] = timing.TimedWord{Text: t, Start: start, End: start + 0.2}
	}
	return words
}

// ── Filler counting ──────────────────────────────────────────────────────────

func TestCountFillers_Timed(t *testing.T) {
	t.Parallel()
	seq := timing.Sequence{
		Words: timedWords([]string{"Um,", "this", "is", "like", "a", "talk"}, 0.5),
	}
	stats := fluency.CountFillers(seq)

	if stats.Total != 2 {
		t.Errorf("total = %d, want 2", stats.Total)
	}
	if stats.TotalWords != 6 {
		t.Errorf("total words = %d, want 6", stats.TotalWords)
	}
	if stats.PerMinute[0] != 2 {
		t.Errorf("minute 0 count = %d, want 2", stats.PerMinute[0])
	}
	if len(stats.Occurrences) != 2 || stats.Occurrences[0].Word != "um" {
		t.Errorf("occurrences = %+v", stats.Occurrences)
	}
}

func TestCountFillers_MinuteBuckets(t *testing.T) {
	t.Parallel()
	seq := timing.Sequence{
		Words: []timing.TimedWord{
			{Text: "um", Start: 10, End: 10.2},
			{Text: "uh", Start: 70, End: 70.2},
			{Text: "ah", Start: 130, End: 130.2},
		},
	}
	stats := fluency.CountFillers(seq)
	for minute := 0; minute < 3; minute++ {
		if stats.PerMinute[minute] != 1 {
			t.Errorf("minute %d count = %d, want 1", minute, stats.PerMinute[minute])
		}
	}
}

func TestCountFillers_TextOnlyFallback(t *testing.T) {
	t.Parallel()
	seq := timing.Sequence{
		Text: "Um so this is " + timing.Marker(2.0) + " basically fine",
	}
	stats := fluency.CountFillers(seq)

	if stats.Total != 2 {
		t.Errorf("total = %d, want 2 (um, basically)", stats.Total)
	}
	// The marker words must not be scanned.
	if stats.TotalWords != 6 {
		t.Errorf("total words = %d, want 6", stats.TotalWords)
	}
	if stats.PerMinute[0] != 2 {
		t.Errorf("text-only fillers should all land in minute 0, got %v", stats.PerMinute)
	}
}

// ── Filler scoring ───────────────────────────────────────────────────────────

func TestScoreFillers_DensityBreakpoints(t *testing.T) {
	t.Parallel()
	thr := fluency.DefaultThresholds()

	cases := []struct {
		name    string
		total   int
		words   int
		want    float64
	}{
		{"clean", 0, 100, 10},
		{"low density", 2, 100, 8},
		{"moderate", 6, 100, 4},
		{"high", 12, 100, 2},
		{"fail", 20, 100, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stats := fluency.FillerStats{
				Total:      tc.total,
				TotalWords: tc.words,
				Density:    float64(tc.total) / float64(tc.words),
				PerMinute:  map[int]int{},
			}
			got := fluency.ScoreFillers(stats, thr)
			if got.Value != tc.want {
				t.Errorf("score = %v, want %v", got.Value, tc.want)
			}
			if got.Scale != 10 {
				t.Errorf("scale = %v, want 10", got.Scale)
			}
			if len(got.Feedback) == 0 {
				t.Error("feedback should never be empty")
			}
		})
	}
}

func TestScoreFillers_BurstPenalty(t *testing.T) {
	t.Parallel()
	thr := fluency.DefaultThresholds()

	// 5 fillers in 500 words is 1% density (base score 9), but all five land
	// in the same minute, exceeding the high-burst threshold of 4.
	stats := fluency.FillerStats{
		Total:      5,
		TotalWords: 500,
		Density:    0.01,
		PerMinute:  map[int]int{2: 5},
	}
	got := fluency.ScoreFillers(stats, thr)
	if got.Value != 6 {
		t.Errorf("score = %v, want 6 (9 minus burst penalty 3)", got.Value)
	}
	if !containsSubstring(got.Feedback, "cluster") {
		t.Errorf("feedback should mention clustering, got %v", got.Feedback)
	}
}

// ── Pause bucketing and scoring ──────────────────────────────────────────────

func TestBucketPauses_SkipsSentenceEnds(t *testing.T) {
	t.Parallel()
	seq := timing.Sequence{
		Pauses: []timing.PauseEvent{
			{Duration: 1.0},
			{Duration: 2.0, AfterSentenceEnd: true},
			{Duration: 2.0},
			{Duration: 4.0},
			{Duration: 6.0},
		},
	}
	b := fluency.BucketPauses(seq)

	if b.Short != 1 || b.Medium != 1 || b.Long != 1 || b.VeryLong != 1 {
		t.Errorf("buckets = %+v, want 1/1/1/1", b)
	}
	if b.Total() != 4 {
		t.Errorf("total = %d, want 4", b.Total())
	}
}

func TestScorePauses_VeryLongIsDisqualifying(t *testing.T) {
	t.Parallel()
	thr := fluency.DefaultThresholds()
	score, feedback := fluency.ScorePauses(fluency.PauseBuckets{VeryLong: 1}, thr)
	if score != 0 {
		t.Errorf("score = %v, want 0", score)
	}
	if len(feedback) == 0 {
		t.Error("feedback should explain the very long pause")
	}
}

func TestScorePauses_CleanSpeech(t *testing.T) {
	t.Parallel()
	thr := fluency.DefaultThresholds()
	score, feedback := fluency.ScorePauses(fluency.PauseBuckets{}, thr)
	if score != 10 {
		t.Errorf("score = %v, want 10", score)
	}
	if len(feedback) != 1 {
		t.Errorf("feedback = %v, want one positive line", feedback)
	}
}

func TestScorePauses_CumulativePenalties(t *testing.T) {
	t.Parallel()
	thr := fluency.DefaultThresholds()
	// Short over 3 (-2), medium over 2 (-3), total 9 over 8 (-5).
	b := fluency.PauseBuckets{Short: 5, Medium: 4}
	score, _ := fluency.ScorePauses(b, thr)
	if score != 0 {
		t.Errorf("score = %v, want 0", score)
	}
}

// ── Thresholds ───────────────────────────────────────────────────────────────

func TestResolveThresholds_Scaling(t *testing.T) {
	t.Parallel()

	def := fluency.DefaultThresholds()
	if def.Scaling != 1.0 || def.PauseTotal != 8 || def.FillerBurstHigh != 4 {
		t.Errorf("default thresholds = %+v", def)
	}

	half := fluency.ResolveThresholds("2-3.5 minutes")
	if half.Scaling != 0.5 {
		t.Errorf("scaling = %v, want 0.5", half.Scaling)
	}
	if half.PauseTotal != 4 {
		t.Errorf("scaled PauseTotal = %d, want 4", half.PauseTotal)
	}
	if half.FillerBurstModerate != 1 {
		t.Errorf("scaled FillerBurstModerate = %d, want 1", half.FillerBurstModerate)
	}

	// Longer than baseline never raises the allowances.
	long := fluency.ResolveThresholds("10-12 minutes")
	if long.Scaling != 1.0 {
		t.Errorf("scaling = %v, want 1.0", long.Scaling)
	}
}

func TestResolveThresholds_MalformedFallsBack(t *testing.T) {
	t.Parallel()
	for _, s := range []string{"", "soonish", "- minutes"} {
		thr := fluency.ResolveThresholds(s)
		if thr.Scaling != 1.0 {
			t.Errorf("ResolveThresholds(%q).Scaling = %v, want 1.0", s, thr.Scaling)
		}
	}
}

// ── Combined proficiency ─────────────────────────────────────────────────────

func TestAnalyze_CleanSpeech(t *testing.T) {
	t.Parallel()
	seq := timing.Sequence{
		Words: timedWords([]string{"today", "we", "examine", "renewable", "energy", "storage"}, 0.5),
	}
	filler, prof := fluency.Analyze(seq, "5-7 minutes")

	if filler.Name != evaluate.ComponentFillerWords {
		t.Errorf("filler component name = %q", filler.Name)
	}
	if filler.Value != 10 {
		t.Errorf("filler score = %v, want 10", filler.Value)
	}
	if prof.Name != evaluate.ComponentProficiency {
		t.Errorf("proficiency component name = %q", prof.Name)
	}
	if prof.Value != 20 {
		t.Errorf("proficiency = %v, want 20", prof.Value)
	}
	if prof.Scale != 20 {
		t.Errorf("proficiency scale = %v, want 20", prof.Scale)
	}
}

func TestAnalyze_WeightsFillerOverPauses(t *testing.T) {
	t.Parallel()
	// No fillers, but one disqualifying pause: proficiency should be the
	// filler weight alone, 10*0.6*2 = 12.
	seq := timing.Sequence{
		Words:  timedWords([]string{"steady", "words", "spoken", "clearly"}, 0.5),
		Pauses: []timing.PauseEvent{{Duration: 7.0}},
	}
	_, prof := fluency.Analyze(seq, "")
	if prof.Value != 12 {
		t.Errorf("proficiency = %v, want 12", prof.Value)
	}
}

func containsSubstring(lines []string, sub string) bool {
	for _, l := range lines {
		if strings.Contains(l, sub) {
			return true
		}
	}
	return false
}
