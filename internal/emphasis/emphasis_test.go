package emphasis_test

import (
	"math"
	"strings"
	"testing"

	"github.com/rostrumhq/rostrum/internal/acoustic"
	"github.com/rostrumhq/rostrum/internal/emphasis"
	"github.com/rostrumhq/rostrum/internal/evaluate"
	"github.com/rostrumhq/rostrum/internal/timing"
	"github.com/rostrumhq/rostrum/pkg/nlp"
)

func tok(text string, stop bool) nlp.Token {
	return nlp.Token{Text: text, IsAlpha: true, IsStop: stop}
}

// talkAnnotation models "Climate change is the most important challenge for
// coastal cities today." with two noun chunks.
func talkAnnotation() nlp.Annotation {
	return nlp.Annotation{
		Tokens: []nlp.Token{
			tok("Climate", false), tok("change", false), tok("is", true),
			tok("the", true), tok("most", true), tok("important", false),
			tok("challenge", false), tok("for", true), tok("coastal", false),
			tok("cities", false), tok("today", false),
		},
		NounChunks: []nlp.Span{
			{Start: 0, End: 2, Text: "Climate change"},
			{Start: 8, End: 10, Text: "coastal cities"},
		},
	}
}

// talkWords times the same eleven words at two per second.
func talkWords() []timing.TimedWord {
	texts := []string{
		"Climate", "change", "is", "the", "most", "important",
		"challenge", "for", "coastal", "cities", "today.",
	}
	words := make([]timing.TimedWord, len(texts))
	for i, text := range texts {
		start := 0.5 * float64(i)
		words[i] = timing.TimedWord{Text: text, Start: start, End: start + 0.4}
	}
	return words
}

func TestAnalyze_KeyPhraseExtraction(t *testing.T) {
	t.Parallel()
	ann := nlp.Annotation{
		Tokens: []nlp.Token{
			tok("the", true), tok("team", false), tok("Paris", false),
			tok("of", true), tok("the", true), tok("AI", false),
		},
		NounChunks: []nlp.Span{
			{Start: 0, End: 2, Text: "the team"},
			{Start: 2, End: 3, Text: "Paris"},    // single token, dropped
			{Start: 3, End: 5, Text: "of the"},   // all stopwords, dropped
			{Start: 0, End: 2, Text: "The Team"}, // duplicate, dropped
		},
		Entities: []nlp.Entity{
			{Start: 2, End: 3, Text: "Paris", Label: "GPE"},
			{Start: 5, End: 6, Text: "AI", Label: "ORG"}, // too short, dropped
		},
	}

	stats, score := emphasis.Analyze(ann, nil, acoustic.Emphasis{}, 60)

	want := []string{"the team", "paris"}
	if len(stats.KeyPhrases) != len(want) {
		t.Fatalf("key phrases = %v, want %v", stats.KeyPhrases, want)
	}
	for i, kp := range want {
		if stats.KeyPhrases[i] != kp {
			t.Errorf("key phrase %d = %q, want %q", i, stats.KeyPhrases[i], kp)
		}
	}
	if score.Value != 0 {
		t.Errorf("score = %v, want 0 with no emphasis segments", score.Value)
	}
	joined := strings.Join(score.Feedback, " ")
	if !strings.Contains(joined, "Little vocal emphasis") {
		t.Errorf("feedback = %v, missing low-score line", score.Feedback)
	}
	if !strings.Contains(joined, "vocal variety") {
		t.Errorf("feedback = %v, missing low-density line", score.Feedback)
	}
}

func TestAnalyze_IndicatorWindowBecomesKeyPhrase(t *testing.T) {
	t.Parallel()
	stats, _ := emphasis.Analyze(talkAnnotation(), nil, acoustic.Emphasis{}, 60)

	want := "the most important challenge for coastal cities"
	for _, kp := range stats.KeyPhrases {
		if kp == want {
			return
		}
	}
	t.Errorf("key phrases = %v, missing indicator window %q", stats.KeyPhrases, want)
}

func TestAnalyze_CoverageWeightedScore(t *testing.T) {
	t.Parallel()
	em := acoustic.Emphasis{Segments: []acoustic.EmphasisSegment{
		{Start: 0, End: 0.9},   // "Climate change"
		{Start: 2.4, End: 3.4}, // "most important challenge"
	}}

	stats, score := emphasis.Analyze(talkAnnotation(), talkWords(), em, 6)

	wantEmphasized := []string{"Climate change", "most important challenge"}
	if len(stats.EmphasizedPhrases) != len(wantEmphasized) {
		t.Fatalf("emphasized = %v, want %v", stats.EmphasizedPhrases, wantEmphasized)
	}
	for i, ep := range wantEmphasized {
		if stats.EmphasizedPhrases[i] != ep {
			t.Errorf("emphasized %d = %q, want %q", i, stats.EmphasizedPhrases[i], ep)
		}
	}

	// Both segments land on key phrases; the "coastal cities" chunk goes
	// unstressed.
	if stats.Matched != 2 {
		t.Errorf("matched = %d, want 2", stats.Matched)
	}
	if math.Abs(stats.Coverage-2.0/3.0) > 1e-9 {
		t.Errorf("coverage = %v, want 2/3", stats.Coverage)
	}
	if math.Abs(stats.DensityPerMinute-20) > 1e-9 {
		t.Errorf("density = %v, want 20 per minute", stats.DensityPerMinute)
	}

	// 40*(2/3) + 30*1 + 30*(2/3), truncated.
	if score.Value != 76 {
		t.Errorf("score = %v, want 76", score.Value)
	}
	if score.Scale != 100 || score.Name != evaluate.ComponentEmphasis {
		t.Errorf("score name/scale = %q/%v", score.Name, score.Scale)
	}
	if !strings.Contains(strings.Join(score.Feedback, " "), "Effectively emphasized 2 key points") {
		t.Errorf("feedback = %v, missing match count line", score.Feedback)
	}
}

func TestAnalyze_SegmentsCoveringNoWordsAreDropped(t *testing.T) {
	t.Parallel()
	words := []timing.TimedWord{{Text: "a", Start: 0, End: 0.2}}
	em := acoustic.Emphasis{Segments: []acoustic.EmphasisSegment{
		{Start: 0, End: 0.3},  // covers only "a", too short to keep
		{Start: 5, End: 6},    // covers nothing
	}}

	stats, _ := emphasis.Analyze(nlp.Annotation{}, words, em, 10)
	if len(stats.EmphasizedPhrases) != 0 {
		t.Errorf("emphasized = %v, want none", stats.EmphasizedPhrases)
	}
	if stats.Segments != 2 {
		t.Errorf("segments = %d, want raw segment count", stats.Segments)
	}
}
