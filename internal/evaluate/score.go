// Package evaluate defines the component score model and the aggregator that
// combines analyzer outputs into one overall evaluation.
//
// Every analyzer produces exactly one ComponentScore on its native scale.
// The aggregator normalises those to 0–100, applies a fixed weight table,
// and derives the performance tier, strengths, improvement areas, and
// suggestions. Analyzers that failed or ran degraded are represented by a
// typed Outcome rather than an exception-style fallback, so the substitution
// of neutral defaults is a visible branch.
package evaluate

import "fmt"

// Component identifies one scored dimension of a speech performance.
type Component string

const (
	ComponentFillerWords     Component = "filler_words"
	ComponentProficiency     Component = "proficiency"
	ComponentVoiceModulation Component = "voice_modulation"
	ComponentGrammar         Component = "grammar"
	ComponentVocabulary      Component = "vocabulary"
	ComponentStructure       Component = "structure"
	ComponentPronunciation   Component = "pronunciation"
	ComponentEmphasis        Component = "emphasis"
	ComponentTopicRelevance  Component = "topic_relevance"
)

// IsValid reports whether c is a recognised component.
func (c Component) IsValid() bool {
	switch c {
	case ComponentFillerWords, ComponentProficiency, ComponentVoiceModulation,
		ComponentGrammar, ComponentVocabulary, ComponentStructure,
		ComponentPronunciation, ComponentEmphasis, ComponentTopicRelevance:
		return true
	}
	return false
}

// ComponentScore is one analyzer's bounded sub-score with its feedback.
type ComponentScore struct {
	// Name identifies the component.
	Name Component

	// Value is the score on the component's native scale.
	Value float64

	// Scale is the maximum of the native scale (10, 20, 50, or 100).
	Scale float64

	// Feedback holds human-readable observations, one per breakpoint the
	// underlying ratio crossed.
	Feedback []string
}

// Normalized returns the score rescaled to 0–100 and clamped into range.
// Out-of-range analyzer output is clamped rather than rejected; a scoring
// bug must never abort aggregation.
func (s ComponentScore) Normalized() float64 {
	if s.Scale <= 0 {
		return 0
	}
	v := s.Value / s.Scale * 100
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Status classifies how an analyzer run concluded.
type Status int

const (
	// StatusSuccess means the analyzer produced a full-fidelity score.
	StatusSuccess Status = iota

	// StatusDegraded means the analyzer produced a score from incomplete
	// input (e.g. missing word timestamps) or substituted its documented
	// fallback after an internal failure.
	StatusDegraded

	// StatusUnavailable means the analyzer produced no score at all; the
	// aggregator substitutes the component's neutral default.
	StatusUnavailable
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusDegraded:
		return "degraded"
	case StatusUnavailable:
		return "unavailable"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Outcome is the typed result of one analyzer run.
type Outcome struct {
	Status Status

	// Score is meaningful for StatusSuccess and StatusDegraded.
	Score ComponentScore

	// Reason explains a degraded or unavailable outcome.
	Reason string
}

// Success wraps a full-fidelity score.
func Success(score ComponentScore) Outcome {
	return Outcome{Status: StatusSuccess, Score: score}
}

// Degraded wraps a reduced-fidelity score with the reason fidelity was lost.
func Degraded(score ComponentScore, reason string) Outcome {
	return Outcome{Status: StatusDegraded, Score: score, Reason: reason}
}

// Unavailable marks an analyzer that produced nothing usable.
func Unavailable(name Component, reason string) Outcome {
	return Outcome{
		Status: StatusUnavailable,
		Score:  ComponentScore{Name: name},
		Reason: reason,
	}
}
