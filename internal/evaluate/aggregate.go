package evaluate

import (
	"log/slog"
	"math"
	"sort"
)

// Tier is the discrete performance band derived from the overall score.
type Tier string

const (
	TierOutstanding      Tier = "Outstanding"
	TierExcellent        Tier = "Excellent"
	TierVeryGood         Tier = "Very Good"
	TierGood             Tier = "Good"
	TierFair             Tier = "Fair"
	TierNeedsImprovement Tier = "Needs Improvement"
)

// tierFor maps an overall 0–100 score to its band.
func tierFor(score float64) Tier {
	switch {
	case score >= 90:
		return TierOutstanding
	case score >= 80:
		return TierExcellent
	case score >= 70:
		return TierVeryGood
	case score >= 60:
		return TierGood
	case score >= 50:
		return TierFair
	default:
		return TierNeedsImprovement
	}
}

// baseWeights is the weight table applied when no topic was supplied.
// Weights sum to 1.0.
var baseWeights = map[Component]float64{
	ComponentFillerWords:     0.10,
	ComponentProficiency:     0.10,
	ComponentVoiceModulation: 0.15,
	ComponentGrammar:         0.15,
	ComponentVocabulary:      0.10,
	ComponentStructure:       0.15,
	ComponentPronunciation:   0.15,
	ComponentEmphasis:        0.10,
}

// topicWeight is allocated to topic relevance when a topic was supplied;
// all other weights are re-normalised by the complement.
const topicWeight = 0.10

// neutralDefaults are the 0–100 substitutes for components with no usable
// score. Filler words default above the midpoint: a missing filler analysis
// means no evidence of a problem, not an average performance.
var neutralDefaults = map[Component]float64{
	ComponentFillerWords: 70,
}

const defaultNeutral = 50

// strengthFloor and weaknessCeiling bound strength/improvement selection on
// the normalised 0–100 scale.
const (
	strengthFloor    = 75.0
	weaknessCeiling  = 60.0
	maxStrengths     = 3
	maxAreas         = 4
	maxSuggestions   = 3
	overallPrecision = 10 // one decimal
)

// strengthText names what went well per component.
var strengthText = map[Component]string{
	ComponentFillerWords:     "Minimal filler words",
	ComponentProficiency:     "Excellent fluency",
	ComponentVoiceModulation: "Engaging voice modulation",
	ComponentGrammar:         "Strong grammar",
	ComponentVocabulary:      "Rich vocabulary",
	ComponentStructure:       "Well-structured speech",
	ComponentPronunciation:   "Clear pronunciation",
	ComponentEmphasis:        "Effective emphasis",
	ComponentTopicRelevance:  "Strong topic relevance",
}

// areaText names the improvement area per component.
var areaText = map[Component]string{
	ComponentFillerWords:     "Reducing filler word usage",
	ComponentProficiency:     "Speaking fluency and pacing",
	ComponentVoiceModulation: "Voice modulation and pitch variation",
	ComponentGrammar:         "Grammar accuracy",
	ComponentVocabulary:      "Vocabulary diversity",
	ComponentStructure:       "Speech organization and structure",
	ComponentPronunciation:   "Pronunciation clarity",
	ComponentEmphasis:        "Emphasis of key points",
	ComponentTopicRelevance:  "Staying on topic",
}

// suggestionText is the canned improvement tip per component.
var suggestionText = map[Component]string{
	ComponentFillerWords:     "Reduce filler words like 'um', 'uh', and 'like' for better fluency",
	ComponentProficiency:     "Work on reducing pauses and improving speech flow",
	ComponentVoiceModulation: "Practice varying your pitch and volume for better engagement",
	ComponentGrammar:         "Review grammar fundamentals and sentence structure",
	ComponentVocabulary:      "Expand your vocabulary with more sophisticated words",
	ComponentStructure:       "Improve speech organization with a clear introduction, body, and conclusion",
	ComponentPronunciation:   "Focus on clearer articulation of words",
	ComponentEmphasis:        "Emphasize key points more effectively with voice variation",
	ComponentTopicRelevance:  "Stay more focused on the main topic throughout your speech",
}

// Result is the complete evaluation of one speech performance.
type Result struct {
	// OverallScore is the weighted 0–100 score, rounded to one decimal.
	OverallScore float64

	// Tier is the performance band for OverallScore.
	Tier Tier

	// Components maps each component to its score on its native scale.
	Components map[Component]ComponentScore

	// Breakdown maps each weighted component to its normalised 0–100 score,
	// including substituted neutral defaults.
	Breakdown map[Component]float64

	// Degraded lists components whose analyzers ran degraded or produced
	// nothing, with reasons.
	Degraded map[Component]string

	// Strengths, AreasForImprovement, and Suggestions are the generated
	// feedback lists.
	Strengths           []string
	AreasForImprovement []string
	Suggestions         []string
}

// Aggregate combines analyzer outcomes into a Result. The computation is a
// pure function of the outcome set: outcome arrival order never affects the
// result, and nothing persists across calls.
//
// hasTopic selects the nine-component weight table that allocates weight to
// topic relevance; without a topic the topic relevance outcome is ignored
// even if present.
func Aggregate(outcomes []Outcome, hasTopic bool) Result {
	res := Result{
		Components: make(map[Component]ComponentScore),
		Breakdown:  make(map[Component]float64),
		Degraded:   make(map[Component]string),
	}

	for _, o := range outcomes {
		name := o.Score.Name
		if !name.IsValid() {
			slog.Warn("aggregate: dropping outcome with unknown component", "component", string(name))
			continue
		}
		switch o.Status {
		case StatusSuccess:
			res.Components[name] = o.Score
		case StatusDegraded:
			res.Components[name] = o.Score
			res.Degraded[name] = o.Reason
		case StatusUnavailable:
			res.Degraded[name] = o.Reason
		}
	}

	weights := weightTable(hasTopic)

	var overall float64
	for name, weight := range weights {
		norm := neutralFor(name)
		if score, ok := res.Components[name]; ok {
			norm = score.Normalized()
		}
		res.Breakdown[name] = math.Round(norm*overallPrecision) / overallPrecision
		overall += norm * weight
	}

	res.OverallScore = math.Round(overall*overallPrecision) / overallPrecision
	res.Tier = tierFor(res.OverallScore)
	res.Strengths = strengths(res.Breakdown)
	res.AreasForImprovement = areas(res.Breakdown)
	res.Suggestions = suggestions(res.Breakdown)
	return res
}

// weightTable returns the active weight table. With a topic, every base
// weight is scaled by 0.9 and the freed 0.10 goes to topic relevance.
func weightTable(hasTopic bool) map[Component]float64 {
	if !hasTopic {
		return baseWeights
	}
	w := make(map[Component]float64, len(baseWeights)+1)
	for name, weight := range baseWeights {
		w[name] = weight * (1 - topicWeight)
	}
	w[ComponentTopicRelevance] = topicWeight
	return w
}

func neutralFor(name Component) float64 {
	if v, ok := neutralDefaults[name]; ok {
		return v
	}
	return defaultNeutral
}

// rankedComponents returns the breakdown's components sorted by normalised
// score, descending, with name as the tiebreaker for determinism.
func rankedComponents(breakdown map[Component]float64) []Component {
	names := make([]Component, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if breakdown[names[i]] != breakdown[names[j]] {
			return breakdown[names[i]] > breakdown[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

func strengths(breakdown map[Component]float64) []string {
	var out []string
	for _, name := range rankedComponents(breakdown) {
		if breakdown[name] < strengthFloor || len(out) >= maxStrengths {
			break
		}
		out = append(out, strengthText[name])
	}
	if len(out) == 0 {
		out = append(out, "Clear communication and good effort")
	}
	return out
}

func areas(breakdown map[Component]float64) []string {
	ranked := rankedComponents(breakdown)
	var out []string
	// Walk from the weakest end.
	for i := len(ranked) - 1; i >= 0 && len(out) < maxAreas; i-- {
		name := ranked[i]
		if breakdown[name] >= weaknessCeiling {
			break
		}
		out = append(out, areaText[name])
	}
	if len(out) == 0 {
		out = append(out, "Continue refining overall delivery")
	}
	return out
}

func suggestions(breakdown map[Component]float64) []string {
	ranked := rankedComponents(breakdown)
	var out []string
	for i := len(ranked) - 1; i >= 0 && len(out) < maxSuggestions; i-- {
		name := ranked[i]
		if breakdown[name] >= weaknessCeiling {
			break
		}
		out = append(out, suggestionText[name])
	}
	return out
}
