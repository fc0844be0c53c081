package content

import (
	"strings"

	"github.com/rostrumhq/rostrum/internal/evaluate"
	"github.com/rostrumhq/rostrum/pkg/nlp"
)

// Discourse markers checked in the opening and closing stretches of a talk.
var (
	purposeIndicators = []string{
		"purpose", "goal", "aim", "objective", "today", "discuss",
		"explain", "demonstrate", "show", "present", "introduce",
	}
	conclusionIndicators = []string{
		"conclusion", "finally", "in summary", "to sum up", "therefore",
		"thus", "consequently", "in closing", "lastly",
	}
	transitionWords = map[string]struct{}{
		"however": {}, "moreover": {}, "furthermore": {},
		"additionally": {}, "therefore": {}, "thus": {},
	}
)

// The opening and closing windows are this many words long.
const edgeWindow = 50

// StructureStats carries the signals behind the structure score.
type StructureStats struct {
	HasPurpose        bool
	HasConclusion     bool
	AvgSentenceLength float64
	Transitions       int
}

// AnalyzeStructure checks a talk for a stated purpose near the start, a
// recognizable conclusion near the end, workable sentence lengths and
// enough transition words, and scores the result on the 0-100 scale.
func AnalyzeStructure(ann nlp.Annotation) (StructureStats, evaluate.ComponentScore) {
	words := make([]string, 0, len(ann.Tokens))
	for _, tok := range ann.Tokens {
		words = append(words, strings.ToLower(tok.Text))
	}

	var stats StructureStats
	stats.HasPurpose = containsAny(joinWindow(words, 0, edgeWindow), purposeIndicators)
	stats.HasConclusion = containsAny(joinWindow(words, len(words)-edgeWindow, len(words)), conclusionIndicators)

	if len(ann.Sentences) > 0 {
		total := 0
		for _, sent := range ann.Sentences {
			total += len(ann.TokensIn(sent))
		}
		stats.AvgSentenceLength = float64(total) / float64(len(ann.Sentences))
	}

	for _, w := range words {
		if _, ok := transitionWords[w]; ok {
			stats.Transitions++
		}
	}

	score := evaluate.ComponentScore{
		Name:  evaluate.ComponentStructure,
		Scale: 100,
	}

	if stats.HasPurpose {
		score.Value += 30
		score.Feedback = append(score.Feedback, "Clear purpose statement identified in the introduction")
	} else {
		score.Feedback = append(score.Feedback, "Consider adding a clear purpose statement at the beginning")
	}

	if stats.AvgSentenceLength >= 10 && stats.AvgSentenceLength <= 20 {
		score.Value += 20
		score.Feedback = append(score.Feedback, "Good sentence length for clarity")
	} else {
		score.Feedback = append(score.Feedback, "Consider varying sentence lengths for better flow")
	}

	if stats.HasConclusion {
		score.Value += 20
		score.Feedback = append(score.Feedback, "Clear conclusion identified")
	} else {
		score.Feedback = append(score.Feedback, "Consider adding a strong concluding statement")
	}

	if stats.Transitions >= 3 {
		score.Value += 30
		score.Feedback = append(score.Feedback, "Good use of transition words for coherence")
	} else {
		score.Feedback = append(score.Feedback, "Consider using more transition words to improve flow")
	}

	return stats, score
}

func joinWindow(words []string, start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(words) {
		end = len(words)
	}
	if start >= end {
		return ""
	}
	return strings.Join(words[start:end], " ")
}

func containsAny(text string, indicators []string) bool {
	for _, ind := range indicators {
		if strings.Contains(text, ind) {
			return true
		}
	}
	return false
}
