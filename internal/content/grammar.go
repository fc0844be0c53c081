// Package content scores the linguistic side of a talk: grammar, word
// selection, discourse structure and topic relevance. It works on the
// annotation produced by a pkg/nlp Annotator.
package content

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rostrumhq/rostrum/internal/evaluate"
	"github.com/rostrumhq/rostrum/pkg/nlp"
)

// Words shorter than this never count as advanced vocabulary.
const advancedWordLength = 7

// A word used more than this often counts as repetitive.
const repetitionLimit = 3

// basicWords are common fillers of written English that do not count as
// advanced vocabulary regardless of length.
var basicWords = map[string]struct{}{
	"good": {}, "bad": {}, "nice": {}, "thing": {}, "stuff": {},
	"big": {}, "small": {}, "very": {}, "really": {}, "like": {},
	"said": {}, "went": {}, "got": {}, "put": {}, "took": {},
	"made": {}, "did": {}, "get": {}, "know": {},
}

// GrammarStats carries the raw counts behind the grammar score.
type GrammarStats struct {
	SubjectVerbIssues int
	PrepositionIssues int
	Sentences         int
}

// Issues is the total number of detected grammar problems.
func (g GrammarStats) Issues() int {
	return g.SubjectVerbIssues + g.PrepositionIssues
}

// VocabularyStats carries the raw counts behind the word-selection score.
type VocabularyStats struct {
	TotalWords       int
	UniqueWords      int
	LexicalDiversity float64
	AdvancedWords    int
	RepeatedWords    []string
}

// AnalyzeGrammar inspects the dependency parse for long-distance
// subject-verb pairs and dangling prepositions, and scores the result on
// the 0-50 grammar scale.
func AnalyzeGrammar(ann nlp.Annotation) (GrammarStats, evaluate.ComponentScore) {
	var stats GrammarStats
	stats.Sentences = len(ann.Sentences)

	// childCount[i] is the number of tokens whose head is token i.
	childCount := make([]int, len(ann.Tokens))
	for _, tok := range ann.Tokens {
		if tok.Head >= 0 && tok.Head < len(ann.Tokens) {
			childCount[tok.Head]++
		}
	}

	for _, sent := range ann.Sentences {
		for i := sent.Start; i < sent.End && i < len(ann.Tokens); i++ {
			tok := ann.Tokens[i]

			if strings.Contains(tok.Dep, "subj") {
				for j := sent.Start; j < sent.End && j < len(ann.Tokens); j++ {
					if ann.Tokens[j].POS == "VERB" && dependsOn(ann.Tokens, j, i) && abs(i-j) > 5 {
						stats.SubjectVerbIssues++
					}
				}
			}

			if tok.Dep == "prep" && tok.Head >= 0 && tok.Head < len(ann.Tokens) {
				headPOS := ann.Tokens[tok.Head].POS
				if (headPOS == "VERB" || headPOS == "NOUN") && childCount[i] == 0 {
					stats.PrepositionIssues++
				}
			}
		}
	}

	score := evaluate.ComponentScore{
		Name:  evaluate.ComponentGrammar,
		Value: float64(grammarScore(stats)),
		Scale: 50,
	}
	score.Feedback = grammarFeedback(score.Value)
	return stats, score
}

// dependsOn reports whether token anc is an ancestor of token idx in the
// dependency tree.
func dependsOn(tokens []nlp.Token, idx, anc int) bool {
	seen := 0
	for cur := idx; cur >= 0 && cur < len(tokens); cur = tokens[cur].Head {
		if cur == anc {
			return true
		}
		if tokens[cur].Head == cur {
			break
		}
		if seen++; seen > len(tokens) {
			break
		}
	}
	return false
}

func grammarScore(stats GrammarStats) int {
	if stats.Sentences == 0 {
		return 25
	}
	ratio := float64(stats.Issues()) / float64(stats.Sentences)
	switch {
	case ratio < 0.1:
		return 50
	case ratio < 0.2:
		return 40
	case ratio < 0.3:
		return 30
	case ratio < 0.5:
		return 20
	default:
		return 10
	}
}

func grammarFeedback(score float64) []string {
	switch {
	case score >= 40:
		return []string{"Grammar is generally correct and well structured"}
	case score >= 20:
		return []string{"Some grammatical issues detected; watch subject-verb agreement and preposition usage"}
	default:
		return []string{"Several grammatical errors detected; consider reviewing basic grammar rules"}
	}
}

// AnalyzeVocabulary measures lexical diversity, advanced word usage and
// repetition over the content words of the annotation, and scores the
// result on the 0-50 word-selection scale.
func AnalyzeVocabulary(ann nlp.Annotation) (VocabularyStats, evaluate.ComponentScore) {
	counts := make(map[string]int)
	var stats VocabularyStats
	for _, tok := range ann.Tokens {
		if !tok.IsAlpha || tok.IsStop {
			continue
		}
		word := strings.ToLower(tok.Text)
		counts[word]++
		stats.TotalWords++
	}

	stats.UniqueWords = len(counts)
	if stats.TotalWords > 0 {
		stats.LexicalDiversity = float64(stats.UniqueWords) / float64(stats.TotalWords)
	}

	for word, n := range counts {
		if n > repetitionLimit {
			stats.RepeatedWords = append(stats.RepeatedWords, word)
		}
		if len(word) > advancedWordLength {
			if _, basic := basicWords[word]; !basic {
				stats.AdvancedWords++
			}
		}
	}
	sort.Strings(stats.RepeatedWords)

	score := evaluate.ComponentScore{
		Name:  evaluate.ComponentVocabulary,
		Value: float64(vocabularyScore(stats)),
		Scale: 50,
	}
	score.Feedback = vocabularyFeedback(stats)
	return stats, score
}

func vocabularyScore(stats VocabularyStats) int {
	score := 0

	switch {
	case stats.LexicalDiversity > 0.7:
		score += 20
	case stats.LexicalDiversity > 0.5:
		score += 15
	case stats.LexicalDiversity > 0.3:
		score += 10
	default:
		score += 5
	}

	if stats.TotalWords > 0 {
		ratio := float64(stats.AdvancedWords) / float64(stats.TotalWords)
		switch {
		case ratio > 0.2:
			score += 20
		case ratio > 0.1:
			score += 15
		case ratio > 0.05:
			score += 10
		default:
			score += 5
		}
	}

	if len(stats.RepeatedWords) > 5 {
		score -= 10
	} else if len(stats.RepeatedWords) > 3 {
		score -= 5
	}
	return max(0, score)
}

func vocabularyFeedback(stats VocabularyStats) []string {
	var fb []string
	if stats.LexicalDiversity > 0.5 {
		fb = append(fb, "Good vocabulary diversity and word choice")
	} else {
		fb = append(fb, "Consider using a wider range of vocabulary")
	}
	if len(stats.RepeatedWords) > repetitionLimit {
		sample := stats.RepeatedWords
		if len(sample) > 3 {
			sample = sample[:3]
		}
		fb = append(fb, fmt.Sprintf("Repetitive use of words detected: %s", strings.Join(sample, ", ")))
	}
	switch {
	case stats.AdvancedWords > 10:
		fb = append(fb, "Excellent use of advanced vocabulary")
	case stats.AdvancedWords > 5:
		fb = append(fb, "Good use of complex words")
	default:
		fb = append(fb, "Consider using more sophisticated vocabulary where appropriate")
	}
	return fb
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
