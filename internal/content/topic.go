package content

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/rostrumhq/rostrum/internal/evaluate"
	"github.com/rostrumhq/rostrum/pkg/nlp"
)

const (
	// Keyword matches beyond this count stop adding to the score.
	keywordMatchCap = 10

	// Jaro-Winkler similarity needed for a speech word to count as a
	// fuzzy match of a topic keyword. Catches inflections such as
	// "technologies" for "technology" without matching unrelated words.
	fuzzyMatchThreshold = 0.92

	// Score given when no topic was provided.
	neutralRelevance = 15.0
)

// TopicStats carries the signals behind the topic-relevance score.
type TopicStats struct {
	Keywords       []string
	KeywordMatches int
	FocusScore     float64
	Rating         string
}

// AnalyzeTopic measures how closely the talk sticks to the given topic.
// Topic keywords are matched fuzzily so inflected forms still count. An
// empty topic yields a neutral score.
func AnalyzeTopic(ann nlp.Annotation, topic string) (TopicStats, evaluate.ComponentScore) {
	if strings.TrimSpace(topic) == "" {
		return TopicStats{Rating: "N/A"}, evaluate.ComponentScore{
			Name:     evaluate.ComponentTopicRelevance,
			Value:    neutralRelevance,
			Scale:    20,
			Feedback: []string{"No topic specified for comparison"},
		}
	}

	keywords := extractKeywords(topic)

	var stats TopicStats
	stats.Keywords = keywords
	stats.KeywordMatches = countMatches(ann, keywords)
	stats.FocusScore = focusScore(ann, keywords)

	relevance := (float64(stats.KeywordMatches)*10 + stats.FocusScore) / 2
	if relevance > 20 {
		relevance = 20
	}
	stats.Rating = relevanceRating(relevance)

	return stats, evaluate.ComponentScore{
		Name:     evaluate.ComponentTopicRelevance,
		Value:    relevance,
		Scale:    20,
		Feedback: topicFeedback(stats, topic),
	}
}

// extractKeywords keeps the meaningful words of a topic title: alphabetic,
// not a stopword and longer than three characters.
func extractKeywords(topic string) []string {
	var keywords []string
	seen := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(topic)) {
		word = strings.Trim(word, ".,!?\"':;")
		if len(word) <= 3 || !isAlphabetic(word) || nlp.IsStopword(word) {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		keywords = append(keywords, word)
	}
	return keywords
}

func countMatches(ann nlp.Annotation, keywords []string) int {
	matches := 0
	for _, tok := range ann.Tokens {
		if !tok.IsAlpha {
			continue
		}
		if matchesAny(strings.ToLower(tok.Text), keywords) {
			matches++
			if matches >= keywordMatchCap {
				return keywordMatchCap
			}
		}
	}
	return matches
}

// focusScore is the share of sentences mentioning at least one topic
// keyword, mapped to 0-20.
func focusScore(ann nlp.Annotation, keywords []string) float64 {
	if len(ann.Sentences) == 0 {
		return 10.0
	}

	withKeyword := 0
	for _, sent := range ann.Sentences {
		for i := sent.Start; i < sent.End && i < len(ann.Tokens); i++ {
			if matchesAny(strings.ToLower(ann.Tokens[i].Text), keywords) {
				withKeyword++
				break
			}
		}
	}
	fraction := float64(withKeyword) / float64(len(ann.Sentences))
	if fraction > 1 {
		fraction = 1
	}
	return fraction * 20
}

func matchesAny(word string, keywords []string) bool {
	for _, kw := range keywords {
		if word == kw {
			return true
		}
		if matchr.JaroWinkler(word, kw, true) >= fuzzyMatchThreshold {
			return true
		}
	}
	return false
}

func relevanceRating(score float64) string {
	switch {
	case score >= 16:
		return "Highly Relevant"
	case score >= 12:
		return "Relevant"
	case score >= 8:
		return "Moderately Relevant"
	default:
		return "Needs Focus"
	}
}

func topicFeedback(stats TopicStats, topic string) []string {
	var fb []string
	if stats.KeywordMatches < 3 {
		fb = append(fb, fmt.Sprintf("Include more references to %q throughout your speech", topic))
	} else if stats.KeywordMatches > 7 {
		fb = append(fb, fmt.Sprintf("Excellent focus on the topic %q", topic))
	}
	if stats.FocusScore < 10 {
		fb = append(fb, "Try to maintain consistent focus on your main topic")
	} else if stats.FocusScore > 15 {
		fb = append(fb, "Great consistency in staying on topic")
	}
	if len(fb) == 0 {
		fb = append(fb, "Good topic relevance")
	}
	return fb
}

func isAlphabetic(word string) bool {
	for _, r := range word {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return len(word) > 0
}
