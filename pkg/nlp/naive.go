package nlp

import (
	"context"
	"strings"
	"unicode"
)

// Compile-time assertion that Naive satisfies Annotator.
var _ Annotator = (*Naive)(nil)

// naiveStopwords is a minimal English stopword list for the fallback
// annotator. A real deployment uses the spaCy sidecar; this keeps the
// pipeline scoreable when no sidecar is configured.
var naiveStopwords = map[string]bool{
	"a": true, "an": true, "the": true, "and": true, "or": true, "but": true,
	"if": true, "of": true, "at": true, "by": true, "for": true, "with": true,
	"about": true, "to": true, "from": true, "in": true, "on": true, "is": true,
	"are": true, "was": true, "were": true, "be": true, "been": true, "being": true,
	"have": true, "has": true, "had": true, "do": true, "does": true, "did": true,
	"i": true, "you": true, "he": true, "she": true, "it": true, "we": true,
	"they": true, "this": true, "that": true, "these": true, "those": true,
	"my": true, "your": true, "so": true, "not": true, "no": true, "as": true,
}

// IsStopword reports whether word is on the built-in English stopword
// list. The list is the same one the fallback annotator marks tokens with.
func IsStopword(word string) bool {
	return naiveStopwords[strings.ToLower(word)]
}

// Naive is a dependency-free Annotator that tokenises on whitespace, splits
// sentences on terminal punctuation, and marks stopwords from a small fixed
// list. It produces no POS tags, dependency labels, noun chunks, or entities,
// so scorers that need those treat its output as a degraded annotation.
type Naive struct{}

// Annotate implements Annotator.
func (Naive) Annotate(_ context.Context, text string) (Annotation, error) {
	var ann Annotation

	sentStart := 0
	flushSentence := func(end int, raw string) {
		if end > sentStart {
			ann.Sentences = append(ann.Sentences, Sentence{
				Start: sentStart,
				End:   end,
				Text:  strings.TrimSpace(raw),
			})
			sentStart = end
		}
	}

	var sentText strings.Builder
	for _, field := range strings.Fields(text) {
		sentText.WriteString(field)
		sentText.WriteByte(' ')

		word := strings.TrimFunc(field, func(r rune) bool {
			return unicode.IsPunct(r)
		})
		if word == "" {
			continue
		}
		lower := strings.ToLower(word)
		idx := len(ann.Tokens)
		ann.Tokens = append(ann.Tokens, Token{
			Text:    word,
			Lemma:   lower,
			Head:    idx,
			IsAlpha: isAlpha(word),
			IsStop:  naiveStopwords[lower],
		})

		if strings.HasSuffix(field, ".") || strings.HasSuffix(field, "!") || strings.HasSuffix(field, "?") {
			flushSentence(len(ann.Tokens), sentText.String())
			sentText.Reset()
		}
	}
	flushSentence(len(ann.Tokens), sentText.String())

	return ann, nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return len(s) > 0
}
