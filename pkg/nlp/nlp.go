// Package nlp defines the Annotator interface for linguistic analysis
// backends.
//
// An annotator takes cleaned transcript text (pause markers already
// stripped) and returns tokens with part-of-speech and dependency
// information, sentence boundaries, noun chunks, and named entities. The
// content scorers consume these annotations; they never parse text
// themselves.
//
// Implementations must be safe for concurrent use.
package nlp

import "context"

// Token is a single token with its linguistic attributes.
type Token struct {
	// Text is the token surface form.
	Text string

	// Lemma is the base form, or the lowercased surface form when the
	// backend does not lemmatise.
	Lemma string

	// POS is the coarse part-of-speech tag (Universal Dependencies style:
	// "NOUN", "VERB", "ADP", ...).
	POS string

	// Dep is the dependency relation to the head ("nsubj", "prep", ...).
	Dep string

	// Head is the index of the syntactic head token within the annotation's
	// Tokens slice. A root token points at itself.
	Head int

	// IsAlpha reports whether the token is purely alphabetic.
	IsAlpha bool

	// IsStop reports whether the token is a stopword.
	IsStop bool
}

// Sentence is a span of tokens forming one sentence.
type Sentence struct {
	// Start and End are token indices; the sentence covers Tokens[Start:End].
	Start int
	End   int

	// Text is the raw sentence text.
	Text string
}

// Span is a contiguous token span, used for noun chunks.
type Span struct {
	Start int
	End   int
	Text  string
}

// Entity is a named-entity span with its label.
type Entity struct {
	Start int
	End   int
	Text  string
	Label string
}

// Annotation is the complete linguistic analysis of one text.
type Annotation struct {
	Tokens     []Token
	Sentences  []Sentence
	NounChunks []Span
	Entities   []Entity
}

// TokensIn returns the tokens covered by the given sentence.
func (a Annotation) TokensIn(s Sentence) []Token {
	if s.Start < 0 || s.End > len(a.Tokens) || s.Start > s.End {
		return nil
	}
	return a.Tokens[s.Start:s.End]
}

// Annotator is the abstraction over any linguistic analysis backend.
type Annotator interface {
	// Annotate analyses the text and returns its annotation. Returns an
	// error only when the backend is unreachable or produced no usable
	// output; an empty text yields an empty annotation, not an error.
	Annotate(ctx context.Context, text string) (Annotation, error)
}
