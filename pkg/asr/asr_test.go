package asr_test

import (
	"testing"

	"github.com/rostrumhq/rostrum/pkg/asr"
)

func TestTranscript_Words(t *testing.T) {
	t.Parallel()
	tr := asr.Transcript{Segments: []asr.Segment{
		{Words: []asr.Word{{Text: "one", Start: 0, End: 0.4}, {Text: "two", Start: 0.5, End: 0.9}}},
		{},
		{Words: []asr.Word{{Text: "three", Start: 2.0, End: 2.4}}},
	}}

	words := tr.Words()
	if len(words) != 3 {
		t.Fatalf("got %d words, want 3", len(words))
	}
	if words[0].Text != "one" || words[2].Text != "three" {
		t.Errorf("words = %+v", words)
	}
	if words[2].Start != 2.0 {
		t.Errorf("start = %v, want segment order preserved", words[2].Start)
	}
}

func TestTranscript_WordsEmpty(t *testing.T) {
	t.Parallel()
	if got := (asr.Transcript{Text: "text only"}).Words(); got != nil {
		t.Errorf("Words = %v, want nil for a text-only transcript", got)
	}
}
