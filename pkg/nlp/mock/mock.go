// Package mock provides a test double for the nlp package interfaces.
//
// Use Annotator to return a fixed Annotation and inspect the texts that were
// submitted for analysis.
package mock

import (
	"context"
	"sync"

	"github.com/rostrumhq/rostrum/pkg/nlp"
)

// Annotator is a mock implementation of nlp.Annotator.
type Annotator struct {
	mu sync.Mutex

	// Result is the Annotation returned by Annotate.
	Result nlp.Annotation

	// Err, if non-nil, is returned as the error from Annotate.
	Err error

	// Texts records every text passed to Annotate.
	Texts []string
}

// Annotate records the call and returns Result, Err.
func (a *Annotator) Annotate(_ context.Context, text string) (nlp.Annotation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Texts = append(a.Texts, text)
	if a.Err != nil {
		return nlp.Annotation{}, a.Err
	}
	return a.Result, nil
}

// Reset clears all recorded texts. Thread-safe.
func (a *Annotator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Texts = nil
}

// Compile-time interface check.
var _ nlp.Annotator = (*Annotator)(nil)
