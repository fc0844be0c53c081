package config

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rostrumhq/rostrum/pkg/asr"
	"github.com/rostrumhq/rostrum/pkg/nlp"
)

// ErrEngineNotRegistered is returned by Create* methods when no factory has
// been registered under the requested engine name.
var ErrEngineNotRegistered = errors.New("config: engine not registered")

// Registry maps engine names to their constructor functions. It is safe for
// concurrent use.
type Registry struct {
	mu          sync.RWMutex
	transcriber map[string]func(TranscriberConfig) (asr.Transcriber, error)
	annotator   map[string]func(AnnotatorConfig) (nlp.Annotator, error)
}

// NewRegistry returns an empty, ready-to-use [Registry].
func NewRegistry() *Registry {
	return &Registry{
		transcriber: make(map[string]func(TranscriberConfig) (asr.Transcriber, error)),
		annotator:   make(map[string]func(AnnotatorConfig) (nlp.Annotator, error)),
	}
}

// RegisterTranscriber registers a recognition engine factory under name.
// Subsequent calls with the same name overwrite the previous registration.
func (r *Registry) RegisterTranscriber(name string, factory func(TranscriberConfig) (asr.Transcriber, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcriber[name] = factory
}

// RegisterAnnotator registers an NLP annotator factory under name.
func (r *Registry) RegisterAnnotator(name string, factory func(AnnotatorConfig) (nlp.Annotator, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.annotator[name] = factory
}

// CreateTranscriber instantiates a recognition engine using the factory
// registered under cfg.Name. Returns [ErrEngineNotRegistered] if no factory
// has been registered for that name.
func (r *Registry) CreateTranscriber(cfg TranscriberConfig) (asr.Transcriber, error) {
	r.mu.RLock()
	factory, ok := r.transcriber[cfg.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: transcriber/%q", ErrEngineNotRegistered, cfg.Name)
	}
	return factory(cfg)
}

// CreateAnnotator instantiates an annotator using the factory registered
// under cfg.Name.
func (r *Registry) CreateAnnotator(cfg AnnotatorConfig) (nlp.Annotator, error) {
	r.mu.RLock()
	factory, ok := r.annotator[cfg.Name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: annotator/%q", ErrEngineNotRegistered, cfg.Name)
	}
	return factory(cfg)
}
