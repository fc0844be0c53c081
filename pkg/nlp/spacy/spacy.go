// Package spacy provides an nlp.Annotator backed by a spaCy HTTP sidecar.
//
// The sidecar exposes a single POST /annotate endpoint that accepts
// {"text": ...} and returns the document's tokens, sentences, noun chunks,
// and entities in the JSON shape mirrored by the response types below.
package spacy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rostrumhq/rostrum/pkg/nlp"
)

// Compile-time assertion that Client satisfies nlp.Annotator.
var _ nlp.Annotator = (*Client)(nil)

const defaultTimeout = 60 * time.Second

// Client talks to a spaCy annotation sidecar over HTTP.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// Option is a functional option for Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (60 s timeout).
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.httpc = c }
}

// New creates a Client for the sidecar at baseURL (e.g. "http://localhost:8090").
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("spacy: baseURL must not be empty")
	}
	c := &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

type annotateRequest struct {
	Text string `json:"text"`
}

type tokenJSON struct {
	Text    string `json:"text"`
	Lemma   string `json:"lemma"`
	POS     string `json:"pos"`
	Dep     string `json:"dep"`
	Head    int    `json:"head"`
	IsAlpha bool   `json:"is_alpha"`
	IsStop  bool   `json:"is_stop"`
}

type spanJSON struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Text  string `json:"text"`
	Label string `json:"label,omitempty"`
}

type annotateResponse struct {
	Tokens     []tokenJSON `json:"tokens"`
	Sentences  []spanJSON  `json:"sentences"`
	NounChunks []spanJSON  `json:"noun_chunks"`
	Entities   []spanJSON  `json:"entities"`
}

// Annotate sends the text to the sidecar and converts the response.
func (c *Client) Annotate(ctx context.Context, text string) (nlp.Annotation, error) {
	payload, err := json.Marshal(annotateRequest{Text: text})
	if err != nil {
		return nlp.Annotation{}, fmt.Errorf("spacy: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/annotate", bytes.NewReader(payload))
	if err != nil {
		return nlp.Annotation{}, fmt.Errorf("spacy: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nlp.Annotation{}, fmt.Errorf("spacy: annotate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nlp.Annotation{}, fmt.Errorf("spacy: annotate: unexpected status %s", resp.Status)
	}

	var out annotateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nlp.Annotation{}, fmt.Errorf("spacy: decode response: %w", err)
	}

	ann := nlp.Annotation{}
	for _, t := range out.Tokens {
		ann.Tokens = append(ann.Tokens, nlp.Token{
			Text:    t.Text,
			Lemma:   t.Lemma,
			POS:     t.POS,
			Dep:     t.Dep,
			Head:    t.Head,
			IsAlpha: t.IsAlpha,
			IsStop:  t.IsStop,
		})
	}
	for _, s := range out.Sentences {
		ann.Sentences = append(ann.Sentences, nlp.Sentence{Start: s.Start, End: s.End, Text: s.Text})
	}
	for _, s := range out.NounChunks {
		ann.NounChunks = append(ann.NounChunks, nlp.Span{Start: s.Start, End: s.End, Text: s.Text})
	}
	for _, e := range out.Entities {
		ann.Entities = append(ann.Entities, nlp.Entity{Start: e.Start, End: e.End, Text: e.Text, Label: e.Label})
	}
	return ann, nil
}
