// Package pipeline orchestrates a full speech evaluation: transcription,
// timing normalisation, concurrent analyzer fan-out, and score aggregation.
//
// The three analyzer stages (fluency, acoustics, content) run in parallel
// via errgroup. A failing or panicking stage never aborts its siblings; it
// degrades to typed fallback outcomes and the aggregator substitutes neutral
// defaults. Only transcription failure and pipeline timeout are fatal. At
// advanced depth a final stage maps the detected emphasis segments onto the
// transcript's key phrases once the acoustic and content stages have joined.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rostrumhq/rostrum/internal/acoustic"
	"github.com/rostrumhq/rostrum/internal/content"
	"github.com/rostrumhq/rostrum/internal/emphasis"
	"github.com/rostrumhq/rostrum/internal/evaluate"
	"github.com/rostrumhq/rostrum/internal/fluency"
	"github.com/rostrumhq/rostrum/internal/observe"
	"github.com/rostrumhq/rostrum/internal/pronounce"
	"github.com/rostrumhq/rostrum/internal/prosody"
	"github.com/rostrumhq/rostrum/internal/timing"
	"github.com/rostrumhq/rostrum/pkg/asr"
	"github.com/rostrumhq/rostrum/pkg/audio"
	"github.com/rostrumhq/rostrum/pkg/nlp"
)

// Depth selects how many analyzers run.
type Depth string

const (
	// DepthBasic runs fluency and content analysis only.
	DepthBasic Depth = "basic"
	// DepthStandard adds pronunciation scoring.
	DepthStandard Depth = "standard"
	// DepthAdvanced adds emphasis detection and topic relevance.
	DepthAdvanced Depth = "advanced"
)

// IsValid reports whether d is a recognised analysis depth.
func (d Depth) IsValid() bool {
	switch d {
	case DepthBasic, DepthStandard, DepthAdvanced:
		return true
	}
	return false
}

func (d Depth) includesPronunciation() bool { return d == DepthStandard || d == DepthAdvanced }
func (d Depth) includesEmphasis() bool      { return d == DepthAdvanced }
func (d Depth) includesTopic() bool         { return d == DepthAdvanced }

// Sentinel errors returned by [Pipeline.Evaluate].
var (
	ErrEmptyRecording = errors.New("pipeline: recording has no samples")
	ErrTranscription  = errors.New("pipeline: transcription failed")
)

// Recognition engines run on 16 kHz mono input.
const transcribeRate = 16000

// defaultTimeout bounds a single evaluation end to end.
const defaultTimeout = 5 * time.Minute

// Request describes one recording to evaluate.
type Request struct {
	Recording audio.Recording

	// Topic is the expected subject of the talk. Empty means no topic
	// relevance scoring.
	Topic string

	// ExpectedDuration is the target length of the talk, e.g. "5-7 minutes".
	// Fluency thresholds scale down for shorter targets.
	ExpectedDuration string

	// Depth selects the analyzer set. Empty defaults to DepthStandard.
	Depth Depth
}

// Evaluation is the full result of one pipeline run.
type Evaluation struct {
	// Transcript is the raw text with inline pause markers.
	Transcript string

	// PlainTranscript is the text with pause markers stripped.
	PlainTranscript string

	DurationSeconds float64
	WordsPerMinute  float64

	Quality             acoustic.Quality
	PronunciationRating string
	TopicRating         string

	Result evaluate.Result

	Elapsed time.Duration
}

// Pipeline wires a recognition engine and an NLP annotator to the analyzer
// set and the aggregator. Safe for concurrent use.
type Pipeline struct {
	transcriber asr.Transcriber
	annotator   nlp.Annotator
	metrics     *observe.Metrics
	log         *slog.Logger
	timeout     time.Duration
}

// Option is a functional option for [New].
type Option func(*Pipeline)

// WithAnnotator sets the NLP annotator. Defaults to the dependency-free
// fallback annotator.
func WithAnnotator(a nlp.Annotator) Option {
	return func(p *Pipeline) { p.annotator = a }
}

// WithTimeout bounds one evaluation end to end. Defaults to 5 minutes.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// WithMetrics sets the metrics instance. Defaults to the package-level
// instance from observe.
func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// New creates a [Pipeline] around the given recognition engine.
func New(transcriber asr.Transcriber, opts ...Option) *Pipeline {
	p := &Pipeline{
		transcriber: transcriber,
		annotator:   nlp.Naive{},
		timeout:     defaultTimeout,
	}
	for _, o := range opts {
		o(p)
	}
	if p.metrics == nil {
		p.metrics = observe.DefaultMetrics()
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	return p
}

// Evaluate runs the full pipeline over one recording.
//
// Transcription failure and timeout are the only fatal errors. Analyzer
// failures degrade: the failed components are reported under
// [evaluate.Result].Degraded and scored with neutral defaults.
func (p *Pipeline) Evaluate(ctx context.Context, req Request) (*Evaluation, error) {
	if len(req.Recording.Samples) == 0 {
		return nil, ErrEmptyRecording
	}
	depth := req.Depth
	if depth == "" {
		depth = DepthStandard
	}
	if !depth.IsValid() {
		return nil, fmt.Errorf("pipeline: unknown analysis depth %q", req.Depth)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ctx, span := observe.StartSpan(ctx, "pipeline.Evaluate")
	defer span.End()

	start := time.Now()
	p.metrics.ActiveEvaluations.Add(ctx, 1)
	defer p.metrics.ActiveEvaluations.Add(ctx, -1)

	transcript, err := p.transcribe(ctx, req.Recording)
	if err != nil {
		p.metrics.RecordEvaluation(ctx, string(depth), "error")
		return nil, err
	}

	seq := timing.Normalize(transcript)
	seconds := req.Recording.Seconds()
	if seconds == 0 {
		seconds = transcript.Duration
	}

	var (
		fluencyOut []evaluate.Outcome
		soundOut   []evaluate.Outcome
		contentOut []evaluate.Outcome

		pronRating  string
		topicRating string
		quality     acoustic.Quality
		sound       soundArtifacts
		ann         nlp.Annotation
	)

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		fluencyOut = p.stage(egCtx, "fluency",
			[]evaluate.Component{evaluate.ComponentFillerWords, evaluate.ComponentProficiency},
			func(context.Context) ([]evaluate.Outcome, error) {
				return p.runFluency(seq, req.ExpectedDuration), nil
			})
		return egCtx.Err()
	})

	eg.Go(func() error {
		soundOut = p.stage(egCtx, "acoustic",
			acousticComponents(depth),
			func(context.Context) ([]evaluate.Outcome, error) {
				out, q, rating, art := p.runAcoustic(req.Recording, depth, seconds)
				quality = q
				pronRating = rating
				sound = art
				return out, nil
			})
		return egCtx.Err()
	})

	eg.Go(func() error {
		contentOut = p.stage(egCtx, "content",
			contentComponents(depth, req.Topic),
			func(sctx context.Context) ([]evaluate.Outcome, error) {
				out, rating, a, err := p.runContent(sctx, seq.Text, depth, req.Topic)
				topicRating = rating
				ann = a
				return out, err
			})
		return egCtx.Err()
	})

	if err := eg.Wait(); err != nil {
		p.metrics.RecordEvaluation(ctx, string(depth), "error")
		return nil, fmt.Errorf("pipeline: analysis aborted: %w", err)
	}

	outcomes := make([]evaluate.Outcome, 0, len(fluencyOut)+len(soundOut)+len(contentOut)+1)
	outcomes = append(outcomes, fluencyOut...)
	outcomes = append(outcomes, soundOut...)
	outcomes = append(outcomes, contentOut...)

	// Emphasis mapping joins the acoustic segments with the annotation, so
	// it runs after both stages have finished.
	if depth.includesEmphasis() {
		outcomes = append(outcomes, p.stage(ctx, "emphasis",
			[]evaluate.Component{evaluate.ComponentEmphasis},
			func(context.Context) ([]evaluate.Outcome, error) {
				return []evaluate.Outcome{p.runEmphasis(ann, seq, sound, seconds)}, nil
			})...)
	}

	hasTopic := depth.includesTopic() && req.Topic != ""
	result := evaluate.Aggregate(outcomes, hasTopic)

	ev := &Evaluation{
		Transcript:          seq.Text,
		PlainTranscript:     timing.StripMarkers(seq.Text),
		DurationSeconds:     seconds,
		WordsPerMinute:      wordsPerMinute(seq.TotalWords(), seconds),
		Quality:             quality,
		PronunciationRating: pronRating,
		TopicRating:         topicRating,
		Result:              result,
		Elapsed:             time.Since(start),
	}

	status := "ok"
	if len(result.Degraded) > 0 {
		status = "degraded"
	}
	p.metrics.RecordEvaluation(ctx, string(depth), status)
	p.metrics.EvaluationDuration.Record(ctx, ev.Elapsed.Seconds())
	p.log.InfoContext(ctx, "evaluation complete",
		"overall", result.OverallScore,
		"tier", string(result.Tier),
		"degraded", len(result.Degraded),
		"elapsed", ev.Elapsed)

	return ev, nil
}

func (p *Pipeline) transcribe(ctx context.Context, rec audio.Recording) (asr.Transcript, error) {
	ctx, span := observe.StartSpan(ctx, "pipeline.transcribe")
	defer span.End()

	start := time.Now()
	transcript, err := p.transcriber.Transcribe(ctx, rec.Float32(transcribeRate), transcribeRate)
	p.metrics.TranscriptionDuration.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		p.metrics.RecordTranscriberError(ctx, "default")
		return asr.Transcript{}, fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	p.metrics.RecordTranscriberRequest(ctx, "default", "ok")
	return transcript, nil
}

// stage runs one analyzer stage with panic and error containment. It always
// returns one outcome per component; on failure those are Unavailable.
func (p *Pipeline) stage(ctx context.Context, name string, components []evaluate.Component, fn func(context.Context) ([]evaluate.Outcome, error)) (out []evaluate.Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			p.log.ErrorContext(ctx, "analyzer stage panicked", "stage", name, "panic", r)
			out = unavailableAll(components, fmt.Sprintf("analyzer panic: %v", r))
		}
		for _, o := range out {
			p.metrics.RecordAnalyzerOutcome(ctx, string(o.Score.Name), o.Status.String(), time.Since(start).Seconds())
		}
	}()

	res, err := fn(ctx)
	if err != nil {
		p.log.WarnContext(ctx, "analyzer stage failed", "stage", name, "error", err)
		return unavailableAll(components, err.Error())
	}
	return res
}

func (p *Pipeline) runFluency(seq timing.Sequence, expectedDuration string) []evaluate.Outcome {
	filler, proficiency := fluency.Analyze(seq, expectedDuration)
	if len(seq.Words) == 0 {
		const reason = "no word timestamps; text-only estimate"
		return []evaluate.Outcome{
			evaluate.Degraded(filler, reason),
			evaluate.Degraded(proficiency, reason),
		}
	}
	return []evaluate.Outcome{evaluate.Success(filler), evaluate.Success(proficiency)}
}

// soundArtifacts carries acoustic-stage byproducts that the emphasis
// mapping consumes after the analyzer join.
type soundArtifacts struct {
	ok       bool
	err      error
	emphasis acoustic.Emphasis

	// pattern is the prosody-only emphasis estimate, the fallback when no
	// word timestamps are available to map segments onto the transcript.
	pattern evaluate.ComponentScore
}

func (p *Pipeline) runAcoustic(rec audio.Recording, depth Depth, seconds float64) ([]evaluate.Outcome, acoustic.Quality, string, soundArtifacts) {
	features, err := acoustic.Extract(rec.Samples, rec.SampleRate)
	if err != nil {
		var out []evaluate.Outcome
		out = append(out, evaluate.Unavailable(evaluate.ComponentVoiceModulation, err.Error()))
		if depth.includesPronunciation() {
			fb := pronounce.Fallback()
			out = append(out, evaluate.Degraded(fb.Score, err.Error()))
		}
		return out, acoustic.Quality{}, "", soundArtifacts{ok: true, err: err}
	}

	quality := acoustic.AssessQuality(rec.Samples, features)
	detected := acoustic.DetectEmphasis(features)
	pa := prosody.Analyze(features, detected, quality, seconds)

	out := []evaluate.Outcome{evaluate.Success(pa.VoiceModulation)}

	var rating string
	if depth.includesPronunciation() {
		pron := pronounce.Analyze(features)
		rating = pron.Rating
		out = append(out, evaluate.Success(pron.Score))
	}
	return out, quality, rating, soundArtifacts{ok: true, emphasis: detected, pattern: pa.Emphasis}
}

// runEmphasis maps the detected emphasis segments onto the transcript's key
// phrases. It needs both the acoustic segments and the annotation, so it
// runs only after the parallel stages have joined.
func (p *Pipeline) runEmphasis(ann nlp.Annotation, seq timing.Sequence, sound soundArtifacts, seconds float64) evaluate.Outcome {
	switch {
	case !sound.ok:
		return evaluate.Unavailable(evaluate.ComponentEmphasis, "acoustic analysis unavailable")
	case sound.err != nil:
		return evaluate.Unavailable(evaluate.ComponentEmphasis, sound.err.Error())
	case len(seq.Words) == 0:
		return evaluate.Degraded(sound.pattern, "no word timestamps; acoustic pattern estimate")
	}

	_, score := emphasis.Analyze(ann, seq.Words, sound.emphasis, seconds)
	if len(ann.NounChunks) == 0 && len(ann.Entities) == 0 {
		return evaluate.Degraded(score, "annotation carries no phrase spans")
	}
	return evaluate.Success(score)
}

func (p *Pipeline) runContent(ctx context.Context, markedText string, depth Depth, topic string) ([]evaluate.Outcome, string, nlp.Annotation, error) {
	plain := timing.StripMarkers(markedText)

	annStart := time.Now()
	ann, err := p.annotator.Annotate(ctx, plain)
	p.metrics.AnnotationDuration.Record(ctx, time.Since(annStart).Seconds())

	degradedReason := ""
	if err != nil {
		if ctx.Err() != nil {
			return nil, "", nlp.Annotation{}, ctx.Err()
		}
		// Fall back to the built-in annotator so content scoring still runs.
		p.log.WarnContext(ctx, "annotator failed, using fallback", "error", err)
		ann, _ = nlp.Naive{}.Annotate(ctx, plain)
		degradedReason = "annotator unavailable: " + err.Error()
	} else if !hasSyntax(ann) {
		degradedReason = "annotation carries no syntactic analysis"
	}

	wrap := func(score evaluate.ComponentScore) evaluate.Outcome {
		if degradedReason != "" {
			return evaluate.Degraded(score, degradedReason)
		}
		return evaluate.Success(score)
	}

	_, grammar := content.AnalyzeGrammar(ann)
	_, vocabulary := content.AnalyzeVocabulary(ann)
	_, structure := content.AnalyzeStructure(ann)

	out := []evaluate.Outcome{wrap(grammar), wrap(vocabulary), wrap(structure)}

	var rating string
	if depth.includesTopic() && topic != "" {
		stats, relevance := content.AnalyzeTopic(ann, topic)
		rating = stats.Rating
		out = append(out, evaluate.Success(relevance))
	}
	return out, rating, ann, nil
}

// hasSyntax reports whether the annotation carries POS tags, which the
// grammar analyzer needs for full fidelity.
func hasSyntax(ann nlp.Annotation) bool {
	for _, tok := range ann.Tokens {
		if tok.POS != "" {
			return true
		}
	}
	return false
}

func acousticComponents(depth Depth) []evaluate.Component {
	cs := []evaluate.Component{evaluate.ComponentVoiceModulation}
	if depth.includesPronunciation() {
		cs = append(cs, evaluate.ComponentPronunciation)
	}
	return cs
}

func contentComponents(depth Depth, topic string) []evaluate.Component {
	cs := []evaluate.Component{
		evaluate.ComponentGrammar,
		evaluate.ComponentVocabulary,
		evaluate.ComponentStructure,
	}
	if depth.includesTopic() && topic != "" {
		cs = append(cs, evaluate.ComponentTopicRelevance)
	}
	return cs
}

func unavailableAll(components []evaluate.Component, reason string) []evaluate.Outcome {
	out := make([]evaluate.Outcome, 0, len(components))
	for _, c := range components {
		out = append(out, evaluate.Unavailable(c, reason))
	}
	return out
}

func wordsPerMinute(words int, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return math.Round(float64(words)/(seconds/60)*10) / 10
}
