// Package server exposes the evaluation pipeline over HTTP. It serves the
// evaluation API alongside the operational endpoints: health probes and
// Prometheus metrics.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rostrumhq/rostrum/internal/evaluate"
	"github.com/rostrumhq/rostrum/internal/health"
	"github.com/rostrumhq/rostrum/internal/observe"
	"github.com/rostrumhq/rostrum/internal/pipeline"
	"github.com/rostrumhq/rostrum/internal/store"
	"github.com/rostrumhq/rostrum/pkg/audio"
)

// maxUploadBytes caps the size of an uploaded recording (30 minutes of
// 16-bit 48 kHz mono is under 180 MB; this leaves headroom for headers).
const maxUploadBytes = 200 << 20

// Defaults are the evaluation parameters applied when a request omits them.
type Defaults struct {
	Depth            pipeline.Depth
	ExpectedDuration string
}

// Server handles the evaluation HTTP API. The store may be nil, in which
// case evaluations are returned but not persisted and the retrieval
// endpoints report 404.
type Server struct {
	pipe    *pipeline.Pipeline
	store   store.Store
	metrics *observe.Metrics
	log     *slog.Logger
	health  *health.Handler

	mu       sync.Mutex // guards defaults, which the config watcher replaces at runtime
	defaults Defaults
}

// Option is a functional option for [New].
type Option func(*Server)

// WithStore enables evaluation persistence.
func WithStore(s store.Store) Option {
	return func(srv *Server) { srv.store = s }
}

// WithDefaults sets the evaluation defaults applied to requests that omit
// depth or expected duration.
func WithDefaults(d Defaults) Option {
	return func(srv *Server) { srv.defaults = d }
}

// WithHealthCheckers registers readiness checkers for /readyz.
func WithHealthCheckers(checkers ...health.Checker) Option {
	return func(srv *Server) { srv.health = health.New(checkers...) }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(srv *Server) { srv.log = l }
}

// WithMetrics sets the metrics instance used by the HTTP middleware.
func WithMetrics(m *observe.Metrics) Option {
	return func(srv *Server) { srv.metrics = m }
}

// New creates a [Server] around the given pipeline.
func New(pipe *pipeline.Pipeline, opts ...Option) *Server {
	srv := &Server{
		pipe:     pipe,
		defaults: Defaults{Depth: pipeline.DepthStandard},
	}
	for _, o := range opts {
		o(srv)
	}
	if srv.metrics == nil {
		srv.metrics = observe.DefaultMetrics()
	}
	if srv.log == nil {
		srv.log = slog.Default()
	}
	if srv.health == nil {
		srv.health = health.New()
	}
	return srv
}

// SetDefaults replaces the evaluation defaults. Safe to call while serving;
// in-flight requests keep the defaults they started with.
func (s *Server) SetDefaults(d Defaults) {
	s.mu.Lock()
	s.defaults = d
	s.mu.Unlock()
}

// Defaults returns the evaluation defaults currently in effect.
func (s *Server) Defaults() Defaults {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.defaults
}

// Handler returns the full HTTP handler with observability middleware
// applied to the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/evaluations", s.handleEvaluate)
	mux.HandleFunc("GET /v1/evaluations/{id}", s.handleGet)
	mux.HandleFunc("GET /v1/evaluations", s.handleList)

	root := http.NewServeMux()
	root.Handle("/v1/", observe.Middleware(s.metrics)(mux))
	root.Handle("/metrics", promhttp.Handler())
	root.HandleFunc("/healthz", s.health.Healthz)
	root.HandleFunc("/readyz", s.health.Readyz)
	return root
}

// evaluationResponse is the JSON shape of a completed evaluation.
type evaluationResponse struct {
	ID                  string             `json:"id,omitempty"`
	OverallScore        float64            `json:"overall_score"`
	Tier                string             `json:"tier"`
	Breakdown           map[string]float64 `json:"breakdown"`
	Degraded            map[string]string  `json:"degraded,omitempty"`
	Strengths           []string           `json:"strengths"`
	AreasForImprovement []string           `json:"areas_for_improvement"`
	Suggestions         []string           `json:"suggestions"`
	Transcript          string             `json:"transcript"`
	DurationSeconds     float64            `json:"duration_seconds"`
	WordsPerMinute      float64            `json:"words_per_minute"`
	PronunciationRating string             `json:"pronunciation_rating,omitempty"`
	TopicRating         string             `json:"topic_rating,omitempty"`
	CreatedAt           *time.Time         `json:"created_at,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleEvaluate accepts a multipart form with an "audio" WAV file and
// optional "topic", "expected_duration", and "depth" fields.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, errors.New(`missing "audio" file field`))
		return
	}
	defer file.Close()

	rec, err := audio.DecodeWAV(file)
	if err != nil {
		if errors.Is(err, audio.ErrNotWAV) {
			writeError(w, http.StatusUnsupportedMediaType, err)
			return
		}
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode audio: %w", err))
		return
	}

	req := pipeline.Request{
		Recording:        rec,
		Topic:            r.FormValue("topic"),
		ExpectedDuration: r.FormValue("expected_duration"),
		Depth:            pipeline.Depth(r.FormValue("depth")),
	}
	defaults := s.Defaults()
	if req.Depth == "" {
		req.Depth = defaults.Depth
	}
	if req.ExpectedDuration == "" {
		req.ExpectedDuration = defaults.ExpectedDuration
	}
	if !req.Depth.IsValid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown analysis depth %q", req.Depth))
		return
	}

	ev, err := s.pipe.Evaluate(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, pipeline.ErrEmptyRecording):
			writeError(w, http.StatusBadRequest, err)
		case errors.Is(err, pipeline.ErrTranscription):
			writeError(w, http.StatusBadGateway, err)
		default:
			s.log.ErrorContext(r.Context(), "evaluation failed", "error", err)
			writeError(w, http.StatusInternalServerError, errors.New("evaluation failed"))
		}
		return
	}

	resp := responseFromEvaluation(ev)

	if s.store != nil {
		recRow := store.NewRecord(req.Topic, req.Depth, ev)
		if err := s.store.Save(r.Context(), recRow); err != nil {
			// Persistence failure does not invalidate the evaluation.
			s.log.WarnContext(r.Context(), "failed to persist evaluation", "error", err)
		} else {
			resp.ID = recRow.ID
			resp.CreatedAt = &recRow.CreatedAt
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, errors.New("persistence is not configured"))
		return
	}
	rec, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.log.ErrorContext(r.Context(), "store get failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("lookup failed"))
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, errors.New("evaluation not found"))
		return
	}
	writeJSON(w, http.StatusOK, responseFromRecord(rec))
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeJSON(w, http.StatusOK, []evaluationResponse{})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 100 {
			writeError(w, http.StatusBadRequest, errors.New("limit must be an integer in [1, 100]"))
			return
		}
		limit = n
	}
	recs, err := s.store.ListRecent(r.Context(), limit)
	if err != nil {
		s.log.ErrorContext(r.Context(), "store list failed", "error", err)
		writeError(w, http.StatusInternalServerError, errors.New("listing failed"))
		return
	}
	out := make([]evaluationResponse, 0, len(recs))
	for i := range recs {
		out = append(out, responseFromRecord(&recs[i]))
	}
	writeJSON(w, http.StatusOK, out)
}

func responseFromEvaluation(ev *pipeline.Evaluation) evaluationResponse {
	return evaluationResponse{
		OverallScore:        ev.Result.OverallScore,
		Tier:                string(ev.Result.Tier),
		Breakdown:           componentKeys(ev.Result.Breakdown),
		Degraded:            componentStringKeys(ev.Result.Degraded),
		Strengths:           ev.Result.Strengths,
		AreasForImprovement: ev.Result.AreasForImprovement,
		Suggestions:         ev.Result.Suggestions,
		Transcript:          ev.Transcript,
		DurationSeconds:     ev.DurationSeconds,
		WordsPerMinute:      ev.WordsPerMinute,
		PronunciationRating: ev.PronunciationRating,
		TopicRating:         ev.TopicRating,
	}
}

func responseFromRecord(rec *store.EvaluationRecord) evaluationResponse {
	created := rec.CreatedAt
	return evaluationResponse{
		ID:                  rec.ID,
		OverallScore:        rec.OverallScore,
		Tier:                string(rec.Tier),
		Breakdown:           componentKeys(rec.Breakdown),
		Degraded:            componentStringKeys(rec.Degraded),
		Strengths:           rec.Strengths,
		AreasForImprovement: rec.AreasForImprovement,
		Suggestions:         rec.Suggestions,
		Transcript:          rec.Transcript,
		DurationSeconds:     rec.DurationSeconds,
		WordsPerMinute:      rec.WordsPerMinute,
		CreatedAt:           &created,
	}
}

func componentKeys(m map[evaluate.Component]float64) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

func componentStringKeys(m map[evaluate.Component]string) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
