// Command rostrum is the entry point for the Rostrum speech evaluation
// service. It serves the HTTP evaluation API by default, or evaluates a
// single recording from the command line when -file is given.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rostrumhq/rostrum/internal/config"
	"github.com/rostrumhq/rostrum/internal/health"
	"github.com/rostrumhq/rostrum/internal/observe"
	"github.com/rostrumhq/rostrum/internal/pipeline"
	"github.com/rostrumhq/rostrum/internal/resilience"
	"github.com/rostrumhq/rostrum/internal/server"
	"github.com/rostrumhq/rostrum/internal/store"
	"github.com/rostrumhq/rostrum/internal/timing"
	"github.com/rostrumhq/rostrum/pkg/asr"
	openaiasr "github.com/rostrumhq/rostrum/pkg/asr/openai"
	whisperasr "github.com/rostrumhq/rostrum/pkg/asr/whisper"
	"github.com/rostrumhq/rostrum/pkg/audio"
	"github.com/rostrumhq/rostrum/pkg/nlp"
	"github.com/rostrumhq/rostrum/pkg/nlp/spacy"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	filePath := flag.String("file", "", "evaluate a single WAV file and print the result instead of serving")
	topic := flag.String("topic", "", "expected topic for -file mode")
	depth := flag.String("depth", "", "analysis depth for -file mode (basic, standard, advanced)")
	expectedDuration := flag.String("expected-duration", "", `target talk length for -file mode (e.g. "5-7 minutes")`)
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "rostrum: config file %q not found — copy configs/example.yaml to get started\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "rostrum: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "rostrum",
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelShutdown(shutdownCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Engine registry ───────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinEngines(reg)

	transcriber, err := buildTranscriber(cfg, reg)
	if err != nil {
		slog.Error("failed to create transcriber", "name", cfg.Transcriber.Name, "err", err)
		return 1
	}
	annotator, err := buildAnnotator(cfg, reg)
	if err != nil {
		slog.Error("failed to create annotator", "name", cfg.Annotator.Name, "err", err)
		return 1
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	pipeOpts := []pipeline.Option{pipeline.WithAnnotator(annotator)}
	if timeout, _ := cfg.Analysis.TimeoutDuration(); timeout > 0 {
		pipeOpts = append(pipeOpts, pipeline.WithTimeout(timeout))
	}
	pipe := pipeline.New(transcriber, pipeOpts...)

	if *filePath != "" {
		return evaluateFile(ctx, pipe, cfg, *filePath, *topic, *depth, *expectedDuration)
	}
	return serve(ctx, cfg, *configPath, pipe)
}

// ── One-shot mode ─────────────────────────────────────────────────────────────

// evaluateFile scores a single WAV file and prints the result as JSON.
func evaluateFile(ctx context.Context, pipe *pipeline.Pipeline, cfg *config.Config, path, topic, depth, expectedDuration string) int {
	rec, err := audio.LoadWAV(path)
	if err != nil {
		slog.Error("failed to load recording", "path", path, "err", err)
		return 1
	}

	req := pipeline.Request{
		Recording:        rec,
		Topic:            topic,
		ExpectedDuration: expectedDuration,
		Depth:            pipeline.Depth(depth),
	}
	if req.Depth == "" {
		req.Depth = cfg.Analysis.DefaultDepth
	}
	if req.ExpectedDuration == "" {
		req.ExpectedDuration = cfg.Analysis.DefaultExpectedDuration
	}

	ev, err := pipe.Evaluate(ctx, req)
	if err != nil {
		slog.Error("evaluation failed", "err", err)
		return 1
	}

	pauses := timing.Markers(ev.Transcript)
	var totalPause float64
	for _, d := range pauses {
		totalPause += d
	}

	out := fileResult{
		OverallScore:        ev.Result.OverallScore,
		Tier:                string(ev.Result.Tier),
		Breakdown:           map[string]float64{},
		Strengths:           ev.Result.Strengths,
		AreasForImprovement: ev.Result.AreasForImprovement,
		Suggestions:         ev.Result.Suggestions,
		Transcript:          ev.PlainTranscript,
		MarkedTranscript:    ev.Transcript,
		PauseCount:          len(pauses),
		TotalPauseSeconds:   totalPause,
		DurationSeconds:     ev.DurationSeconds,
		WordsPerMinute:      ev.WordsPerMinute,
		PronunciationRating: ev.PronunciationRating,
		TopicRating:         ev.TopicRating,
	}
	for c, s := range ev.Result.Breakdown {
		out.Breakdown[string(c)] = s
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		slog.Error("failed to encode result", "err", err)
		return 1
	}
	return 0
}

// fileResult is the JSON shape printed in -file mode.
type fileResult struct {
	OverallScore        float64            `json:"overall_score"`
	Tier                string             `json:"tier"`
	Breakdown           map[string]float64 `json:"breakdown"`
	Strengths           []string           `json:"strengths"`
	AreasForImprovement []string           `json:"areas_for_improvement"`
	Suggestions         []string           `json:"suggestions"`
	Transcript          string             `json:"transcript"`
	MarkedTranscript    string             `json:"marked_transcript"`
	PauseCount          int                `json:"pause_count"`
	TotalPauseSeconds   float64            `json:"total_pause_seconds"`
	DurationSeconds     float64            `json:"duration_seconds"`
	WordsPerMinute      float64            `json:"words_per_minute"`
	PronunciationRating string             `json:"pronunciation_rating,omitempty"`
	TopicRating         string             `json:"topic_rating,omitempty"`
}

// ── Serve mode ────────────────────────────────────────────────────────────────

func serve(ctx context.Context, cfg *config.Config, configPath string, pipe *pipeline.Pipeline) int {
	srvOpts := []server.Option{
		server.WithDefaults(serverDefaults(cfg.Analysis)),
	}

	// ── Persistence (optional) ────────────────────────────────────────────────
	if dsn := cfg.Storage.PostgresDSN; dsn != "" {
		pool, err := pgxpool.New(ctx, dsn)
		if err != nil {
			slog.Error("failed to connect to postgres", "err", err)
			return 1
		}
		defer pool.Close()

		pgStore := store.NewPostgresStore(pool)
		if err := pgStore.Migrate(ctx); err != nil {
			slog.Error("failed to migrate evaluation schema", "err", err)
			return 1
		}
		srvOpts = append(srvOpts,
			server.WithStore(pgStore),
			server.WithHealthCheckers(health.Checker{
				Name:  "database",
				Check: pool.Ping,
			}),
		)
		slog.Info("evaluation persistence enabled")
	}

	srv := server.New(pipe, srvOpts...)

	// ── Config hot-reload ─────────────────────────────────────────────────────
	watcher, err := config.NewWatcher(configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			slog.SetDefault(newLogger(d.NewLogLevel))
			slog.Info("log level changed", "level", d.NewLogLevel)
		}
		if d.AnalysisChanged {
			srv.SetDefaults(serverDefaults(d.NewAnalysis))
			slog.Info("analysis defaults changed",
				"depth", d.NewAnalysis.DefaultDepth,
				"expected_duration", d.NewAnalysis.DefaultExpectedDuration)
		}
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	addr := cfg.Server.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("rostrum listening", "addr", addr, "tls", cfg.Server.TLS != nil)
		if tls := cfg.Server.TLS; tls != nil {
			errCh <- httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			errCh <- httpSrv.ListenAndServe()
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("serve error", "err", err)
			return 1
		}
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	slog.Info("shutdown signal received, stopping…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

func serverDefaults(a config.AnalysisConfig) server.Defaults {
	d := server.Defaults{
		Depth:            a.DefaultDepth,
		ExpectedDuration: a.DefaultExpectedDuration,
	}
	if d.Depth == "" {
		d.Depth = pipeline.DepthStandard
	}
	return d
}

// ── Engine wiring ─────────────────────────────────────────────────────────────

// registerBuiltinEngines wires all built-in engine factories into reg.
func registerBuiltinEngines(reg *config.Registry) {
	reg.RegisterTranscriber("whisper", func(cfg config.TranscriberConfig) (asr.Transcriber, error) {
		var opts []whisperasr.Option
		if cfg.Language != "" {
			opts = append(opts, whisperasr.WithLanguage(cfg.Language))
		}
		return whisperasr.New(cfg.ModelPath, opts...)
	})

	reg.RegisterTranscriber("openai", func(cfg config.TranscriberConfig) (asr.Transcriber, error) {
		var opts []openaiasr.Option
		if cfg.BaseURL != "" {
			opts = append(opts, openaiasr.WithBaseURL(cfg.BaseURL))
		}
		if cfg.Model != "" {
			opts = append(opts, openaiasr.WithModel(cfg.Model))
		}
		return openaiasr.New(cfg.APIKey, opts...)
	})

	reg.RegisterAnnotator("naive", func(config.AnnotatorConfig) (nlp.Annotator, error) {
		return nlp.Naive{}, nil
	})

	reg.RegisterAnnotator("spacy", func(cfg config.AnnotatorConfig) (nlp.Annotator, error) {
		return spacy.New(cfg.BaseURL)
	})
}

// buildTranscriber creates the configured recognition engine, wrapping it in
// a failover group with per-engine circuit breakers when a fallback engine is
// configured.
func buildTranscriber(cfg *config.Config, reg *config.Registry) (asr.Transcriber, error) {
	primary, err := reg.CreateTranscriber(cfg.Transcriber)
	if err != nil {
		return nil, err
	}
	fb := cfg.Transcriber.Fallback
	if fb == nil {
		return primary, nil
	}

	backup, err := reg.CreateTranscriber(*fb)
	if err != nil {
		return nil, fmt.Errorf("fallback: %w", err)
	}
	group := resilience.NewTranscriberFallback(primary, cfg.Transcriber.Name, resilience.FallbackConfig{})
	group.AddFallback(fb.Name, backup)
	slog.Info("transcriber failover enabled",
		"primary", cfg.Transcriber.Name, "fallback", fb.Name)
	return group, nil
}

// buildAnnotator creates the configured annotator, defaulting to the
// dependency-free fallback when none is configured.
func buildAnnotator(cfg *config.Config, reg *config.Registry) (nlp.Annotator, error) {
	if cfg.Annotator.Name == "" {
		return nlp.Naive{}, nil
	}
	return reg.CreateAnnotator(cfg.Annotator)
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
