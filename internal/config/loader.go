package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// ValidEngineNames lists known engine names per engine kind.
// Used by [Validate] to warn about unrecognised names.
var ValidEngineNames = map[string][]string{
	"transcriber": {"whisper", "openai"},
	"annotator":   {"naive", "spacy"},
}

// Load reads the YAML configuration file at path and returns a validated [Config].
// It is a convenience wrapper around [LoadFromReader] and [Validate].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r and validates the result.
// Useful in tests where configs are constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	// Engine name validation — warn for unknown names.
	validateEngineName("transcriber", cfg.Transcriber.Name)
	validateEngineName("annotator", cfg.Annotator.Name)

	// Transcriber cross-validation.
	errs = append(errs, validateTranscriber("transcriber", cfg.Transcriber)...)
	if fb := cfg.Transcriber.Fallback; fb != nil {
		validateEngineName("transcriber", fb.Name)
		errs = append(errs, validateTranscriber("transcriber.fallback", *fb)...)
		if fb.Fallback != nil {
			errs = append(errs, errors.New("transcriber.fallback cannot itself declare a fallback"))
		}
	}

	// Annotator cross-validation.
	if cfg.Annotator.Name == "spacy" && cfg.Annotator.BaseURL == "" {
		errs = append(errs, errors.New("annotator.base_url is required for the spacy sidecar"))
	}

	// Analysis defaults.
	if d := cfg.Analysis.DefaultDepth; d != "" && !d.IsValid() {
		errs = append(errs, fmt.Errorf("analysis.default_depth %q is invalid; valid values: basic, standard, advanced", d))
	}
	if _, err := cfg.Analysis.TimeoutDuration(); err != nil {
		errs = append(errs, fmt.Errorf("analysis.timeout %q is not a valid duration: %w", cfg.Analysis.Timeout, err))
	}

	// Storage availability
	if cfg.Storage.PostgresDSN == "" {
		slog.Warn("storage.postgres_dsn is empty; evaluations will not be persisted")
	}

	return errors.Join(errs...)
}

// validateTranscriber checks one transcriber block. The prefix names the
// block in error messages ("transcriber" or "transcriber.fallback").
func validateTranscriber(prefix string, tc TranscriberConfig) []error {
	var errs []error
	switch tc.Name {
	case "":
		errs = append(errs, fmt.Errorf("%s.name is required", prefix))
	case "whisper":
		if tc.ModelPath == "" {
			errs = append(errs, fmt.Errorf("%s.model_path is required for the whisper engine", prefix))
		}
	case "openai":
		if tc.APIKey == "" {
			errs = append(errs, fmt.Errorf("%s.api_key is required for the openai engine", prefix))
		}
	}
	return errs
}

// validateEngineName logs a warning if name is non-empty and not found in
// the [ValidEngineNames] list for the given kind.
func validateEngineName(kind, name string) {
	if name == "" {
		return
	}
	known, ok := ValidEngineNames[kind]
	if !ok {
		return
	}
	if slices.Contains(known, name) {
		return
	}
	slog.Warn("unknown engine name — may be a typo or third-party engine",
		"kind", kind,
		"name", name,
		"known", known,
	)
}
