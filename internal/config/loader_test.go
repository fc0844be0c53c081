package config_test

import (
	"strings"
	"testing"

	"github.com/rostrumhq/rostrum/internal/config"
)

func TestValidate_TranscriberNameRequired(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  log_level: info
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for missing transcriber name, got nil")
	}
	if !strings.Contains(err.Error(), "transcriber.name") {
		t.Errorf("error should mention transcriber.name, got: %v", err)
	}
}

func TestValidate_WhisperRequiresModelPath(t *testing.T) {
	t.Parallel()
	yaml := `
transcriber:
  name: whisper
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for whisper engine without model_path, got nil")
	}
	if !strings.Contains(err.Error(), "model_path") {
		t.Errorf("error should mention model_path, got: %v", err)
	}
}

func TestValidate_OpenAIRequiresAPIKey(t *testing.T) {
	t.Parallel()
	yaml := `
transcriber:
  name: openai
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for openai engine without api_key, got nil")
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Errorf("error should mention api_key, got: %v", err)
	}
}

func TestValidate_SpacyRequiresBaseURL(t *testing.T) {
	t.Parallel()
	yaml := `
transcriber:
  name: whisper
  model_path: /models/ggml-base.en.bin
annotator:
  name: spacy
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for spacy annotator without base_url, got nil")
	}
	if !strings.Contains(err.Error(), "base_url") {
		t.Errorf("error should mention base_url, got: %v", err)
	}
}

func TestValidate_FullConfigIsValid(t *testing.T) {
	t.Parallel()
	yaml := `
server:
  listen_addr: ":8080"
  log_level: debug
transcriber:
  name: openai
  api_key: sk-test
  model: whisper-1
annotator:
  name: spacy
  base_url: http://localhost:8000
analysis:
  default_depth: advanced
  default_expected_duration: "5-7 minutes"
  timeout: 2m
storage:
  postgres_dsn: "postgres://localhost/test"
`
	cfg, err := config.LoadFromReader(strings.NewReader(yaml))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Transcriber.Model != "whisper-1" {
		t.Errorf("transcriber.model: got %q, want whisper-1", cfg.Transcriber.Model)
	}
	if d, err := cfg.Analysis.TimeoutDuration(); err != nil || d.Minutes() != 2 {
		t.Errorf("analysis.timeout: got %v, %v; want 2m", d, err)
	}
}

func TestValidate_FallbackIsValidated(t *testing.T) {
	t.Parallel()
	yaml := `
transcriber:
  name: whisper
  model_path: /models/ggml-base.en.bin
  fallback:
    name: openai
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for fallback openai engine without api_key, got nil")
	}
	if !strings.Contains(err.Error(), "transcriber.fallback.api_key") {
		t.Errorf("error should mention transcriber.fallback.api_key, got: %v", err)
	}
}

func TestValidate_NestedFallbackRejected(t *testing.T) {
	t.Parallel()
	yaml := `
transcriber:
  name: whisper
  model_path: /models/ggml-base.en.bin
  fallback:
    name: openai
    api_key: sk-test
    fallback:
      name: whisper
      model_path: /models/other.bin
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for nested fallback, got nil")
	}
	if !strings.Contains(err.Error(), "cannot itself declare a fallback") {
		t.Errorf("error should reject nested fallback, got: %v", err)
	}
}

func TestValidate_InvalidDepth(t *testing.T) {
	t.Parallel()
	yaml := `
transcriber:
  name: whisper
  model_path: /models/ggml-base.en.bin
analysis:
  default_depth: exhaustive
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown depth, got nil")
	}
	if !strings.Contains(err.Error(), "default_depth") {
		t.Errorf("error should mention default_depth, got: %v", err)
	}
}

func TestValidate_InvalidTimeout(t *testing.T) {
	t.Parallel()
	yaml := `
transcriber:
  name: whisper
  model_path: /models/ggml-base.en.bin
analysis:
  timeout: soon
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unparseable timeout, got nil")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("error should mention timeout, got: %v", err)
	}
}

func TestValidate_UnknownFieldRejected(t *testing.T) {
	t.Parallel()
	yaml := `
transcriber:
  name: whisper
  model_path: /models/ggml-base.en.bin
  temperture: 0.5
`
	_, err := config.LoadFromReader(strings.NewReader(yaml))
	if err == nil {
		t.Fatal("expected error for unknown field, got nil")
	}
}

func TestValidEngineNames(t *testing.T) {
	t.Parallel()
	// Sanity-check that the map is populated.
	if len(config.ValidEngineNames) == 0 {
		t.Fatal("ValidEngineNames should not be empty")
	}
	names := config.ValidEngineNames["transcriber"]
	if len(names) == 0 {
		t.Fatal("ValidEngineNames[\"transcriber\"] should not be empty")
	}
	found := false
	for _, n := range names {
		if n == "whisper" {
			found = true
			break
		}
	}
	if !found {
		t.Error("ValidEngineNames[\"transcriber\"] should contain \"whisper\"")
	}
}
