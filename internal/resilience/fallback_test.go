package resilience

import (
	"errors"
	"testing"
	"time"
)

func newStringGroup(maxFailures int, resetTimeout time.Duration) *FallbackGroup[string] {
	fg := NewFallbackGroup("primary", "primary", FallbackConfig{
		CircuitBreaker: CircuitBreakerConfig{
			MaxFailures:  maxFailures,
			ResetTimeout: resetTimeout,
		},
	})
	fg.AddFallback("secondary", "secondary")
	return fg
}

func TestFallbackGroup_Execute(t *testing.T) {
	tests := []struct {
		name       string
		failing    map[string]bool
		wantCalled string
		wantErr    error
	}{
		{
			name:       "primary healthy",
			wantCalled: "primary",
		},
		{
			name:       "primary fails",
			failing:    map[string]bool{"primary": true},
			wantCalled: "secondary",
		},
		{
			name:    "everything fails",
			failing: map[string]bool{"primary": true, "secondary": true},
			wantErr: ErrAllFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			fg := newStringGroup(3, 0)

			var called string
			err := fg.Execute(func(v string) error {
				if tc.failing[v] {
					return errEngine
				}
				called = v
				return nil
			})

			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if called != tc.wantCalled {
				t.Fatalf("served by %q, want %q", called, tc.wantCalled)
			}
		})
	}
}

func TestFallbackGroup_SkipsOpenBreaker(t *testing.T) {
	fg := newStringGroup(2, time.Hour)

	// Trip the primary's breaker.
	for range 2 {
		_ = fg.Execute(func(v string) error {
			if v == "primary" {
				return errEngine
			}
			return nil
		})
	}

	// The primary must not even be attempted now.
	var attempts []string
	err := fg.Execute(func(v string) error {
		attempts = append(attempts, v)
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(attempts) != 1 || attempts[0] != "secondary" {
		t.Fatalf("attempted engines %v, want [secondary]", attempts)
	}
}

func TestExecuteWithResult(t *testing.T) {
	fg := NewFallbackGroup(1, "local", FallbackConfig{})
	fg.AddFallback("hosted", 2)

	got, err := ExecuteWithResult(fg, func(v int) (string, error) {
		if v == 1 {
			return "", errEngine
		}
		return "hosted transcript", nil
	})
	if err != nil {
		t.Fatalf("ExecuteWithResult: %v", err)
	}
	if got != "hosted transcript" {
		t.Fatalf("result = %q", got)
	}
}

func TestExecuteWithResult_AllFail(t *testing.T) {
	fg := NewFallbackGroup(1, "local", FallbackConfig{})

	_, err := ExecuteWithResult(fg, func(int) (string, error) {
		return "", errEngine
	})
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
}
