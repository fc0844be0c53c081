// Package health implements the liveness and readiness probes for the
// Rostrum server.
//
// /healthz answers 200 whenever the process can serve HTTP. /readyz runs
// every registered [Checker] and answers 200 only when all of them pass, so
// a deployment with a broken database or recognition backend is taken out of
// rotation instead of failing evaluations.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// probeTimeout bounds a single readiness check.
const probeTimeout = 5 * time.Second

// Checker probes one dependency by name. Check returns nil when the
// dependency is usable and an error describing the problem otherwise.
type Checker struct {
	// Name labels the check in the /readyz response, e.g. "database".
	Name string

	// Check probes the dependency. It must honour ctx cancellation.
	Check func(ctx context.Context) error
}

// report is the response body for both probe endpoints.
type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves the probe endpoints. The checker set is fixed at
// construction, which makes the handler safe for concurrent use.
type Handler struct {
	checkers []Checker
}

// New creates a Handler over the given checkers.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz is the liveness probe. It always answers 200.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeReport(w, http.StatusOK, report{Status: "ok"})
}

// Readyz runs every checker concurrently and answers 200 only when all
// pass. Each check gets its own [probeTimeout] deadline derived from the
// request context, so one stalled dependency cannot hold the probe open
// past its deadline.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	results := make([]string, len(h.checkers))

	var wg sync.WaitGroup
	for i, c := range h.checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
			defer cancel()
			if err := c.Check(ctx); err != nil {
				results[i] = "fail: " + err.Error()
			} else {
				results[i] = "ok"
			}
		}()
	}
	wg.Wait()

	res := report{Status: "ok", Checks: make(map[string]string, len(h.checkers))}
	status := http.StatusOK
	for i, c := range h.checkers {
		res.Checks[c.Name] = results[i]
		if results[i] != "ok" {
			res.Status = "fail"
			status = http.StatusServiceUnavailable
		}
	}
	writeReport(w, status, res)
}

// Register adds both probe routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeReport(w http.ResponseWriter, status int, rep report) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(rep); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
