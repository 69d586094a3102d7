// Package health serves the liveness and readiness probes for the Hiya
// service.
//
//   - /healthz reports liveness; a process that can answer HTTP is alive.
//   - /readyz evaluates every registered [Checker] and reports 200 only when
//     all required checks pass.
//
// Hiya treats its speech and notification integrations as optional: an
// unconfigured provider degrades the affected turn stages instead of taking
// the service down. Optional checks therefore surface as "degraded" in the
// /readyz body without flipping readiness to 503. The response is a JSON
// object with a "status" field ("ok", "degraded", or "fail") and a "checks"
// map with one entry per checker.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// checkTimeout bounds a single readiness check.
const checkTimeout = 5 * time.Second

// Checker is one named readiness probe. Check returns nil when the dependency
// is usable and a descriptive error otherwise.
type Checker struct {
	// Name keys this check in the /readyz response body.
	Name string

	// Check probes the dependency. It must respect context cancellation.
	Check func(ctx context.Context) error

	// Optional marks a dependency the service can run without. A failing
	// optional check is reported as degraded but keeps /readyz at 200.
	Optional bool
}

// report is the JSON body served by both probes.
type report struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves the /healthz and /readyz routes. The checker list is fixed
// at construction, so a Handler is safe for concurrent use.
type Handler struct {
	checkers []Checker
}

// New creates a Handler that evaluates the given checkers, in order, on each
// /readyz request.
func New(checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{checkers: c}
}

// Healthz always answers 200 OK.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, report{Status: "ok"})
}

// Readyz evaluates every checker under a [checkTimeout] deadline derived from
// the request context. A failing required check yields 503; failing optional
// checks only mark the body as degraded.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	rep, ready := h.evaluate(r.Context())

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, rep)
}

// evaluate runs all checkers and reports whether the service is ready.
func (h *Handler) evaluate(parent context.Context) (report, bool) {
	rep := report{
		Status: "ok",
		Checks: make(map[string]string, len(h.checkers)),
	}
	ready := true

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(parent, checkTimeout)
		err := c.Check(ctx)
		cancel()

		switch {
		case err == nil:
			rep.Checks[c.Name] = "ok"
		case c.Optional:
			rep.Checks[c.Name] = "degraded: " + err.Error()
			if rep.Status == "ok" {
				rep.Status = "degraded"
			}
		default:
			rep.Checks[c.Name] = "fail: " + err.Error()
			rep.Status = "fail"
			ready = false
		}
	}
	if len(h.checkers) == 0 {
		rep.Checks = nil
	}
	return rep, ready
}

// Register adds the probe routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// writeJSON encodes v with the given status code, falling back to a plain
// 500 when encoding fails.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
