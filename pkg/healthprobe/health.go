// Package healthprobe provides liveness and readiness handlers. Readiness
// tracks whether the RTDS stream is connected and subscribed.
package healthprobe

import (
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HealthChecker provides health and readiness checks.
type HealthChecker struct {
	startTime time.Time
	ready     atomic.Bool

	mu      sync.RWMutex
	details map[string]string
}

// New creates a new HealthChecker.
func New() *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		details:   make(map[string]string),
	}
}

// SetReady marks the application as ready to serve traffic.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// SetDetail records a named status detail included in probe responses,
// e.g. the stream connection state.
func (h *HealthChecker) SetDetail(key, value string) {
	h.mu.Lock()
	h.details[key] = value
	h.mu.Unlock()
}

func (h *HealthChecker) snapshot() map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.details) == 0 {
		return nil
	}
	out := make(map[string]string, len(h.details))
	for k, v := range h.details {
		out[k] = v
	}
	return out
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status  string            `json:"status"`
	Uptime  string            `json:"uptime"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Health returns an HTTP handler for liveness checks.
// Always returns 200 OK if the application is running.
func (h *HealthChecker) Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:  "healthy",
			Uptime:  time.Since(h.startTime).String(),
			Details: h.snapshot(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// Ready returns an HTTP handler for readiness checks.
// Returns 200 OK if ready, 503 Service Unavailable if not.
func (h *HealthChecker) Ready() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !h.ready.Load() {
			resp := HealthResponse{
				Status:  "not_ready",
				Message: "stream not connected",
				Details: h.snapshot(),
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(resp)
			return
		}

		resp := HealthResponse{
			Status:  "ready",
			Uptime:  time.Since(h.startTime).String(),
			Details: h.snapshot(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
