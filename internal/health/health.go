// Package health serves an HTTP health check for a running process,
// grounded on internal/orchestrator/health.go.
package health

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ratchet-sh/taskframe/internal/tracker"
	"github.com/redis/go-redis/v9"
)

// Response is the JSON body served at /healthz.
type Response struct {
	Status string `json:"status"`
	Redis  string `json:"redis"`
	Error  string `json:"error,omitempty"`

	// Tracker is populated only when the Server was built with a non-nil
	// Tracker, giving an operator a worker-state snapshot. cmd/taskframed
	// builds its Server without one, so its responses carry no snapshot.
	Tracker []string `json:"tracker,omitempty"`
}

// Server serves /healthz, pinging rdb and, when tr is non-nil, attaching a
// Tracker snapshot to the response.
type Server struct {
	rdb     *redis.Client
	tracker *tracker.Tracker
	server  *http.Server
}

// New builds a Server. tr may be nil for roles that don't own a Tracker.
func New(rdb *redis.Client, tr *tracker.Tracker) *Server {
	return &Server{rdb: rdb, tracker: tr}
}

// Start listens on addr in the background and always returns nil. Listener
// errors, including a failure to bind addr, are printed from the background
// goroutine, not returned.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.healthCheckHandler)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("health server error: %v\n", err)
		}
	}()
	return nil
}

// Shutdown gracefully stops the health server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := Response{Status: "healthy"}

	if err := s.rdb.Ping(ctx).Err(); err != nil {
		resp.Status = "unhealthy"
		resp.Redis = "disconnected"
		resp.Error = err.Error()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(resp)
		return
	}
	resp.Redis = "connected"

	if s.tracker != nil {
		snap := s.tracker.Snapshot()
		resp.Tracker = make([]string, len(snap))
		for i, st := range snap {
			resp.Tracker[i] = string(st)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}
