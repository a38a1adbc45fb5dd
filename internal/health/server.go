// Package health serves liveness and readiness endpoints on a sidecar port,
// aggregating named dependency probes (database, market data) per request.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const probeTimeout = 3 * time.Second

// DatabasePinger checks database connectivity.
type DatabasePinger interface {
	Ping(ctx context.Context) error
}

// Probe is a named readiness dependency. Run must honor ctx; a nil error
// means the dependency can serve traffic.
type Probe struct {
	Name string
	Run  func(ctx context.Context) error
}

// DatabaseProbe wraps a pool ping as a readiness probe.
func DatabaseProbe(db DatabasePinger) Probe {
	return Probe{Name: "database", Run: db.Ping}
}

// ProbeResult is the per-dependency entry in the readiness response.
type ProbeResult struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type healthBody struct {
	Status        string `json:"status"`
	Service       string `json:"service"`
	Version       string `json:"version,omitempty"`
	Commit        string `json:"commit,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds"`
	Timestamp     string `json:"timestamp"`
}

type readyBody struct {
	Status  string        `json:"status"`
	Service string        `json:"service"`
	Checks  []ProbeResult `json:"checks"`
}

// Config configures the health server.
type Config struct {
	ServiceName string
	Version     string
	Commit      string
	Port        string // falls back to QUANTDESK_HEALTH_PORT, then 8081
	Logger      *logrus.Logger
	Probes      []Probe
}

// Server answers /health, /ready and /live on its own listener so probes
// stay reachable while the API server drains.
type Server struct {
	service string
	version string
	commit  string
	port    string
	log     *logrus.Logger
	probes  []Probe
	started time.Time

	httpServer *http.Server
	mu         sync.RWMutex
	ready      bool
}

// NewServer builds a health server; call Start to begin serving.
func NewServer(cfg Config) *Server {
	port := cfg.Port
	if port == "" {
		port = os.Getenv("QUANTDESK_HEALTH_PORT")
	}
	if port == "" {
		port = "8081"
	}
	return &Server{
		service: cfg.ServiceName,
		version: cfg.Version,
		commit:  cfg.Commit,
		port:    port,
		log:     cfg.Logger,
		probes:  cfg.Probes,
		started: time.Now(),
	}
}

// SetReady flips the readiness gate; /ready reports 503 while false even
// when every probe passes.
func (s *Server) SetReady(ready bool) {
	s.mu.Lock()
	s.ready = ready
	s.mu.Unlock()
}

// IsReady reports the readiness gate.
func (s *Server) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Start serves in the background and shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/ready", s.handleReady)
	mux.HandleFunc("/live", s.handleLive)

	s.httpServer = &http.Server{
		Addr:         ":" + s.port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if s.log != nil {
			s.log.WithFields(logrus.Fields{
				"port":    s.port,
				"service": s.service,
				"probes":  len(s.probes),
			}).Info("Health server listening")
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.log != nil {
				s.log.WithError(err).Error("Health server failed")
			}
		}
	}()

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()
	return nil
}

// Shutdown stops the listener, waiting up to five seconds for in-flight probes.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	if s.log != nil {
		s.log.Info("Health server stopping")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}

// runProbes executes every registered probe with its own timeout. A slow or
// failing dependency is reported, never skipped.
func (s *Server) runProbes(ctx context.Context) ([]ProbeResult, bool) {
	results := make([]ProbeResult, 0, len(s.probes))
	healthy := true
	for _, probe := range s.probes {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		start := time.Now()
		err := probe.Run(probeCtx)
		cancel()

		result := ProbeResult{
			Name:      probe.Name,
			Status:    "ok",
			LatencyMS: time.Since(start).Milliseconds(),
		}
		if err != nil {
			healthy = false
			result.Status = "failing"
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results, healthy
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthBody{
		Status:        "ok",
		Service:       s.service,
		Version:       s.version,
		Commit:        s.commit,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive", "service": s.service})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	checks, healthy := s.runProbes(r.Context())

	body := readyBody{Service: s.service, Checks: checks}
	if healthy && s.IsReady() {
		body.Status = "ready"
		writeJSON(w, http.StatusOK, body)
		return
	}
	body.Status = "not_ready"
	writeJSON(w, http.StatusServiceUnavailable, body)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
