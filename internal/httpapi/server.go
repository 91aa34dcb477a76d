package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/doorward/gatekeeper/internal/gatekeeper/service"
)

// StatsProvider is the read-only view of the gatekeeper the status
// endpoint exposes.
type StatsProvider interface {
	Snapshot() service.Stats
}

type Dependencies struct {
	Logger   *log.Logger
	Addr     string
	ModuleID string
	Stats    StatsProvider
}

// Server is the agent's local status endpoint.  It is observational
// only: nothing here can open the door or touch the decision pipeline.
type Server struct {
	httpServer *http.Server
	logger     *log.Logger
	moduleID   string
	stats      StatsProvider
	startedAt  time.Time
}

func NewServer(d Dependencies) *Server {
	s := &Server{
		logger:    d.Logger,
		moduleID:  d.ModuleID,
		stats:     d.Stats,
		startedAt: time.Now().UTC(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Second))

	r.Get("/healthz", s.handleHealthz)
	r.Get("/v1/status", s.handleStatus)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

type statusResponse struct {
	ModuleID      string        `json:"module_id"`
	UptimeSeconds uint64        `json:"uptime_s"`
	ServerTime    string        `json:"server_time"`
	Stats         service.Stats `json:"stats"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	now := time.Now().UTC()
	writeJSON(w, http.StatusOK, statusResponse{
		ModuleID:      s.moduleID,
		UptimeSeconds: uint64(now.Sub(s.startedAt).Seconds()),
		ServerTime:    now.Format(time.RFC3339Nano),
		Stats:         s.stats.Snapshot(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
