// Package control implements component I: a small HTTP listener exposing
// health, per-job status, manual trigger, and context-recycle endpoints.
// Grounded on the teacher's internal/api.Server route/handler split and
// jsonResponse helper, rebuilt against go-chi/chi/v5 for path params and
// middleware the way the rest of the pack's HTTP services do it.
package control

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pitchline/scoutd/internal/browser"
	"github.com/pitchline/scoutd/internal/domain"
	"github.com/pitchline/scoutd/internal/proxy"
	"github.com/pitchline/scoutd/internal/scheduler"
)

// Server is the control surface's HTTP handler set.
type Server struct {
	router    chi.Router
	sched     *scheduler.Scheduler
	pool      *browser.Pool
	rotator   *proxy.Rotator
	startedAt time.Time
}

// New builds a Server wired to the running scheduler and browser pool.
func New(sched *scheduler.Scheduler, pool *browser.Pool, rotator *proxy.Rotator) *Server {
	s := &Server{
		sched:     sched,
		pool:      pool,
		rotator:   rotator,
		startedAt: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Get("/jobs", s.handleListJobs)
	r.Post("/jobs/{name}/trigger", s.handleTrigger)
	r.Post("/contexts/recycle", s.handleRecycle)
	s.router = r

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":            true,
		"uptime":        time.Since(s.startedAt).String(),
		"context_stats": s.pool.Stats(),
		"proxy_enabled": s.rotator != nil && s.rotator.Enabled(),
	})
}

type jobStatusView struct {
	LastRun         *time.Time       `json:"last_run,omitempty"`
	LastDurationMs  int64            `json:"last_duration_ms"`
	LastStatus      domain.RunStatus `json:"last_status,omitempty"`
	RunCount        int              `json:"run_count"`
	FailCount       int              `json:"fail_count"`
	NextScheduledAt *time.Time       `json:"next_scheduled_at,omitempty"`
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	statuses := s.sched.Status()
	out := make(map[domain.JobType]jobStatusView, len(statuses))
	for jt, st := range statuses {
		view := jobStatusView{
			LastDurationMs:  st.LastDurationMs,
			LastStatus:      st.LastStatus,
			RunCount:        st.RunCount,
			FailCount:       st.FailCount,
			NextScheduledAt: st.NextScheduledAt,
		}
		if !st.LastRun.IsZero() {
			t := st.LastRun
			view.LastRun = &t
		}
		out[jt] = view
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	jt := domain.JobType(name)

	err := s.sched.Trigger(r.Context(), jt)
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "triggered", "job": name})
	case err == scheduler.ErrAlreadyRunning:
		writeJSON(w, http.StatusConflict, map[string]string{"error": "job already running"})
	case err == domain.ErrUnknownJob:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown job"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (s *Server) handleRecycle(w http.ResponseWriter, r *http.Request) {
	s.pool.RecycleAll("manual trigger via control surface")
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "recycling"})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
