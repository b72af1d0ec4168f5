package api

import (
	"context"
	"dispatcher/internal/domain"
	"dispatcher/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"
)

const maxHistory = 50

type CycleRunner interface {
	RunCycle(ctx context.Context) (domain.CycleReport, error)
}

// HealthFunc reports whether backing services are reachable.
type HealthFunc func(ctx context.Context) error

// NewServer builds the admin API. reports and health may be nil.
func NewServer(runner CycleRunner, reports ports.ReportStore, health HealthFunc) *Server {
	s := &Server{runner: runner, reports: reports, health: health}

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		hlog.NewHandler(log.Logger),
		hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
			hlog.FromRequest(r).Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("request_id", middleware.GetReqID(r.Context())).
				Int("status", status).
				Dur("took", duration).
				Msg("request")
		}),
		middleware.Recoverer,
	)

	r.Get("/healthz", s.healthz)
	r.Get("/cycles", s.listCycles)
	r.Get("/cycles/last", s.lastCycle)
	r.With(httprate.LimitByIP(6, time.Minute)).Post("/cycles", s.runCycle)

	s.router = r
	return s
}

type Server struct {
	router  *chi.Mux
	runner  CycleRunner
	reports ports.ReportStore
	health  HealthFunc
}

func (s *Server) Handler() http.Handler { return s.router }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) lastCycle(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report history not configured")
		return
	}
	report, err := s.reports.Last(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "no cycle recorded yet")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) listCycles(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		writeError(w, http.StatusServiceUnavailable, "report history not configured")
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistory)
	}

	reports, err := s.reports.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if reports == nil {
		reports = []domain.CycleReport{}
	}
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) runCycle(w http.ResponseWriter, r *http.Request) {
	// the cycle outlives a dropped client connection
	report, err := s.runner.RunCycle(context.WithoutCancel(r.Context()))
	if errors.Is(err, domain.ErrCycleInFlight) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// Run method of the Server struct runs the HTTP server on the specified port and
// shuts it down gracefully on SIGINT or SIGTERM.
func (s *Server) Run(port int) {
	addr := fmt.Sprintf(":%d", port)

	httpServer := http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 5 * time.Minute,
	}

	done := make(chan bool)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Fatal().Err(err).Msg("Server forced to shutdown")
		}

		close(done)
	}()

	log.Info().Msgf("server serving on port %d", port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Failed to listen and serve")
	}

	<-done
	log.Info().Msg("Server stopped")
}
