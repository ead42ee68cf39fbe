// Package api exposes the host-facing operations over HTTP: initialize
// with settings, start, stop, manual poll, and bot status.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/fishyer/obsidian-telegram-inbox/internal/bot"
	"github.com/fishyer/obsidian-telegram-inbox/internal/config"
)

const shutdownTimeout = 5 * time.Second

// ConfigLoader re-reads the configuration for /bot/init, so a reinit picks
// up edited settings the same way the original host re-read saved settings.
type ConfigLoader func() (*config.Config, error)

// Server is the HTTP control surface around the lifecycle controller.
type Server struct {
	srv        *http.Server
	log        *slog.Logger
	controller *bot.Controller
	loadConfig ConfigLoader
}

// NewServer creates the control server listening on addr.
func NewServer(addr string, controller *bot.Controller, loadConfig ConfigLoader, log *slog.Logger) *Server {
	s := &Server{
		log:        log.With("component", "api_server"),
		controller: controller,
		loadConfig: loadConfig,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /bot/info", s.handleInfo)
	mux.HandleFunc("POST /bot/init", s.handleInit)
	mux.HandleFunc("POST /bot/start", s.handleStart)
	mux.HandleFunc("POST /bot/stop", s.handleStop)
	mux.HandleFunc("POST /bot/poll", s.handlePoll)

	s.srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("Control API listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		s.log.Error("Control API shutdown failed", "error", err)
		return err
	}

	return <-errCh
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.controller.Info())
}

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.loadConfig()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	if err := s.controller.Init(r.Context(), *cfg); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, bot.ErrNoToken) {
			status = http.StatusBadRequest
		}
		s.writeError(w, status, err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.controller.Info())
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Start(r.Context()); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, bot.ErrNotInitialized) {
			status = http.StatusConflict
		}
		s.writeError(w, status, err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.controller.Info())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Stop(r.Context()); err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.controller.Info())
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.Poll(r.Context()); err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}

	s.writeJSON(w, http.StatusOK, s.controller.Info())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("Failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
