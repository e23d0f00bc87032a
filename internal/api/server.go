// Package api exposes the controller to a view over HTTP.
//
// The view reads the state with GET /api/state, follows changes with the
// server-sent event stream at GET /api/events, and triggers transitions with
// POST /api/actions/{action} carrying the action's arguments as JSON.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/vibevoice/internal/app"
)

// Server timeouts.
const (
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	idleTimeout       = 60 * time.Second
	eventBuffer       = 16
)

// Server serves the view API for one controller.
type Server struct {
	controller *app.Controller
	log        *logger.Logger
	handler    http.Handler

	// background scopes actions that outlive their request.
	background context.Context
	cancel     context.CancelFunc
	inflight   sync.WaitGroup

	server   *http.Server
	listener net.Listener
}

// NewServer builds the routes for controller.
func NewServer(controller *app.Controller, log *logger.Logger) *Server {
	background, cancel := context.WithCancel(context.Background())

	srv := &Server{
		controller: controller,
		log:        log,
		background: background,
		cancel:     cancel,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", srv.handleHealth)
	mux.HandleFunc("GET /api/state", srv.handleState)
	mux.HandleFunc("GET /api/events", srv.handleEvents)
	mux.HandleFunc("POST /api/actions/{action}", srv.handleAction)
	srv.handler = mux

	return srv
}

// Handler returns the HTTP handler, for embedding or tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on bind and serves in the background. It returns the bound
// address.
func (s *Server) Start(bind string) (string, error) {
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return "", fmt.Errorf("api listen: %w", err)
	}

	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		IdleTimeout:       idleTimeout,
	}
	// Event streams never go idle on their own.
	s.server.RegisterOnShutdown(s.cancel)

	go func() {
		serveErr := s.server.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logError("API server error: %v", serveErr)
		}
	}()

	return listener.Addr().String(), nil
}

// Shutdown stops accepting requests, cancels background actions and waits
// for them to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	if s.server != nil {
		shutdownErr = s.server.Shutdown(ctx)
	}

	s.cancel()
	s.Wait()

	if shutdownErr != nil {
		return fmt.Errorf("api shutdown: %w", shutdownErr)
	}

	return nil
}

// Wait blocks until every background action has completed.
func (s *Server) Wait() {
	s.inflight.Wait()
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, s.controller.Snapshot())
}

// handleEvents streams a snapshot after every transition. Slow readers miss
// intermediate snapshots rather than blocking the controller.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		s.writeError(w, http.StatusInternalServerError, "streaming unsupported")

		return
	}

	updates := make(chan app.Snapshot, eventBuffer)
	unsubscribe := s.controller.Subscribe(func(snapshot app.Snapshot) {
		select {
		case updates <- snapshot:
		default:
		}
	})
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	err := writeEvent(w, s.controller.Snapshot())
	if err != nil {
		return
	}

	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-s.background.Done():
			return
		case snapshot := <-updates:
			err = writeEvent(w, snapshot)
			if err != nil {
				return
			}

			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, snapshot app.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = fmt.Fprintf(w, "event: state\ndata: %s\n\n", data)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}

	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if payload == nil {
		return
	}

	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		s.logError("Failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) logInfo(format string, args ...any) {
	if s.log != nil {
		s.log.Info(format, args...)
	}
}

func (s *Server) logError(format string, args ...any) {
	if s.log != nil {
		s.log.Error(format, args...)
	}
}
