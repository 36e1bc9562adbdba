// Package api provides a local HTTP API for trap status and control.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"lethalterm/internal/config"
	"lethalterm/internal/terminal"
	"lethalterm/internal/traps"
)

// Controller is the part of the state machine the API drives.
type Controller interface {
	Status() terminal.Status
	AddCode(code string) error
	RemoveCode(code string) error
	SetAllCodes(on bool)
}

// Server provides HTTP API for status and control. It is a
// terminal.Notifier: every status update is pushed to websocket clients.
type Server struct {
	configMgr *config.Manager
	ctrl      Controller
	token     string
	hub       *hub
	logger    *slog.Logger
	hubOnce   sync.Once
}

// NewServer creates a new API server
func NewServer(configMgr *config.Manager, ctrl Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		configMgr: configMgr,
		ctrl:      ctrl,
		token:     configMgr.Get().General.APIToken,
		logger:    logger.With("component", "api"),
	}
	s.hub = newHub(s)
	return s
}

// Handler returns the routed and wrapped handler. The websocket hub starts
// on first use.
func (s *Server) Handler() http.Handler {
	s.hubOnce.Do(func() { go s.hub.run() })

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/traps", s.handleTraps)
	mux.HandleFunc("/api/traps/all", s.handleAllTraps)
	mux.HandleFunc("/api/config", s.handleConfig)
	mux.HandleFunc("/ws", s.hub.serveWS)
	mux.HandleFunc("/health", s.handleHealth)

	return s.authMiddleware(s.recoverMiddleware(mux))
}

// Start serves on the loopback interface until ctx is done.
func (s *Server) Start(ctx context.Context, port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.logger.Info("API server listening", "addr", addr)

	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		s.hub.stop()
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("API server stopped: %w", err)
	}
	return nil
}

// Notify pushes a status update to connected websocket clients.
func (s *Server) Notify(status terminal.Status) {
	s.hub.publish(status)
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("handler panic", "path", r.URL.Path, "panic", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks API token if configured. Websocket clients may pass
// it as a token query parameter.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)

		if r.URL.Path == "/health" || s.token == "" {
			next.ServeHTTP(w, r)
			return
		}

		if r.Header.Get("Authorization") != "Bearer "+s.token && r.URL.Query().Get("token") != s.token {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.ctrl.Status())
}

type trapsResponse struct {
	Codes    []string `json:"codes"`
	AllCodes bool     `json:"all_codes"`
}

// handleTraps handles GET, POST and DELETE /api/traps. The code comes from
// the code query parameter or a {"code": ...} body.
func (s *Server) handleTraps(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		st := s.ctrl.Status()
		writeJSON(w, http.StatusOK, trapsResponse{Codes: st.Codes, AllCodes: st.AllCodes})
		return
	case http.MethodPost, http.MethodDelete:
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" && r.Body != nil {
		var body struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			code = body.Code
		}
	}
	if code == "" {
		http.Error(w, "Missing code", http.StatusBadRequest)
		return
	}

	var err error
	if r.Method == http.MethodPost {
		err = s.ctrl.AddCode(code)
	} else {
		err = s.ctrl.RemoveCode(code)
	}
	if err != nil {
		s.logger.Info("trap request rejected", "method", r.Method, "code", code, "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}

	st := s.ctrl.Status()
	writeJSON(w, http.StatusOK, trapsResponse{Codes: st.Codes, AllCodes: st.AllCodes})
}

// handleAllTraps handles POST /api/traps/all?enabled=<bool>
func (s *Server) handleAllTraps(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	enabled, err := strconv.ParseBool(r.URL.Query().Get("enabled"))
	if err != nil {
		http.Error(w, "enabled must be true or false", http.StatusBadRequest)
		return
	}
	s.ctrl.SetAllCodes(enabled)

	st := s.ctrl.Status()
	writeJSON(w, http.StatusOK, trapsResponse{Codes: st.Codes, AllCodes: st.AllCodes})
}

// handleConfig handles GET /api/config. The API token is never echoed.
func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cfg := *s.configMgr.Get()
	if cfg.General.APIToken != "" {
		cfg.General.APIToken = strings.Repeat("*", 8)
	}
	writeJSON(w, http.StatusOK, cfg)
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, traps.ErrDuplicateCode):
		return http.StatusConflict
	case errors.Is(err, traps.ErrUnknownCode):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
