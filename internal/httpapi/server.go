package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/fabiogreco/duet/internal/assistant"
	"github.com/fabiogreco/duet/internal/auth"
	"github.com/fabiogreco/duet/internal/blob"
	"github.com/fabiogreco/duet/internal/chat"
	"github.com/fabiogreco/duet/internal/config"
	"github.com/fabiogreco/duet/internal/observability"
	"github.com/fabiogreco/duet/internal/realtime"
)

type Server struct {
	cfg          config.Config
	store        chat.Store
	tokens       *auth.Tokens
	registry     *realtime.Registry
	fanout       *realtime.Fanout
	orchestrator *assistant.Orchestrator
	uploader     blob.Uploader
	metrics      *observability.Metrics
	upgrader     websocket.Upgrader
}

func New(
	cfg config.Config,
	store chat.Store,
	tokens *auth.Tokens,
	registry *realtime.Registry,
	fanout *realtime.Fanout,
	orchestrator *assistant.Orchestrator,
	uploader blob.Uploader,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		cfg:          cfg,
		store:        store,
		tokens:       tokens,
		registry:     registry,
		fanout:       fanout,
		orchestrator: orchestrator,
		uploader:     uploader,
		metrics:      metrics,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					// Non-browser clients often omit Origin. Allow them.
					return true
				}
				return strings.EqualFold(origin, cfg.ClientOrigin)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.corsMiddleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/api/auth/signup", s.handleSignup)
	r.Post("/api/auth/login", s.handleLogin)
	r.Post("/api/auth/logout", s.handleLogout)

	authed := s.tokens.Middleware(respondError)
	r.Group(func(r chi.Router) {
		r.Use(authed)
		r.Get("/api/auth/check", s.handleCheck)
		r.Get("/api/messages/users", s.handleListUsers)
		r.Get("/api/messages/{id}", s.handleConversation)
		r.Post("/api/messages/send/{id}", s.handleSendMessage)
	})

	r.Get("/ws", s.handleWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"assistant_enabled": s.orchestrator != nil,
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := s.cfg.ClientOrigin
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) secureCookies() bool {
	return strings.HasPrefix(strings.ToLower(s.cfg.ClientOrigin), "https://")
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
