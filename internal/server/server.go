// Package server exposes the conversational HTTP surface: one message
// endpoint, a health check, and Prometheus metrics.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"

	"github.com/hollis/cradle/internal/metrics"
	"github.com/hollis/cradle/pkg/agent"
	"github.com/hollis/cradle/pkg/convlog"
	"github.com/hollis/cradle/pkg/huckleberry"
	"github.com/hollis/cradle/pkg/session"
)

// TurnRunner runs one conversational turn.
type TurnRunner interface {
	RunTurn(ctx context.Context, userMessage string, history []anthropic.MessageParam) (agent.TurnResult, error)
}

// DoneOracle decides whether an exchange ended the conversation.
type DoneOracle interface {
	Done(ctx context.Context, userMessage, reply string) bool
}

// BackendStatus is the slice of the Huckleberry manager the health and
// readiness checks need.
type BackendStatus interface {
	Authenticated() bool
	Children() []huckleberry.Child
}

// MessageRequest is the body of POST /message.
type MessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// MessageResponse is the reply body of POST /message.
type MessageResponse struct {
	SessionID        string `json:"session_id"`
	Reply            string `json:"reply"`
	TurnCount        int    `json:"turn_count"`
	ConversationDone bool   `json:"conversation_done"`
}

type healthChild struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

type healthResponse struct {
	Status                   string        `json:"status"`
	HuckleberryAuthenticated bool          `json:"huckleberry_authenticated"`
	ActiveChildren           []healthChild `json:"active_children"`
	ActiveSessions           int           `json:"active_sessions"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

// Server is the conversational HTTP server
type Server struct {
	host           string
	port           int
	runner         TurnRunner
	sessions       *session.Store
	status         BackendStatus
	classifier     DoneOracle
	convLog        *convlog.Log
	metrics        *metrics.Metrics
	rateLimiter    *RateLimiter
	logger         zerolog.Logger
	server         *http.Server
	isShuttingDown bool
	shutdownMu     sync.RWMutex
	inFlightReqs   sync.WaitGroup
}

// Config holds server configuration
type Config struct {
	Host               string
	Port               int
	RateLimitPerMinute int
	Runner             TurnRunner
	Sessions           *session.Store
	Status             BackendStatus
	Classifier         DoneOracle
	ConvLog            *convlog.Log
	Metrics            *metrics.Metrics
	Logger             zerolog.Logger
}

// NewServer creates the HTTP server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, fmt.Errorf("turn runner is required")
	}
	if cfg.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.Status == nil {
		return nil, fmt.Errorf("backend status is required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 8000
	}
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.RateLimitPerMinute <= 0 {
		cfg.RateLimitPerMinute = 100
	}

	return &Server{
		host:        cfg.Host,
		port:        cfg.Port,
		runner:      cfg.Runner,
		sessions:    cfg.Sessions,
		status:      cfg.Status,
		classifier:  cfg.Classifier,
		convLog:     cfg.ConvLog,
		metrics:     cfg.Metrics,
		rateLimiter: NewRateLimiter(cfg.RateLimitPerMinute),
		logger:      cfg.Logger,
	}, nil
}

// Handler builds the route mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/message", s.handleMessage)
	mux.HandleFunc("/health", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics.Handler())
	}
	return mux
}

// Start runs the server until Stop is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.host, s.port),
		Handler: s.Handler(),
	}

	s.logger.Info().
		Str("host", s.host).
		Int("port", s.port).
		Msg("Starting HTTP server")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests and shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	s.shutdownMu.Lock()
	s.isShuttingDown = true
	s.shutdownMu.Unlock()

	s.logger.Info().Msg("Shutting down HTTP server")

	done := make(chan struct{})
	go func() {
		s.inFlightReqs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn().Msg("Shutdown deadline reached, forcing close")
	}

	s.rateLimiter.Stop()

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	children := s.status.Children()
	active := make([]healthChild, 0, len(children))
	for _, c := range children {
		active = append(active, healthChild{UID: c.UID, Name: c.Name})
	}

	s.writeJSON(w, http.StatusOK, healthResponse{
		Status:                   "ok",
		HuckleberryAuthenticated: s.status.Authenticated(),
		ActiveChildren:           active,
		ActiveSessions:           s.sessions.ActiveCount(),
	})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	s.shutdownMu.RLock()
	if s.isShuttingDown {
		s.shutdownMu.RUnlock()
		s.writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	}
	s.shutdownMu.RUnlock()

	s.inFlightReqs.Add(1)
	defer s.inFlightReqs.Done()

	ip := clientIP(r)
	if !s.rateLimiter.Allow(ip) {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", s.rateLimiter.RetryAfter(ip)))
		s.writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	var req MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		s.writeError(w, http.StatusBadRequest, "message must not be empty")
		return
	}

	if !s.status.Authenticated() {
		s.writeError(w, http.StatusServiceUnavailable, "Huckleberry not authenticated")
		return
	}
	if len(s.status.Children()) == 0 {
		s.writeError(w, http.StatusServiceUnavailable, "No children found in Huckleberry account")
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		id, err := gonanoid.New()
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, "failed to allocate session id")
			return
		}
		sessionID = id
	}

	sess := s.sessions.GetOrCreate(sessionID)

	start := time.Now()
	result, err := s.runner.RunTurn(r.Context(), req.Message, sess.History)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("Agent error")
		s.writeError(w, http.StatusInternalServerError, fmt.Sprintf("Agent error: %v", err))
		return
	}

	sess.History = result.History
	sess.TurnCount++
	s.sessions.Save(sess)

	done := false
	if s.classifier != nil {
		done = s.classifier.Done(r.Context(), req.Message, result.Reply)
	}

	if s.convLog != nil {
		s.convLog.Append(convlog.Entry{
			SessionID:        sessionID,
			Turn:             sess.TurnCount,
			User:             req.Message,
			Reply:            result.Reply,
			ConversationDone: done,
		})
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Int("turn", sess.TurnCount).
		Int("rounds", result.Rounds).
		Dur("duration", time.Since(start)).
		Bool("conversation_done", done).
		Msg("Turn completed")

	s.writeJSON(w, http.StatusOK, MessageResponse{
		SessionID:        sessionID,
		Reply:            result.Reply,
		TurnCount:        sess.TurnCount,
		ConversationDone: done,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, detail string) {
	s.writeJSON(w, status, errorResponse{Detail: detail})
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
