// Package api exposes the bridge over HTTP so chat automations can reach
// the agent with plain POST requests.
//
// Routes:
//
//	POST /ask           submit a prompt and wait for the extracted response
//	GET  /status        report whether the agent session is running, busy or stopped
//	POST /skill/{name}  run a named skill through the agent
//	GET  /skills        list the available skills
//	GET  /health        liveness probe for the bridge process itself
//	GET  /              service banner
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nanobot-dev/nanobridge/internal/bridge"
	"github.com/nanobot-dev/nanobridge/internal/buildinfo"
	"github.com/nanobot-dev/nanobridge/internal/convlog"
)

// Asker drives prompts into an agent session.
type Asker interface {
	Ask(ctx context.Context, session, prompt string, timeout time.Duration) (*bridge.Response, error)
	Status(session string) bridge.SessionStatus
}

// Recorder persists completed exchanges. convlog.Recorder satisfies it.
type Recorder interface {
	Append(ex convlog.Exchange) error
}

// Options configures the server.
type Options struct {
	Addr           string
	Session        string
	DefaultTimeout time.Duration
	Driver         Asker
	Recorder       Recorder
	// SkillsDir holds one subdirectory per skill, each with a SKILL.md.
	SkillsDir string
	Logger    *slog.Logger
}

// Server is the HTTP front of the bridge.
type Server struct {
	addr           string
	session        string
	defaultTimeout time.Duration
	driver         Asker
	recorder       Recorder
	skillsDir      string
	log            *slog.Logger

	// one in-flight ask per session name
	locks sync.Map

	httpServer *http.Server
}

// NewServer builds a server from options. Driver is required.
func NewServer(opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	timeout := opts.DefaultTimeout
	if timeout <= 0 {
		timeout = bridge.DefaultAskTimeout
	}

	session := opts.Session
	if session == "" {
		session = "claude"
	}

	s := &Server{
		addr:           opts.Addr,
		session:        session,
		defaultTimeout: timeout,
		driver:         opts.Driver,
		recorder:       opts.Recorder,
		skillsDir:      opts.SkillsDir,
		log:            log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /ask", s.handleAsk)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("POST /skill/{name}", s.handleSkill)
	mux.HandleFunc("GET /skills", s.handleSkills)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)

	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           otelhttp.NewHandler(mux, "nanobridge.api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe blocks until the context is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}

	s.log.Info("bridge listening", "addr", ln.Addr().String(), "session", s.session)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}

		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	}
}

type askRequest struct {
	Prompt  string  `json:"prompt"`
	Session string  `json:"session,omitempty"`
	Timeout float64 `json:"timeout,omitempty"` // seconds
}

type askResponse struct {
	Success   bool    `json:"success"`
	Response  string  `json:"response"`
	Error     string  `json:"error,omitempty"`
	Completed bool    `json:"completed"`
	Elapsed   float64 `json:"elapsed_seconds"`
	Session   string  `json:"session"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "prompt is required"})
		return
	}

	session := req.Session
	if session == "" {
		session = s.session
	}

	timeout := s.defaultTimeout
	if req.Timeout > 0 {
		timeout = time.Duration(req.Timeout * float64(time.Second))
	}

	// Serialize asks per session so two prompts never interleave keystrokes.
	lock, _ := s.locks.LoadOrStore(session, &sync.Mutex{})
	mu := lock.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	resp, err := s.driver.Ask(r.Context(), session, req.Prompt, timeout)
	if err != nil {
		if errors.Is(err, bridge.ErrSessionNotFound) {
			writeJSON(w, http.StatusServiceUnavailable, askResponse{Error: err.Error(), Session: session})
			return
		}

		s.log.Error("ask failed", "session", session, "error", err)
		writeJSON(w, http.StatusInternalServerError, askResponse{Error: err.Error(), Session: session})

		return
	}

	if s.recorder != nil {
		if err := s.recorder.Append(convlog.Exchange{
			Session:   session,
			Prompt:    req.Prompt,
			Response:  resp.Text(),
			Completed: resp.Completed,
			Elapsed:   resp.Elapsed,
		}); err != nil {
			s.log.Warn("record exchange", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, askResponse{
		Success:   true,
		Response:  resp.Text(),
		Completed: resp.Completed,
		Elapsed:   resp.Elapsed.Seconds(),
		Session:   session,
	})
}

type statusResponse struct {
	Session  string            `json:"session"`
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	session := r.URL.Query().Get("session")
	if session == "" {
		session = s.session
	}

	status := s.driver.Status(session)

	code := http.StatusOK
	if status == bridge.StatusStopped {
		code = http.StatusServiceUnavailable
	}

	skills := "missing"
	if s.skillsDir != "" {
		if info, err := os.Stat(s.skillsDir); err == nil && info.IsDir() {
			skills = "available"
		}
	}

	writeJSON(w, code, statusResponse{
		Session: session,
		Status:  string(status),
		Services: map[string]string{
			"api":     "running",
			"session": string(status),
			"skills":  skills,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "nanobridge",
		"version": buildinfo.Version,
		"session": s.session,
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
