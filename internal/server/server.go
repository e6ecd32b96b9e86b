// Package server exposes the housekeeper over HTTP: instruction
// processing, a liveness probe, and a self-check that exercises the core
// guard rails against a scripted model.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"keeper/internal/agent"
	"keeper/internal/analytics"
	"keeper/internal/domain"
	"keeper/internal/logging"
	"keeper/internal/resolve"
)

// Server routes housekeeper requests to the instruction processor.
type Server struct {
	processor *agent.Processor
	repo      domain.Reader
	token     string
	version   string
	started   time.Time
	log       *logging.StructuredLogger
}

func New(processor *agent.Processor, repo domain.Reader, token, version string) *Server {
	return &Server{
		processor: processor,
		repo:      repo,
		token:     token,
		version:   version,
		started:   time.Now(),
		log:       logging.NewStructuredLogger(nil, "server", false),
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /housekeeper/instruction", s.auth(s.handleInstruction))
	mux.HandleFunc("GET /housekeeper/health", s.auth(s.handleHealth))
	mux.HandleFunc("GET /housekeeper/self-check", s.auth(s.handleSelfCheck))
	return mux
}

// ListenAndServe blocks serving HTTP until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	logging.UserLog("listening on %s", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// auth enforces bearer-token authentication when a token is configured.
func (s *Server) auth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") || strings.TrimPrefix(header, "Bearer ") != s.token {
				s.log.Warn("rejected request", map[string]any{"path": r.URL.Path})
				writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid or missing bearer token"})
				return
			}
		}
		next(w, r)
	}
}

type instructionRequest struct {
	Instruction string `json:"instruction"`
	Actor       string `json:"actor,omitempty"`
}

func (s *Server) handleInstruction(w http.ResponseWriter, r *http.Request) {
	var req instructionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if strings.TrimSpace(req.Instruction) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "instruction must not be empty"})
		return
	}

	actorID := ""
	if req.Actor != "" {
		member, err := resolve.MemberByRef(s.repo.Snapshot(), req.Actor)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unknown actor: " + err.Error()})
			return
		}
		actorID = member.ID
	}

	reqLog := s.log.WithActor(req.Actor)
	result, err := s.processor.Process(r.Context(), req.Instruction, actorID)
	if err != nil {
		reqLog.Error("process instruction failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error(), "result": result})
		return
	}
	outcome := "planned"
	switch {
	case result.Execution != nil:
		outcome = "executed"
	case result.Plan.Clarification != "":
		outcome = "clarification"
	}
	analytics.TrackInstruction(outcome)
	reqLog.Info("instruction processed", map[string]any{
		"outcome": outcome,
		"rounds":  result.AgentStats.Rounds,
	})
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"version": s.version,
		"uptime":  time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleSelfCheck(w http.ResponseWriter, r *http.Request) {
	checks := runSelfChecks(r.Context())
	ok := true
	for _, c := range checks {
		if !c.Passed {
			ok = false
		}
	}
	status := http.StatusOK
	if !ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]any{"ok": ok, "checks": checks})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.DevLog("write response: %v", err)
	}
}
