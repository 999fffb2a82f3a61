package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/internal/presentation/graph"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/edit"
	model "github.com/aretw0/switchboard/pkg/graph"
	"github.com/aretw0/switchboard/pkg/session"
	"github.com/aretw0/switchboard/pkg/transform"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
)

// maxBody bounds command batch request bodies.
const maxBody = 1 << 20

// Server exposes a session Manager over REST.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	spec     *openapi3.T
	commands *schemaValidator
	logger   *slog.Logger
	metrics  http.Handler
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures a logger for request handling.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStreams shares a StreamManager whose Hooks are installed on the Manager.
func WithStreams(streams *StreamManager) Option {
	return func(s *Server) {
		s.Streams = streams
	}
}

// WithMetrics mounts a metrics handler at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// NewHandler creates the HTTP handler for the editor.
func NewHandler(mgr *session.Manager, opts ...Option) (http.Handler, error) {
	s := &Server{
		Sessions: mgr,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	spec, err := LoadSpec(context.Background())
	if err != nil {
		return nil, err
	}
	s.spec = spec
	if s.commands, err = newSchemaValidator(spec, "CommandBatch"); err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(RawSpec())
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Get("/agents", s.ListAgents)
	r.Route("/agents/{agentID}", func(r chi.Router) {
		r.Get("/definition", s.GetDefinition)
		r.Post("/sessions", s.OpenSession)
	})

	r.Get("/sessions", s.ListSessions)
	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Get("/", s.GetSession)
		r.Delete("/", s.DiscardSession)
		r.Post("/commands", s.ApplyCommands)
		r.Post("/undo", s.Undo)
		r.Post("/save", s.SaveSession)
		r.Get("/events", s.SubscribeEvents)
	})

	return r, nil
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionResponse is the wire form of a session snapshot.
type SessionResponse struct {
	ID        string            `json:"id"`
	AgentID   string            `json:"agent_id"`
	Status    session.Status    `json:"status"`
	OpenedAt  time.Time         `json:"opened_at"`
	UndoDepth int               `json:"undo_depth"`
	Graph     model.View        `json:"graph"`
	Issues    []transform.Issue `json:"issues,omitempty"`
}

func toSessionResponse(snap *session.Snapshot) SessionResponse {
	resp := SessionResponse{
		ID:        snap.ID,
		AgentID:   snap.AgentID,
		Status:    snap.Status,
		OpenedAt:  snap.OpenedAt,
		UndoDepth: snap.UndoDepth,
		Graph:     snap.Graph.View(),
	}
	if snap.Report != nil {
		resp.Issues = snap.Report.Issues
	}
	return resp
}

// ApplyRequest is the body of POST /sessions/{sessionID}/commands.
type ApplyRequest struct {
	Commands []edit.Command `json:"commands"`
}

// ApplyResponse reports a successfully applied batch.
type ApplyResponse struct {
	Session  SessionResponse `json:"session"`
	Outcomes []edit.Outcome  `json:"outcomes"`
}

// SaveResponse reports a save.
type SaveResponse struct {
	Record *domain.Record          `json:"record"`
	Diff   *domain.DefinitionDiff `json:"diff,omitempty"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	writeJSON(w, s.logger, http.StatusOK, map[string]string{
		"app":         "switchboard-http",
		"version":     strings.TrimSpace(switchboard.Version),
		"api_version": apiVersion,
	})
}

// ListAgents handles the GET /agents request.
func (s *Server) ListAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := s.Sessions.Store().List(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if agents == nil {
		agents = []string{}
	}
	writeJSON(w, s.logger, http.StatusOK, agents)
}

// GetDefinition handles the GET /agents/{agentID}/definition request.
func (s *Server) GetDefinition(w http.ResponseWriter, r *http.Request) {
	record, err := s.Sessions.Store().Load(r.Context(), chi.URLParam(r, "agentID"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, record)
}

// OpenSession handles the POST /agents/{agentID}/sessions request.
func (s *Server) OpenSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sessions.Open(r.Context(), chi.URLParam(r, "agentID"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusCreated, toSessionResponse(snap))
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.Sessions.List(r.Context())
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	resp := make([]SessionResponse, 0, len(snaps))
	for _, snap := range snaps {
		resp = append(resp, toSessionResponse(snap))
	}
	writeJSON(w, s.logger, http.StatusOK, resp)
}

// GetSession handles the GET /sessions/{sessionID} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	format := "json"
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	switch format {
	case "json":
		snap, err := s.Sessions.Get(r.Context(), sessionID)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		writeJSON(w, s.logger, http.StatusOK, toSessionResponse(snap))

	case "mermaid":
		snap, err := s.Sessions.Get(r.Context(), sessionID)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, graph.GenerateMermaid(snap.Graph, nil))

	case "definition":
		def, err := s.Sessions.Preview(r.Context(), sessionID)
		if err != nil {
			writeError(w, s.logger, err)
			return
		}
		writeJSON(w, s.logger, http.StatusOK, def)

	default:
		writeError(w, s.logger, fmt.Errorf("%w: unknown format %q", errBadRequest, format))
	}
}

// ApplyCommands handles the POST /sessions/{sessionID}/commands request.
func (s *Server) ApplyCommands(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err))
		return
	}
	if err := s.commands.Validate(raw); err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	var req ApplyRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	snap, outcomes, err := s.Sessions.Apply(r.Context(), chi.URLParam(r, "sessionID"), req.Commands...)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	if outcomes == nil {
		outcomes = []edit.Outcome{}
	}
	writeJSON(w, s.logger, http.StatusOK, ApplyResponse{
		Session:  toSessionResponse(snap),
		Outcomes: outcomes,
	})
}

// Undo handles the POST /sessions/{sessionID}/undo request.
func (s *Server) Undo(w http.ResponseWriter, r *http.Request) {
	snap, err := s.Sessions.Undo(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, toSessionResponse(snap))
}

// SaveSession handles the POST /sessions/{sessionID}/save request.
func (s *Server) SaveSession(w http.ResponseWriter, r *http.Request) {
	result, err := s.Sessions.Save(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, s.logger, http.StatusOK, SaveResponse{Record: result.Record, Diff: result.Diff})
}

// DiscardSession handles the DELETE /sessions/{sessionID} request.
func (s *Server) DiscardSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Discard(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SubscribeEvents handles the GET /sessions/{sessionID}/events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var types []string
	if err := runtime.BindQueryParameter("form", false, false, "types", r.URL.Query(), &types); err != nil {
		writeError(w, s.logger, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	// Subscribe before checking the session so no event published in between is lost.
	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	if _, err := s.Sessions.Get(r.Context(), sessionID); err != nil {
		writeError(w, s.logger, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	s.logger.Info("SSE: Subscribing to Session Updates", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				// Session closed
				return
			}
			if len(types) > 0 && !slices.Contains(types, msg.Event) {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Event, msg.Data)
			flusher.Flush()
		}
	}
}
