package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/switchboard"
	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/internal/presentation/graph"
	"github.com/aretw0/switchboard/pkg/edit"
	model "github.com/aretw0/switchboard/pkg/graph"
	"github.com/aretw0/switchboard/pkg/session"
	"github.com/aretw0/switchboard/pkg/transform"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/mitchellh/mapstructure"
)

// SessionResult aligns with the OpenAPI Session schema so every adapter reports sessions the same way.
type SessionResult struct {
	ID        string            `json:"id" jsonschema_description:"Session ID, passed to every other session tool"`
	AgentID   string            `json:"agent_id" jsonschema_description:"Agent whose definition is being edited"`
	Status    session.Status    `json:"status" jsonschema_description:"loaded until the first edit, editing afterwards"`
	UndoDepth int               `json:"undo_depth" jsonschema_description:"Number of batches that can be undone"`
	Graph     model.View        `json:"graph" jsonschema_description:"Current states and transitions"`
	Issues    []transform.Issue `json:"issues,omitempty" jsonschema_description:"Repairs made while loading"`
}

// ApplyResult reports an applied batch.
type ApplyResult struct {
	Session  SessionResult  `json:"session"`
	Outcomes []edit.Outcome `json:"outcomes"`
}

func toSessionResult(snap *session.Snapshot) SessionResult {
	res := SessionResult{
		ID:        snap.ID,
		AgentID:   snap.AgentID,
		Status:    snap.Status,
		UndoDepth: snap.UndoDepth,
		Graph:     snap.Graph.View(),
	}
	if snap.Report != nil {
		res.Issues = snap.Report.Issues
	}
	return res
}

// Server exposes a session Manager as an MCP Server.
type Server struct {
	sessions  *session.Manager
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(mgr *session.Manager, opts ...Option) *Server {
	s := &Server{
		sessions:  mgr,
		mcpServer: server.NewMCPServer("switchboard-mcp", strings.TrimSpace(switchboard.Version)),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("open_session",
		mcp.WithDescription("Open an editor session on an agent's conversation flow. Agents without a stored flow start from a single state."),
		mcp.WithString("agent_id", mcp.Required(), mcp.Description("Agent whose flow to edit")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleOpen))

	s.mcpServer.AddTool(mcp.NewTool("apply_commands",
		mcp.WithDescription("Apply a batch of edit commands. Either every command applies or none does. "+
			"Ops: "+opList()+". A command with \"as\" labels what it creates; later commands refer to it as \"$label\"."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID from open_session")),
		mcp.WithArray("commands", mcp.Required(),
			mcp.Description("Edit commands, e.g. {\"op\":\"rename_state\",\"state\":\"N2\",\"new_name\":\"billing\"}"),
			mcp.Items(map[string]any{"type": "object"}),
		),
		mcp.WithOutputSchema[ApplyResult](),
	), mcp.NewStructuredToolHandler(s.handleApply))

	s.mcpServer.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Revert the last applied batch."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleUndo))

	s.mcpServer.AddTool(mcp.NewTool("save_session",
		mcp.WithDescription("Write the edited flow back to the agent record and close the session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithOutputSchema[session.SaveResult](),
	), mcp.NewStructuredToolHandler(s.handleSave))

	s.mcpServer.AddTool(mcp.NewTool("discard_session",
		mcp.WithDescription("Drop every unsaved edit and close the session."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
	), s.handleDiscard)

	s.mcpServer.AddTool(mcp.NewTool("show_session",
		mcp.WithDescription("Show the session's flow as a Mermaid diagram or as the definition that save would write."),
		mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID")),
		mcp.WithString("format", mcp.Enum("mermaid", "definition"), mcp.Description("Output format (default mermaid)")),
	), s.handleShow)

	s.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List the open editor sessions."),
	), s.handleListSessions)
}

func opList() string {
	names := make([]string, len(edit.Ops))
	for i, op := range edit.Ops {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}

func stringArg(args map[string]any, key string) (string, error) {
	v, _ := args[key].(string)
	if v == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return v, nil
}

// decodeCommands converts tool arguments into edit commands. Unknown keys are rejected.
func decodeCommands(raw any) ([]edit.Command, error) {
	if s, ok := raw.(string); ok {
		// Some clients send the array as a JSON string.
		var parsed any
		if err := json.Unmarshal([]byte(s), &parsed); err != nil {
			return nil, fmt.Errorf("commands: invalid JSON: %w", err)
		}
		raw = parsed
	}
	if raw == nil {
		return nil, errors.New("commands is required")
	}

	var cmds []edit.Command
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "mapstructure",
		ErrorUnused: true,
		Result:      &cmds,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("commands: %w", err)
	}
	return cmds, nil
}

func (s *Server) handleOpen(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (SessionResult, error) {
	agentID, err := stringArg(args, "agent_id")
	if err != nil {
		return SessionResult{}, err
	}
	snap, err := s.sessions.Open(ctx, agentID)
	if err != nil {
		return SessionResult{}, fmt.Errorf("open failed: %w", err)
	}
	return toSessionResult(snap), nil
}

func (s *Server) handleApply(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (ApplyResult, error) {
	sessionID, err := stringArg(args, "session_id")
	if err != nil {
		return ApplyResult{}, err
	}
	cmds, err := decodeCommands(args["commands"])
	if err != nil {
		s.logger.Debug("MCP Apply: Commands rejected", "err", err)
		return ApplyResult{}, err
	}

	snap, outcomes, err := s.sessions.Apply(ctx, sessionID, cmds...)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("apply failed: %w", err)
	}
	if outcomes == nil {
		outcomes = []edit.Outcome{}
	}
	return ApplyResult{Session: toSessionResult(snap), Outcomes: outcomes}, nil
}

func (s *Server) handleUndo(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (SessionResult, error) {
	sessionID, err := stringArg(args, "session_id")
	if err != nil {
		return SessionResult{}, err
	}
	snap, err := s.sessions.Undo(ctx, sessionID)
	if err != nil {
		return SessionResult{}, fmt.Errorf("undo failed: %w", err)
	}
	return toSessionResult(snap), nil
}

func (s *Server) handleSave(ctx context.Context, _ mcp.CallToolRequest, args map[string]any) (session.SaveResult, error) {
	sessionID, err := stringArg(args, "session_id")
	if err != nil {
		return session.SaveResult{}, err
	}
	result, err := s.sessions.Save(ctx, sessionID)
	if err != nil {
		return session.SaveResult{}, fmt.Errorf("save failed: %w", err)
	}
	return *result, nil
}

func (s *Server) handleDiscard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.sessions.Discard(ctx, sessionID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("discard failed: %v", err)), nil
	}
	return mcp.NewToolResultText("discarded " + sessionID), nil
}

func (s *Server) handleShow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	switch format := request.GetString("format", "mermaid"); format {
	case "mermaid":
		snap, err := s.sessions.Get(ctx, sessionID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("show failed: %v", err)), nil
		}
		return mcp.NewToolResultText(graph.GenerateMermaid(snap.Graph, nil)), nil

	case "definition":
		def, err := s.sessions.Preview(ctx, sessionID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("show failed: %v", err)), nil
		}
		jsonBytes, _ := json.MarshalIndent(def, "", "  ")
		return mcp.NewToolResultText(string(jsonBytes)), nil

	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q", format)), nil
	}
}

func (s *Server) handleListSessions(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonBytes, err := s.sessionsJSON(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) sessionsJSON(ctx context.Context) ([]byte, error) {
	snaps, err := s.sessions.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SessionResult, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, toSessionResult(snap))
	}
	return json.Marshal(out)
}

func (s *Server) registerResources() {
	// EXPOSE: switchboard://sessions
	s.mcpServer.AddResource(mcp.NewResource("switchboard://sessions", "Open Editor Sessions",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		jsonBytes, err := s.sessionsJSON(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list sessions: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "switchboard://sessions",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
