package http

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/adapters/memory"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/dsl"
	"github.com/aretw0/switchboard/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler http.Handler
	store   *memory.Store
	streams *StreamManager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := dsl.New()
	b.Add("greeting").Prompt("Hello").When("asks about billing", "billing")
	b.Add("billing").Prompt("Invoices")

	store, err := memory.NewFromDefinitions(map[string]*domain.Definition{"support": b.MustBuild()})
	require.NoError(t, err)

	streams := NewStreamManager(nil)
	mgr := session.NewManager(store, session.WithHooks(streams.Hooks()))
	handler, err := NewHandler(mgr,
		WithStreams(streams),
		WithMetrics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("metrics"))
		})),
	)
	require.NoError(t, err)
	return &fixture{handler: handler, store: store, streams: streams}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func (f *fixture) open(t *testing.T, agentID string) SessionResponse {
	t.Helper()
	w := f.do(t, "POST", "/agents/"+agentID+"/sessions", "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func TestLoadSpec(t *testing.T) {
	doc, err := LoadSpec(context.Background())
	require.NoError(t, err)
	for _, path := range []string{
		"/health", "/info", "/agents", "/agents/{agentID}/definition", "/agents/{agentID}/sessions",
		"/sessions", "/sessions/{sessionID}", "/sessions/{sessionID}/commands",
		"/sessions/{sessionID}/undo", "/sessions/{sessionID}/save", "/sessions/{sessionID}/events",
	} {
		assert.NotNil(t, doc.Paths.Value(path), path)
	}
}

func TestServer_HealthInfoSpec(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = f.do(t, "GET", "/info", "")
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "switchboard-http", info["app"])
	assert.Equal(t, "1.0.0", info["api_version"])
	assert.NotEmpty(t, info["version"])

	w = f.do(t, "GET", "/openapi.yaml", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")

	w = f.do(t, "GET", "/metrics", "")
	assert.Equal(t, "metrics", w.Body.String())

	w = f.do(t, "OPTIONS", "/sessions", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Definitions(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, "GET", "/agents", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["support"]`, w.Body.String())

	w = f.do(t, "GET", "/agents/support/definition", "")
	require.Equal(t, http.StatusOK, w.Code)
	var record domain.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &record))
	assert.Equal(t, []string{"greeting", "billing"}, record.Definition.Names())

	w = f.do(t, "GET", "/agents/ghost/definition", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_EditAndSave(t *testing.T) {
	f := newFixture(t)
	sess := f.open(t, "support")
	assert.Equal(t, "support", sess.AgentID)
	assert.Equal(t, session.StatusLoaded, sess.Status)
	assert.Equal(t, "greeting", sess.Graph.Start)
	require.Len(t, sess.Graph.Edges, 1)

	w := f.do(t, "POST", "/sessions/"+sess.ID+"/commands", `{"commands":[
		{"op":"add_state","as":"faq"},
		{"op":"rename_state","state":"$faq","new_name":"faq"},
		{"op":"add_transition","source":"greeting","target":"faq","description":"has a question","speak":true},
		{"op":"move_state","state":"faq","position":{"x":10,"y":20}}
	]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var applied ApplyResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &applied))
	require.Len(t, applied.Outcomes, 4)
	assert.Equal(t, "faq", applied.Outcomes[1].State)
	assert.NotEmpty(t, applied.Outcomes[2].Edge)
	assert.Equal(t, session.StatusEditing, applied.Session.Status)
	assert.Equal(t, 1, applied.Session.UndoDepth)
	require.Len(t, applied.Session.Graph.Edges, 2)
	assert.True(t, applied.Session.Graph.Edges[1].SpeakDuringTransition)

	w = f.do(t, "GET", "/sessions/"+sess.ID+"?format=mermaid", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "graph TD\n"))
	assert.Contains(t, w.Body.String(), `== "has a question" ==>`)

	w = f.do(t, "GET", "/sessions/"+sess.ID+"?format=definition", "")
	require.Equal(t, http.StatusOK, w.Code)
	var preview domain.Definition
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &preview))
	assert.Equal(t, []string{"greeting", "billing", "faq"}, preview.Names())

	stored, err := f.store.Load(context.Background(), "support")
	require.NoError(t, err)
	assert.Len(t, stored.Definition.States, 2, "nothing is written before save")

	w = f.do(t, "POST", "/sessions/"+sess.ID+"/save", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var saved SaveResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saved))
	require.NotNil(t, saved.Diff)
	assert.Equal(t, []string{"faq"}, saved.Diff.Added)

	stored, err = f.store.Load(context.Background(), "support")
	require.NoError(t, err)
	assert.Equal(t, []string{"greeting", "billing", "faq"}, stored.Definition.Names())

	w = f.do(t, "GET", "/sessions/"+sess.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_ErrorMapping(t *testing.T) {
	f := newFixture(t)
	sess := f.open(t, "support")
	path := "/sessions/" + sess.ID

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		status  int
		command *int
	}{
		{"unknown session", "GET", "/sessions/nope", "", http.StatusNotFound, nil},
		{"invalid json", "POST", path + "/commands", `{"commands":`, http.StatusBadRequest, nil},
		{"schema violation", "POST", path + "/commands", `{"commands":[{"state":"x"}]}`, http.StatusBadRequest, nil},
		{"missing commands", "POST", path + "/commands", `{}`, http.StatusBadRequest, nil},
		{"unknown format", "GET", path + "?format=png", "", http.StatusBadRequest, nil},
		{"duplicate rename", "POST", path + "/commands",
			`{"commands":[{"op":"add_state"},{"op":"rename_state","state":"greeting","new_name":"billing"}]}`,
			http.StatusUnprocessableEntity, ptr(1)},
		{"unknown op", "POST", path + "/commands", `{"commands":[{"op":"explode"}]}`, http.StatusUnprocessableEntity, ptr(0)},
		{"nothing to undo", "POST", path + "/undo", "", http.StatusConflict, nil},
		{"unknown session commands", "POST", "/sessions/nope/commands", `{"commands":[]}`, http.StatusNotFound, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			resp := decodeError(t, w)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.command, resp.Command)
		})
	}

	// Rejected batches leave the session untouched.
	w := f.do(t, "GET", path, "")
	require.Equal(t, http.StatusOK, w.Code)
	var current SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &current))
	assert.Len(t, current.Graph.Nodes, 2)
	assert.Equal(t, session.StatusLoaded, current.Status)
}

func TestServer_UndoListDiscard(t *testing.T) {
	f := newFixture(t)
	sess := f.open(t, "support")
	other := f.open(t, "fresh")
	assert.Equal(t, domain.DefaultStateName, other.Graph.Start)

	w := f.do(t, "POST", "/sessions/"+sess.ID+"/commands", `{"commands":[{"op":"delete_state","state":"billing"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, "POST", "/sessions/"+sess.ID+"/undo", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var undone SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &undone))
	assert.Len(t, undone.Graph.Nodes, 2)
	assert.Len(t, undone.Graph.Edges, 1)

	w = f.do(t, "GET", "/sessions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)

	w = f.do(t, "DELETE", "/sessions/"+sess.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = f.do(t, "DELETE", "/sessions/"+sess.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	stored, err := f.store.Load(context.Background(), "support")
	require.NoError(t, err)
	assert.Len(t, stored.Definition.States, 2)
}

func TestSubscribeEvents_Session(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.handler)
	defer srv.Close()

	sess := f.open(t, "support")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, "GET", srv.URL+"/sessions/"+sess.ID+"/events?types=command,session_save", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	readEvent := func() (string, string) {
		var event, data string
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			case line == "":
				return event, data
			}
		}
	}

	event, data := readEvent()
	assert.Equal(t, "ping", event)
	assert.Equal(t, "connected", data)

	w := f.do(t, "POST", "/sessions/"+sess.ID+"/commands", `{"commands":[{"op":"add_state"}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	event, data = readEvent()
	assert.Equal(t, "command", event)
	assert.Contains(t, data, `"op":"add_state"`)

	w = f.do(t, "POST", "/sessions/"+sess.ID+"/save", "")
	require.Equal(t, http.StatusOK, w.Code)

	event, data = readEvent()
	assert.Equal(t, "session_save", event)
	assert.Contains(t, data, `"states":3`)

	// The stream ends once the session is closed.
	_, err = reader.ReadString('\n')
	assert.Error(t, err)
	assert.Zero(t, f.streams.Subscribers(sess.ID))
}

func TestSubscribeEvents_UnknownSession(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, "GET", "/sessions/nope/events", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, f.streams.Subscribers("nope"), "a rejected subscription must be released")
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("s")
	for i := 0; i < 100; i++ {
		sm.Broadcast("s", Message{Event: "command", Data: "{}"})
	}
	assert.Len(t, ch, cap(ch))
	cancel()
	cancel() // idempotent
	sm.Close("s")
	assert.Zero(t, sm.Subscribers("s"))
}

func ptr[T any](v T) *T {
	return &v
}
