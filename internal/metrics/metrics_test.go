package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollector_Hooks(t *testing.T) {
	c := New()
	hooks := c.Hooks()
	ctx := context.Background()

	hooks.OnOpen(ctx, &domain.SessionEvent{})
	hooks.OnOpen(ctx, &domain.SessionEvent{})
	hooks.OnCommand(ctx, &domain.CommandEvent{Op: "add_state"})
	hooks.OnCommand(ctx, &domain.CommandEvent{Op: "add_state"})
	hooks.OnCommand(ctx, &domain.CommandEvent{Op: "rename_state", Error: "state name already in use"})
	hooks.OnCommand(ctx, &domain.CommandEvent{Error: "bad label"})
	hooks.OnSave(ctx, &domain.SessionEvent{States: 3, Duration: 2 * time.Second})
	hooks.OnDiscard(ctx, &domain.SessionEvent{})

	body := scrape(t, c)
	assert.Contains(t, body, `switchboard_edit_commands_total{op="add_state",result="ok"} 2`)
	assert.Contains(t, body, `switchboard_edit_commands_total{op="rename_state",result="rejected"} 1`)
	assert.Contains(t, body, `switchboard_edit_commands_total{op="unknown",result="rejected"} 1`)
	assert.Contains(t, body, "switchboard_open_sessions 0")
	assert.Contains(t, body, `switchboard_sessions_closed_total{outcome="saved"} 1`)
	assert.Contains(t, body, `switchboard_sessions_closed_total{outcome="discarded"} 1`)
	assert.Contains(t, body, "switchboard_session_duration_seconds_count 1")
	assert.Contains(t, body, "switchboard_saved_states_sum 3")
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.Hooks().OnOpen(context.Background(), &domain.SessionEvent{})

	assert.Contains(t, scrape(t, a), "switchboard_open_sessions 1")
	assert.Contains(t, scrape(t, b), "switchboard_open_sessions 0")
}
