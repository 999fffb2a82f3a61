package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/switchboard/internal/logging"
	"github.com/aretw0/switchboard/pkg/domain"
	"github.com/aretw0/switchboard/pkg/edit"
	"github.com/aretw0/switchboard/pkg/graph"
	"github.com/aretw0/switchboard/pkg/ports"
	"github.com/aretw0/switchboard/pkg/transform"
	"github.com/google/uuid"
)

// DefaultUndoLimit bounds the undo stack of each session.
const DefaultUndoLimit = 50

var (
	// ErrAgentIDRequired is returned when opening a session without an agent ID.
	ErrAgentIDRequired = errors.New("agent ID is required")

	// ErrNothingToUndo is returned by Undo when no batch has been applied.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// Status is the lifecycle stage of an open session.
// Saved and discarded sessions are closed and no longer listed.
type Status string

const (
	StatusLoaded  Status = "loaded"
	StatusEditing Status = "editing"
)

// Snapshot is a point-in-time copy of a session. Its Graph is a clone.
type Snapshot struct {
	ID        string
	AgentID   string
	Status    Status
	Graph     *graph.Graph
	Report    *transform.Report
	OpenedAt  time.Time
	UndoDepth int
}

// SaveResult is what a successful save wrote.
type SaveResult struct {
	Record *domain.Record          `json:"record"`
	Diff   *domain.DefinitionDiff `json:"diff,omitempty"` // nil when the definition is unchanged
}

type editor struct {
	mu sync.Mutex

	id      string
	agentID string
	status  Status
	graph   *graph.Graph
	base    *domain.Definition // as stored, before load repairs
	report  *transform.Report
	undo    []*graph.Graph
	opened  time.Time
	closed  bool
}

func (e *editor) snapshot() *Snapshot {
	return &Snapshot{
		ID:        e.id,
		AgentID:   e.agentID,
		Status:    e.status,
		Graph:     e.graph.Clone(),
		Report:    e.report,
		OpenedAt:  e.opened,
		UndoDepth: len(e.undo),
	}
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns the open editor sessions and orchestrates their loads and saves.
// It uses Reference Counting to garbage collect unused per-agent locks.
type Manager struct {
	store ports.DefinitionStore

	mu       sync.Mutex            // Global lock for the maps
	sessions map[string]*editor    // Open sessions by ID
	locks    map[string]*lockEntry // Per-agent save locks

	locker    ports.DistributedLocker // Optional distributed locker
	lockTTL   time.Duration
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	clock     func() time.Time
	newID     func() string
	undoLimit int
	graphOpts []graph.Option
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking of saves.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the lease of distributed save locks (30s by default).
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		m.lockTTL = ttl
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithHooks registers lifecycle callbacks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(m *Manager) {
		m.hooks = hooks
	}
}

// WithClock replaces the clock used for ModifiedAt and event timestamps.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithSessionIDs replaces the session ID generator (UUIDs by default).
func WithSessionIDs(next func() string) Option {
	return func(m *Manager) {
		m.newID = next
	}
}

// WithUndoLimit bounds the undo stack. Zero disables undo.
func WithUndoLimit(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.undoLimit = n
		}
	}
}

// WithGraphOptions passes options to every graph the manager builds.
func WithGraphOptions(opts ...graph.Option) Option {
	return func(m *Manager) {
		m.graphOpts = append(m.graphOpts, opts...)
	}
}

// NewManager creates a new session Manager over the given definition store.
func NewManager(store ports.DefinitionStore, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		sessions:  make(map[string]*editor),
		locks:     make(map[string]*lockEntry),
		lockTTL:   30 * time.Second,
		logger:    logging.NewNop(), // Default to no-op
		clock:     func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
		undoLimit: DefaultUndoLimit,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Store returns the underlying definition store.
func (m *Manager) Store() ports.DefinitionStore {
	return m.store
}

// Open loads the agent's definition into a new session.
// An agent without a stored definition starts from the default one.
func (m *Manager) Open(ctx context.Context, agentID string) (*Snapshot, error) {
	if agentID == "" {
		return nil, ErrAgentIDRequired
	}

	base, err := m.loadDefinition(ctx, agentID)
	if err != nil {
		return nil, err
	}

	g, report := transform.ToGraph(base, m.graphOpts...)
	for _, issue := range report.Issues {
		m.logger.Warn("Repaired stored definition",
			"agent_id", agentID,
			"kind", issue.Kind,
			"state", issue.State,
			"detail", issue.Detail,
		)
	}

	e := &editor{
		id:      m.newID(),
		agentID: agentID,
		status:  StatusLoaded,
		graph:   g,
		base:    base,
		report:  report,
		opened:  m.clock(),
	}

	m.mu.Lock()
	m.sessions[e.id] = e
	m.mu.Unlock()

	m.logger.Debug("Session opened", "session_id", e.id, "agent_id", agentID, "states", g.Len())
	if m.hooks.OnOpen != nil {
		m.hooks.OnOpen(ctx, m.sessionEvent(domain.EventSessionOpen, e))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(), nil
}

func (m *Manager) loadDefinition(ctx context.Context, agentID string) (*domain.Definition, error) {
	record, err := m.store.Load(ctx, agentID)
	if errors.Is(err, domain.ErrDefinitionNotFound) {
		return domain.DefaultDefinition(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load definition for %s: %w", agentID, err)
	}
	return record.Definition.Clone(), nil
}

// Get returns a snapshot of an open session.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Snapshot, error) {
	var snap *Snapshot
	err := m.withEditor(sessionID, func(e *editor) error {
		snap = e.snapshot()
		return nil
	})
	return snap, err
}

// List returns snapshots of all open sessions, oldest first.
func (m *Manager) List(ctx context.Context) ([]*Snapshot, error) {
	m.mu.Lock()
	editors := make([]*editor, 0, len(m.sessions))
	for _, e := range m.sessions {
		editors = append(editors, e)
	}
	m.mu.Unlock()

	snaps := make([]*Snapshot, 0, len(editors))
	for _, e := range editors {
		e.mu.Lock()
		if !e.closed {
			snaps = append(snaps, e.snapshot())
		}
		e.mu.Unlock()
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].OpenedAt.Equal(snaps[j].OpenedAt) {
			return snaps[i].ID < snaps[j].ID
		}
		return snaps[i].OpenedAt.Before(snaps[j].OpenedAt)
	})
	return snaps, nil
}

// Preview returns the definition the session would save, without saving it.
func (m *Manager) Preview(ctx context.Context, sessionID string) (*domain.Definition, error) {
	var def *domain.Definition
	err := m.withEditor(sessionID, func(e *editor) error {
		var err error
		def, err = transform.ToDefinition(e.graph)
		return err
	})
	return def, err
}

// Apply runs cmds as one atomic batch. Either every command takes effect or none does.
func (m *Manager) Apply(ctx context.Context, sessionID string, cmds ...edit.Command) (*Snapshot, []edit.Outcome, error) {
	var (
		snap     *Snapshot
		outcomes []edit.Outcome
		agentID  string
	)
	err := m.withEditor(sessionID, func(e *editor) error {
		agentID = e.agentID
		if len(cmds) == 0 {
			snap = e.snapshot()
			return nil
		}

		next, outs, err := edit.Batch(e.graph, cmds)
		if err != nil {
			m.logger.Debug("Edit rejected", "session_id", e.id, "err", err)
			m.emitRejected(ctx, e, err)
			return err
		}

		m.pushUndo(e)
		e.graph = next
		e.status = StatusEditing
		outcomes = outs
		snap = e.snapshot()
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if m.hooks.OnCommand != nil {
		for _, out := range outcomes {
			m.hooks.OnCommand(ctx, &domain.CommandEvent{
				EventBase: m.base(domain.EventCommand, sessionID, agentID),
				Op:        string(out.Op),
			})
		}
	}
	return snap, outcomes, nil
}

func (m *Manager) pushUndo(e *editor) {
	if m.undoLimit == 0 {
		return
	}
	e.undo = append(e.undo, e.graph)
	if over := len(e.undo) - m.undoLimit; over > 0 {
		e.undo = append([]*graph.Graph(nil), e.undo[over:]...)
	}
}

func (m *Manager) emitRejected(ctx context.Context, e *editor, err error) {
	if m.hooks.OnCommand == nil {
		return
	}
	op := ""
	var batchErr *edit.BatchError
	if errors.As(err, &batchErr) {
		op = string(batchErr.Op)
	}
	m.hooks.OnCommand(ctx, &domain.CommandEvent{
		EventBase: m.base(domain.EventCommand, e.id, e.agentID),
		Op:        op,
		Error:     err.Error(),
	})
}

// Undo reverts the most recent applied batch.
func (m *Manager) Undo(ctx context.Context, sessionID string) (*Snapshot, error) {
	var snap *Snapshot
	err := m.withEditor(sessionID, func(e *editor) error {
		if len(e.undo) == 0 {
			return ErrNothingToUndo
		}
		last := len(e.undo) - 1
		e.graph = e.undo[last]
		e.undo[last] = nil
		e.undo = e.undo[:last]
		if len(e.undo) == 0 {
			e.status = StatusLoaded
		}
		snap = e.snapshot()
		return nil
	})
	return snap, err
}

// Save converts the session graph back to a definition and writes it to the store,
// then closes the session. A failed write leaves the session open.
func (m *Manager) Save(ctx context.Context, sessionID string) (*SaveResult, error) {
	var (
		result *SaveResult
		event  *domain.SessionEvent
	)
	err := m.withEditor(sessionID, func(e *editor) error {
		def, err := transform.ToDefinition(e.graph)
		if err != nil {
			return err
		}
		record := &domain.Record{
			AgentID:    e.agentID,
			Definition: *def,
			ModifiedAt: m.clock(),
		}

		err = m.WithLock(ctx, e.agentID, func(ctx context.Context) error {
			return m.store.Save(ctx, record)
		})
		if err != nil {
			return fmt.Errorf("failed to save definition for %s: %w", e.agentID, err)
		}

		result = &SaveResult{Record: record, Diff: domain.Diff(e.base, def)}
		m.close(e)

		event = m.sessionEvent(domain.EventSessionSave, e)
		event.Duration = record.ModifiedAt.Sub(e.opened)
		event.Diff = result.Diff
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info("Definition saved",
		"session_id", sessionID,
		"agent_id", result.Record.AgentID,
		"states", len(result.Record.Definition.States),
		"changed", result.Diff != nil,
	)
	if m.hooks.OnSave != nil {
		m.hooks.OnSave(ctx, event)
	}
	return result, nil
}

// Discard closes the session without writing anything.
func (m *Manager) Discard(ctx context.Context, sessionID string) error {
	var event *domain.SessionEvent
	err := m.withEditor(sessionID, func(e *editor) error {
		m.close(e)
		event = m.sessionEvent(domain.EventSessionDiscard, e)
		event.Duration = m.clock().Sub(e.opened)
		return nil
	})
	if err != nil {
		return err
	}

	m.logger.Debug("Session discarded", "session_id", sessionID)
	if m.hooks.OnDiscard != nil {
		m.hooks.OnDiscard(ctx, event)
	}
	return nil
}

// close must be called with e.mu held.
func (m *Manager) close(e *editor) {
	e.closed = true
	e.undo = nil
	m.mu.Lock()
	delete(m.sessions, e.id)
	m.mu.Unlock()
}

// withEditor runs fn while holding the session's lock.
func (m *Manager) withEditor(sessionID string, fn func(*editor) error) error {
	m.mu.Lock()
	e, ok := m.sessions[sessionID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%s: %w", sessionID, domain.ErrSessionNotFound)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	// Closed by a concurrent save or discard while we waited.
	if e.closed {
		return fmt.Errorf("%s: %w", sessionID, domain.ErrSessionNotFound)
	}
	return fn(e)
}

func (m *Manager) base(typ domain.EventType, sessionID, agentID string) domain.EventBase {
	return domain.EventBase{
		Timestamp: m.clock(),
		Type:      typ,
		SessionID: sessionID,
		AgentID:   agentID,
	}
}

func (m *Manager) sessionEvent(typ domain.EventType, e *editor) *domain.SessionEvent {
	return &domain.SessionEvent{
		EventBase: m.base(typ, e.id, e.agentID),
		States:    e.graph.Len(),
		Edges:     len(e.graph.Edges()),
	}
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return // Should not happen if paired correctly
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// WithLock executes a function while holding the save lock for an agent.
func (m *Manager) WithLock(ctx context.Context, agentID string, fn func(context.Context) error) error {
	entry := m.acquire(agentID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(agentID)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, agentID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"agent_id", agentID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
