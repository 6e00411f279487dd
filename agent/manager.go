package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/matanitah-healthee/slack-bot/log"
)

// Stats is the manager's telemetry for one agent. Every Invoke increments
// exactly one of the two counters, so their sum equals the number of
// completed calls.
type Stats struct {
	// UsageCount is the number of Invoke calls the agent served
	// successfully.
	UsageCount int `json:"usage_count"`
	// ErrorCount is the number of calls that failed, cancellations and
	// timeouts included.
	ErrorCount int `json:"error_count"`
	// LastUsed is when the agent last served a call.
	LastUsed time.Time `json:"last_used"`
	// TotalDuration accumulates time spent across all calls.
	TotalDuration time.Duration `json:"total_duration"`
}

// Average returns the mean time per call, zero before the first call.
func (s Stats) Average() time.Duration {
	calls := s.UsageCount + s.ErrorCount
	if calls == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(calls)
}

// AgentHealth is one entry of the manager's health listing.
type AgentHealth struct {
	Info Info `json:"info"`
	// Status is the agent's lifecycle state, or disabled when the manager
	// has taken the agent out of selection.
	Status  Status `json:"status"`
	Enabled bool   `json:"enabled"`
	Default bool   `json:"default"`
	Stats   Stats  `json:"stats"`
}

// Overview is the manager-wide telemetry snapshot.
type Overview struct {
	TotalAgents  int    `json:"total_agents"`
	TotalQueries int    `json:"total_queries"`
	TotalErrors  int    `json:"total_errors"`
	Enabled      bool   `json:"enabled"`
	DefaultAgent string `json:"default_agent"`
}

// relationshipKeywords route a query to a graph-search agent when present.
var relationshipKeywords = []string{
	"related",
	"relationship",
	"connected",
	"connection",
	"link",
	"between",
	"graph",
	"path",
	"associated with",
}

// Manager owns a registry of agents, routes queries to them and keeps
// per-agent telemetry. All methods are safe for concurrent use.
type Manager struct {
	mu        sync.Mutex
	agents    map[string]Agent
	order     []string
	stats     map[string]*Stats
	disabled  map[string]bool
	defaultID string
	enabled   bool
	timeout   time.Duration
	logger    log.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithTimeout sets the per-call timeout applied to every Invoke. Zero
// disables the timeout.
func WithTimeout(timeout time.Duration) ManagerOption {
	return func(m *Manager) {
		m.timeout = timeout
	}
}

// WithManagerLogger sets the manager's logger.
func WithManagerLogger(logger log.Logger) ManagerOption {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates an empty, enabled manager.
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		agents:   make(map[string]Agent),
		stats:    make(map[string]*Stats),
		disabled: make(map[string]bool),
		enabled:  true,
		logger:   log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register adds an agent to the registry. The first registered agent
// becomes the default. Registration order is preserved and drives
// automatic selection.
func (m *Manager) Register(a Agent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := a.Info().ID
	if _, exists := m.agents[id]; exists {
		return NewError(KindDuplicateAgentID, id, nil)
	}

	m.agents[id] = a
	m.order = append(m.order, id)
	m.stats[id] = &Stats{}
	if m.defaultID == "" {
		m.defaultID = id
	}

	m.logger.Info("registered agent %s (%s)", id, a.Info().Name)
	return nil
}

// SetDefault changes the default agent.
func (m *Manager) SetDefault(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.agents[id]; !exists {
		return NewError(KindUnknownAgent, id, nil)
	}
	m.defaultID = id
	return nil
}

// Default returns the current default agent id, or "" when the registry is
// empty.
func (m *Manager) Default() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.defaultID
}

// SetEnabled toggles query routing. A disabled manager selects no agent.
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// Enabled reports whether the manager routes queries.
func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// SetAgentEnabled toggles one agent's selectability. A disabled agent
// stays registered and keeps its telemetry but is never selected.
func (m *Manager) SetAgentEnabled(id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.agents[id]; !exists {
		return NewError(KindUnknownAgent, id, nil)
	}
	m.disabled[id] = !enabled
	return nil
}

// Agents lists the registered agents in registration order.
func (m *Manager) Agents() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]Info, 0, len(m.order))
	for _, id := range m.order {
		infos = append(infos, m.agents[id].Info())
	}
	return infos
}

// Get returns a registered agent by id.
func (m *Manager) Get(id string) (Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, exists := m.agents[id]
	if !exists {
		return nil, NewError(KindUnknownAgent, id, nil)
	}
	return a, nil
}

// InitializeAll initializes every registered agent in registration order,
// stopping at the first failure.
func (m *Manager) InitializeAll(ctx context.Context) error {
	m.mu.Lock()
	agents := make([]Agent, 0, len(m.order))
	for _, id := range m.order {
		agents = append(agents, m.agents[id])
	}
	m.mu.Unlock()

	for _, a := range agents {
		if err := a.Initialize(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Select picks the agent for a query. An explicit agent id wins; unknown
// ids are an error and a disabled one selects nothing. Otherwise queries
// mentioning relationships go to the first enabled graph-search agent,
// other queries to the first enabled vector-search agent, and the default
// agent catches the rest. A disabled or empty manager selects nothing.
func (m *Manager) Select(query Query) (Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return nil, NewError(KindNoAgentSelected, "", nil)
	}

	if query.AgentID != "" {
		a, exists := m.agents[query.AgentID]
		if !exists {
			return nil, NewError(KindUnknownAgent, query.AgentID, nil)
		}
		if m.disabled[query.AgentID] {
			return nil, NewError(KindNoAgentSelected, query.AgentID, nil)
		}
		return a, nil
	}

	capability := CapabilityVectorSearch
	if mentionsRelationships(query.Text) {
		capability = CapabilityGraphSearch
	}
	if a := m.firstWithCapability(capability); a != nil {
		return a, nil
	}

	// The default must still resolve to a live, enabled entry.
	if a, exists := m.agents[m.defaultID]; exists && !m.disabled[m.defaultID] {
		return a, nil
	}
	return nil, NewError(KindNoAgentSelected, "", nil)
}

// firstWithCapability returns the first registered enabled agent
// advertising the capability. Must be called with the lock held.
func (m *Manager) firstWithCapability(capability string) Agent {
	for _, id := range m.order {
		if m.disabled[id] {
			continue
		}
		for _, c := range m.agents[id].Info().Capabilities {
			if c == capability {
				return m.agents[id]
			}
		}
	}
	return nil
}

func mentionsRelationships(text string) bool {
	lower := strings.ToLower(text)
	for _, keyword := range relationshipKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Invoke selects an agent for the query, runs it under the per-call
// timeout and records telemetry. Exactly one of the agent's counters is
// incremented on every exit path, cancellations and timeouts included.
func (m *Manager) Invoke(ctx context.Context, query Query) (*Response, error) {
	selected, err := m.Select(query)
	if err != nil {
		return nil, err
	}
	agentID := selected.Info().ID

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	resp, err := selected.Invoke(ctx, query)
	err = m.mapInvokeError(ctx, agentID, err)

	m.recordInvoke(agentID, time.Since(start), err)

	if err != nil {
		m.logger.Warn("agent %s failed: %v", agentID, err)
		return nil, err
	}
	return resp, nil
}

// mapInvokeError normalizes context expiry to the timeout kind and wraps
// foreign errors.
func (m *Manager) mapInvokeError(ctx context.Context, agentID string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewError(KindTimeout, agentID, err)
	}
	// Caller cancellation passes through untouched; it still counts in the
	// error telemetry.
	if errors.Is(err, context.Canceled) {
		return err
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return NewError(KindCompletionFailed, agentID, err)
}

// recordInvoke updates the agent's telemetry under the lock.
func (m *Manager) recordInvoke(agentID string, elapsed time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.stats[agentID]
	if !exists {
		return
	}
	if err != nil {
		s.ErrorCount++
	} else {
		s.UsageCount++
	}
	s.LastUsed = time.Now()
	s.TotalDuration += elapsed
}

// Stats returns a copy of one agent's telemetry.
func (m *Manager) Stats(id string) (Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.stats[id]
	if !exists {
		return Stats{}, NewError(KindUnknownAgent, id, nil)
	}
	return *s, nil
}

// AllStats returns a copy of the telemetry for every agent.
func (m *Manager) AllStats() map[string]Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make(map[string]Stats, len(m.stats))
	for id, s := range m.stats {
		all[id] = *s
	}
	return all
}

// Health lists every agent with its status, telemetry and selectability,
// in registration order.
func (m *Manager) Health() []AgentHealth {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]AgentHealth, 0, len(m.order))
	for _, id := range m.order {
		a := m.agents[id]
		status := a.Status()
		if m.disabled[id] {
			status = StatusDisabled
		}
		entries = append(entries, AgentHealth{
			Info:    a.Info(),
			Status:  status,
			Enabled: !m.disabled[id],
			Default: id == m.defaultID,
			Stats:   *m.stats[id],
		})
	}
	return entries
}

// Overview returns the manager-wide telemetry snapshot.
func (m *Manager) Overview() Overview {
	m.mu.Lock()
	defer m.mu.Unlock()

	o := Overview{
		TotalAgents:  len(m.order),
		Enabled:      m.enabled,
		DefaultAgent: m.defaultID,
	}
	for _, s := range m.stats {
		o.TotalQueries += s.UsageCount + s.ErrorCount
		o.TotalErrors += s.ErrorCount
	}
	return o
}
