package system

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/glint3d/glint/internal/core/observability/log"
	"github.com/glint3d/glint/pkg/sequence"
)

// Manager orchestrates registered systems: execution order, async
// initialization, enable toggles and lifecycle.
type Manager interface {
	// Registration

	Register(sys System)
	Unregister(name string)
	Get(name string) (System, bool)
	Has(name string) bool
	List() []System

	// Lifecycle state

	Status(name string) (Status, bool)
	InitError(name string) error
	Enable(name string) bool
	Disable(name string) bool

	// Execution

	Update(dt float64) error
	ExecutionOrder() []string

	// Monitoring

	Metrics() Metrics

	// Events

	OnRegistered(fn func(System))
	OnUnregistered(fn func(name string))

	Dispose()
}

// Metrics is a point-in-time snapshot of manager state.
type Metrics struct {
	Registered         int
	Enabled            int
	Updates            uint64
	LastUpdateDuration time.Duration
}

var _ Manager = (*DefaultManager)(nil)

// DefaultManager keeps systems in a name registry plus an execution slice.
// The slice is re-sorted lazily: registrations mark it stale and the next
// Update sorts once. The sort is stable and descending by priority, so equal
// priorities keep registration order.
type DefaultManager struct {
	log *log.Logger

	mu       sync.RWMutex
	systems  map[string]System
	ordered  []System
	sorted   bool
	statuses map[string]*initState

	onRegistered   []func(System)
	onUnregistered []func(string)

	updates    uint64
	lastUpdate time.Duration
}

type initState struct {
	status Status
	err    error
}

func NewManager(logger *log.Logger) *DefaultManager {
	return &DefaultManager{
		log:      logger,
		systems:  make(map[string]System),
		statuses: make(map[string]*initState),
		sorted:   true,
	}
}

// Register adds a system and kicks off its initialization on a background
// goroutine. A duplicate name logs a warning and leaves the existing system
// untouched.
func (m *DefaultManager) Register(sys System) {
	if sys == nil {
		m.log.Warn("ignoring nil system")
		return
	}
	name := sys.Name()

	m.mu.Lock()
	if _, exists := m.systems[name]; exists {
		m.mu.Unlock()
		m.log.Warn("system already registered", log.String("system", name))
		return
	}
	m.systems[name] = sys
	m.ordered = append(m.ordered, sys)
	m.sorted = false
	state := &initState{status: StatusPending}
	m.statuses[name] = state
	observers := slices.Clone(m.onRegistered)
	m.mu.Unlock()

	m.log.Info("system registered",
		log.String("system", name),
		log.Int("priority", sys.Priority()),
	)
	for _, fn := range observers {
		fn(sys)
	}

	go m.initialize(sys, state)
}

func (m *DefaultManager) initialize(sys System, state *initState) {
	err := sys.Init(context.Background())

	m.mu.Lock()
	if err != nil {
		state.status = StatusFailed
		state.err = err
	} else {
		state.status = StatusReady
	}
	m.mu.Unlock()

	if err != nil {
		m.log.Error("system init failed",
			log.String("system", sys.Name()),
			log.Error(err),
		)
		return
	}
	m.log.Debug("system ready", log.String("system", sys.Name()))
}

// Unregister disposes and removes a system. Unknown names log a warning.
func (m *DefaultManager) Unregister(name string) {
	m.mu.Lock()
	sys, exists := m.systems[name]
	if !exists {
		m.mu.Unlock()
		m.log.Warn("system not registered", log.String("system", name))
		return
	}
	delete(m.systems, name)
	delete(m.statuses, name)
	for i := range m.ordered {
		if m.ordered[i].Name() == name {
			m.ordered = append(m.ordered[:i], m.ordered[i+1:]...)
			break
		}
	}
	observers := slices.Clone(m.onUnregistered)
	m.mu.Unlock()

	sys.Dispose()
	m.log.Info("system unregistered", log.String("system", name))
	for _, fn := range observers {
		fn(name)
	}
}

func (m *DefaultManager) Get(name string) (System, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sys, ok := m.systems[name]
	return sys, ok
}

func (m *DefaultManager) Has(name string) bool {
	_, ok := m.Get(name)
	return ok
}

// List returns the registered systems in execution order.
func (m *DefaultManager) List() []System {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureSortedLocked()
	return slices.Clone(m.ordered)
}

// Status reports the initialization state recorded for a system.
func (m *DefaultManager) Status(name string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.statuses[name]
	if !ok {
		return StatusPending, false
	}
	return state.status, true
}

// InitError returns the error captured by a failed initialization, or nil.
func (m *DefaultManager) InitError(name string) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if state, ok := m.statuses[name]; ok {
		return state.err
	}
	return nil
}

func (m *DefaultManager) Enable(name string) bool {
	return m.setEnabled(name, true)
}

func (m *DefaultManager) Disable(name string) bool {
	return m.setEnabled(name, false)
}

func (m *DefaultManager) setEnabled(name string, enabled bool) bool {
	sys, ok := m.Get(name)
	if !ok {
		m.log.Warn("system not registered", log.String("system", name))
		return false
	}
	sys.SetEnabled(enabled)
	return true
}

// Update runs every enabled system once, in priority order. The first error
// aborts the pass and propagates to the caller; systems are trusted frame
// code, so nothing is caught here.
func (m *DefaultManager) Update(dt float64) error {
	m.mu.Lock()
	m.ensureSortedLocked()
	exec := m.ordered
	m.mu.Unlock()

	start := time.Now()
	for _, sys := range exec {
		if !sys.Enabled() {
			continue
		}
		if err := sys.Update(dt); err != nil {
			return fmt.Errorf("system %s: %w", sys.Name(), err)
		}
	}

	m.mu.Lock()
	m.updates++
	m.lastUpdate = time.Since(start)
	m.mu.Unlock()
	return nil
}

// ExecutionOrder returns system names in the order Update runs them.
func (m *DefaultManager) ExecutionOrder() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensureSortedLocked()
	names := make([]string, len(m.ordered))
	for i, sys := range m.ordered {
		names[i] = sys.Name()
	}
	return names
}

func (m *DefaultManager) Metrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Metrics{
		Registered:         len(m.systems),
		Enabled:            sequence.From(m.ordered).Filter(System.Enabled).Count(),
		Updates:            m.updates,
		LastUpdateDuration: m.lastUpdate,
	}
}

func (m *DefaultManager) OnRegistered(fn func(System)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRegistered = append(m.onRegistered, fn)
}

func (m *DefaultManager) OnUnregistered(fn func(string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUnregistered = append(m.onUnregistered, fn)
}

// Dispose disposes every system and clears the registry and observers.
func (m *DefaultManager) Dispose() {
	m.mu.Lock()
	disposed := m.ordered
	m.ordered = nil
	m.systems = make(map[string]System)
	m.statuses = make(map[string]*initState)
	m.onRegistered = nil
	m.onUnregistered = nil
	m.sorted = true
	m.mu.Unlock()

	for _, sys := range disposed {
		sys.Dispose()
	}
	m.log.Debug("system manager disposed", log.Int("systems", len(disposed)))
}

func (m *DefaultManager) ensureSortedLocked() {
	if m.sorted {
		return
	}
	m.ordered = sequence.From(m.ordered).
		Sort(func(a, b System) bool { return a.Priority() > b.Priority() }).
		Collect()
	m.sorted = true
}
