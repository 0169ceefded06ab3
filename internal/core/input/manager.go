package input

import (
	"sync"

	"github.com/glint3d/glint/internal/core/observability/log"
)

// maxPending bounds the raw event backlog between ticks. A stalled frame
// loop should not accumulate unbounded input.
const maxPending = 4096

// Manager owns the frame input snapshot. Push may run concurrently with
// anything; Update and the read accessors run on the frame goroutine.
type Manager struct {
	log *log.Logger

	mu      sync.Mutex
	pending []Event
	sources []Source
	dropped bool

	pressed      map[string]struct{}
	justPressed  map[string]struct{}
	justReleased map[string]struct{}
	buttons      map[int]struct{}
	cursorX      float64
	cursorY      float64

	disposed bool
}

var _ Sink = (*Manager)(nil)

func NewManager(logger *log.Logger) *Manager {
	return &Manager{
		log:          logger,
		pressed:      make(map[string]struct{}),
		justPressed:  make(map[string]struct{}),
		justReleased: make(map[string]struct{}),
		buttons:      make(map[int]struct{}),
	}
}

// AttachSource registers a device adapter and hands it the manager as sink.
func (m *Manager) AttachSource(src Source) {
	if src == nil {
		m.log.Warn("ignoring nil input source")
		return
	}
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.sources = append(m.sources, src)
	m.mu.Unlock()
	src.Attach(m)
}

// Push queues a raw event for the next Update.
func (m *Manager) Push(ev Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return
	}
	if len(m.pending) >= maxPending {
		m.dropped = true
		return
	}
	m.pending = append(m.pending, ev)
}

// Update folds pending events into the snapshot. Key repeats (KeyDown while
// already pressed) do not re-enter the just-pressed set.
func (m *Manager) Update() {
	m.mu.Lock()
	defer m.mu.Unlock()

	clear(m.justPressed)
	clear(m.justReleased)
	if m.dropped {
		m.dropped = false
		m.log.Warn("input backlog overflow, events dropped", log.Int("capacity", maxPending))
	}

	for _, ev := range m.pending {
		switch ev.Type {
		case KeyDown:
			if _, held := m.pressed[ev.Key]; !held {
				m.pressed[ev.Key] = struct{}{}
				m.justPressed[ev.Key] = struct{}{}
			}
		case KeyUp:
			if _, held := m.pressed[ev.Key]; held {
				delete(m.pressed, ev.Key)
				m.justReleased[ev.Key] = struct{}{}
			}
		case PointerMove:
			m.cursorX, m.cursorY = ev.X, ev.Y
		case PointerDown:
			m.buttons[ev.Button] = struct{}{}
			m.cursorX, m.cursorY = ev.X, ev.Y
		case PointerUp:
			delete(m.buttons, ev.Button)
			m.cursorX, m.cursorY = ev.X, ev.Y
		}
	}
	m.pending = m.pending[:0]
}

func (m *Manager) IsPressed(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pressed[key]
	return ok
}

// JustPressed reports keys that went down during the last Update.
func (m *Manager) JustPressed(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.justPressed[key]
	return ok
}

// JustReleased reports keys that went up during the last Update.
func (m *Manager) JustReleased(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.justReleased[key]
	return ok
}

func (m *Manager) IsButtonDown(button int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.buttons[button]
	return ok
}

func (m *Manager) Cursor() (x, y float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursorX, m.cursorY
}

// Dispose detaches every source and clears the snapshot. Pushes after
// Dispose are dropped.
func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	sources := m.sources
	m.sources = nil
	m.pending = nil
	clear(m.pressed)
	clear(m.justPressed)
	clear(m.justReleased)
	clear(m.buttons)
	m.mu.Unlock()

	for _, src := range sources {
		src.Detach()
	}
	m.log.Debug("input disposed", log.Int("sources", len(sources)))
}
