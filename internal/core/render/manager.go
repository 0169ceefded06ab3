package render

import (
	"fmt"
	"sync"
	"time"

	"github.com/glint3d/glint/internal/core/observability/log"
	"github.com/glint3d/glint/internal/core/scene"
)

// SceneSource supplies what gets drawn each frame. The scene manager
// satisfies it; the binding happens after construction because the renderer
// is built first.
type SceneSource interface {
	Active() (scene.Scene, bool)
	ActiveCamera() *scene.Camera
}

// Manager drives the backend. One RenderFrame per Render call, bracketed by
// BeginFrame/EndFrame even when no scene is active.
type Manager struct {
	log     *log.Logger
	backend Backend

	mu       sync.Mutex
	source   SceneSource
	width    int
	height   int
	frames   uint64
	last     time.Duration
	disposed bool
}

// Metrics is a point-in-time snapshot of render state.
type Metrics struct {
	Frames            uint64
	LastFrameDuration time.Duration
	Width             int
	Height            int
}

func NewManager(logger *log.Logger, backend Backend, width, height int) *Manager {
	if backend == nil {
		backend = NullBackend{}
	}
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &Manager{
		log:     logger,
		backend: backend,
		width:   width,
		height:  height,
	}
}

// BindScenes attaches the scene source. Until it is bound, Render issues
// empty frames.
func (m *Manager) BindScenes(src SceneSource) {
	m.mu.Lock()
	m.source = src
	m.mu.Unlock()
}

// Render issues one frame. Called from the frame goroutine only.
func (m *Manager) Render(dt float64) error {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return nil
	}
	m.frames++
	number := m.frames
	source := m.source
	m.mu.Unlock()

	started := time.Now()
	m.backend.BeginFrame()
	defer m.backend.EndFrame()

	if source != nil {
		if active, ok := source.Active(); ok {
			frame := Frame{
				Scene:  active,
				Camera: source.ActiveCamera(),
				Number: number,
				Delta:  dt,
			}
			if err := m.backend.RenderFrame(frame); err != nil {
				return fmt.Errorf("render frame %d: %w", number, err)
			}
		}
	}

	m.mu.Lock()
	m.last = time.Since(started)
	m.mu.Unlock()
	return nil
}

func (m *Manager) HandleResize(width, height int) {
	if width <= 0 || height <= 0 {
		m.log.Warn("ignoring resize to empty viewport",
			log.Int("width", width),
			log.Int("height", height),
		)
		return
	}
	m.mu.Lock()
	m.width = width
	m.height = height
	m.mu.Unlock()

	m.backend.Resize(width, height)
	m.log.Debug("viewport resized",
		log.Int("width", width),
		log.Int("height", height),
	)
}

func (m *Manager) Size() (width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.width, m.height
}

func (m *Manager) Metrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{
		Frames:            m.frames,
		LastFrameDuration: m.last,
		Width:             m.width,
		Height:            m.height,
	}
}

func (m *Manager) Dispose() {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return
	}
	m.disposed = true
	m.source = nil
	m.mu.Unlock()

	m.backend.Dispose()
	m.log.Debug("renderer disposed")
}
