package scene

import (
	"fmt"
	"slices"
	"sort"
	"sync"

	"github.com/glint3d/glint/internal/core/observability/log"
	"github.com/glint3d/glint/pkg/sequence"
)

// Manager is the scene registry and activation lifecycle. At most one scene
// is active at a time.
type Manager interface {
	// Registration

	Register(id string, s Scene)
	Unregister(id string)
	Get(id string) (Scene, bool)
	Has(id string) bool
	SceneIDs() []string

	// Activation

	Activate(id string)
	ActiveID() string
	Active() (Scene, bool)

	// Frame

	Update(dt float64) error
	HandleResize(width, height int)

	// Cameras

	Camera() *Camera
	ActiveCamera() *Camera
	SetActiveCamera(cam *Camera)

	// Events

	OnActivated(fn func(id string))
	OnDeactivated(fn func(id string))

	Dispose()
}

var _ Manager = (*DefaultManager)(nil)

// DefaultManager guards its registry with a mutex but runs scene hooks
// outside it, so hooks may call back into the manager.
//
// Activation is deliberately not transactional: the current scene is
// deactivated before the new id is resolved, so activating an unknown id
// leaves no scene active.
type DefaultManager struct {
	log *log.Logger

	mu        sync.RWMutex
	scenes    map[string]Scene
	active    Scene
	activeID  string
	defCam    *Camera
	activeCam *Camera

	onActivated   []func(string)
	onDeactivated []func(string)
}

// NewManager builds a manager with a default camera sized to the initial
// viewport.
func NewManager(logger *log.Logger, width, height int) *DefaultManager {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	cam := NewCamera(DefaultFOV, float64(width)/float64(height), DefaultNear, DefaultFar)
	return &DefaultManager{
		log:       logger,
		scenes:    make(map[string]Scene),
		defCam:    cam,
		activeCam: cam,
	}
}

// Register adds a scene under an id without activating it. A duplicate id
// logs a warning and keeps the existing scene.
func (m *DefaultManager) Register(id string, s Scene) {
	if id == "" || s == nil {
		m.log.Warn("ignoring invalid scene registration", log.String("scene", id))
		return
	}
	m.mu.Lock()
	if _, exists := m.scenes[id]; exists {
		m.mu.Unlock()
		m.log.Warn("scene already registered", log.String("scene", id))
		return
	}
	m.scenes[id] = s
	m.mu.Unlock()
	m.log.Info("scene registered", log.String("scene", id))
}

// Unregister deactivates the scene if it is active, then disposes and
// removes it. Unknown ids log a warning.
func (m *DefaultManager) Unregister(id string) {
	m.mu.RLock()
	s, exists := m.scenes[id]
	wasActive := m.activeID == id
	m.mu.RUnlock()
	if !exists {
		m.log.Warn("scene not registered", log.String("scene", id))
		return
	}

	if wasActive {
		m.Activate("")
	}

	m.mu.Lock()
	delete(m.scenes, id)
	m.mu.Unlock()

	s.Dispose()
	m.log.Info("scene unregistered", log.String("scene", id))
}

func (m *DefaultManager) Get(id string) (Scene, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.scenes[id]
	return s, ok
}

func (m *DefaultManager) Has(id string) bool {
	_, ok := m.Get(id)
	return ok
}

// SceneIDs returns the registered ids, sorted for stable output.
func (m *DefaultManager) SceneIDs() []string {
	m.mu.RLock()
	ids := sequence.Keys(m.scenes).Collect()
	m.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Activate switches the active scene. The current scene is deactivated
// first, unconditionally; the empty id stops there and leaves no scene
// active. An unknown id is logged and likewise leaves no scene active.
func (m *DefaultManager) Activate(id string) {
	m.mu.Lock()
	old := m.active
	oldID := m.activeID
	m.active = nil
	m.activeID = ""
	deactivated := slices.Clone(m.onDeactivated)
	m.mu.Unlock()

	if old != nil {
		old.OnDeactivate()
		m.log.Debug("scene deactivated", log.String("scene", oldID))
		for _, fn := range deactivated {
			fn(oldID)
		}
	}

	if id == "" {
		return
	}

	m.mu.Lock()
	next, ok := m.scenes[id]
	if !ok {
		m.mu.Unlock()
		m.log.Error("cannot activate unknown scene", log.String("scene", id))
		return
	}
	m.active = next
	m.activeID = id
	activated := slices.Clone(m.onActivated)
	m.mu.Unlock()

	next.OnActivate()
	m.log.Info("scene activated", log.String("scene", id))
	for _, fn := range activated {
		fn(id)
	}
}

func (m *DefaultManager) ActiveID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeID
}

func (m *DefaultManager) Active() (Scene, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active, m.active != nil
}

// Update advances the active scene. With no active scene it is a no-op.
func (m *DefaultManager) Update(dt float64) error {
	m.mu.RLock()
	active := m.active
	id := m.activeID
	m.mu.RUnlock()

	if active == nil {
		return nil
	}
	if err := active.Update(dt); err != nil {
		return fmt.Errorf("scene %s: %w", id, err)
	}
	return nil
}

// HandleResize updates the default camera and forwards the event to the
// active scene when it opts in via Resizable. Inactive scenes never see
// resizes.
func (m *DefaultManager) HandleResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	m.mu.RLock()
	cam := m.defCam
	active := m.active
	m.mu.RUnlock()

	cam.SetAspect(float64(width) / float64(height))
	if r, ok := active.(Resizable); ok {
		r.HandleResize(width, height)
	}
}

// Camera returns the manager-owned default camera.
func (m *DefaultManager) Camera() *Camera {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defCam
}

// ActiveCamera returns the camera the renderer should draw with.
func (m *DefaultManager) ActiveCamera() *Camera {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeCam
}

// SetActiveCamera overrides the render camera. A nil camera restores the
// default.
func (m *DefaultManager) SetActiveCamera(cam *Camera) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cam == nil {
		m.activeCam = m.defCam
		return
	}
	m.activeCam = cam
}

func (m *DefaultManager) OnActivated(fn func(string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onActivated = append(m.onActivated, fn)
}

func (m *DefaultManager) OnDeactivated(fn func(string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDeactivated = append(m.onDeactivated, fn)
}

// Dispose disposes every registered scene and clears the registry and
// observers. Deactivation hooks do not fire; disposal supersedes them.
func (m *DefaultManager) Dispose() {
	m.mu.Lock()
	scenes := m.scenes
	m.scenes = make(map[string]Scene)
	m.active = nil
	m.activeID = ""
	m.onActivated = nil
	m.onDeactivated = nil
	m.mu.Unlock()

	sequence.FromMap(scenes).Each(Scene.Dispose)
	m.log.Debug("scene manager disposed", log.Int("scenes", len(scenes)))
}
