package input

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/glint3d/glint/internal/core/observability/log"
)

type stubSource struct {
	sink     Sink
	detached bool
}

func (s *stubSource) Attach(sink Sink) { s.sink = sink }
func (s *stubSource) Detach()          { s.detached = true }

func TestKeyLifecycle(t *testing.T) {
	m := NewManager(log.NewNop())

	m.Push(Event{Type: KeyDown, Key: "KeyW"})
	m.Update()

	assert.True(t, m.IsPressed("KeyW"))
	assert.True(t, m.JustPressed("KeyW"))
	assert.False(t, m.JustReleased("KeyW"))

	// held across the next frame: pressed, no longer just-pressed
	m.Update()
	assert.True(t, m.IsPressed("KeyW"))
	assert.False(t, m.JustPressed("KeyW"))

	m.Push(Event{Type: KeyUp, Key: "KeyW"})
	m.Update()
	assert.False(t, m.IsPressed("KeyW"))
	assert.True(t, m.JustReleased("KeyW"))

	m.Update()
	assert.False(t, m.JustReleased("KeyW"))
}

func TestKeyRepeatDoesNotRefireJustPressed(t *testing.T) {
	m := NewManager(log.NewNop())

	m.Push(Event{Type: KeyDown, Key: "Space"})
	m.Update()
	assert.True(t, m.JustPressed("Space"))

	// OS key repeat sends KeyDown again while held
	m.Push(Event{Type: KeyDown, Key: "Space"})
	m.Update()
	assert.True(t, m.IsPressed("Space"))
	assert.False(t, m.JustPressed("Space"))
}

func TestPressAndReleaseWithinOneFrame(t *testing.T) {
	m := NewManager(log.NewNop())

	m.Push(Event{Type: KeyDown, Key: "KeyQ"})
	m.Push(Event{Type: KeyUp, Key: "KeyQ"})
	m.Update()

	assert.False(t, m.IsPressed("KeyQ"))
	assert.True(t, m.JustPressed("KeyQ"))
	assert.True(t, m.JustReleased("KeyQ"))
}

func TestPointerState(t *testing.T) {
	m := NewManager(log.NewNop())

	m.Push(Event{Type: PointerMove, X: 10, Y: 20})
	m.Push(Event{Type: PointerDown, Button: 0, X: 12, Y: 22})
	m.Update()

	x, y := m.Cursor()
	assert.Equal(t, 12.0, x)
	assert.Equal(t, 22.0, y)
	assert.True(t, m.IsButtonDown(0))

	m.Push(Event{Type: PointerUp, Button: 0, X: 14, Y: 24})
	m.Update()
	assert.False(t, m.IsButtonDown(0))
}

func TestEventsAreNotAppliedUntilUpdate(t *testing.T) {
	m := NewManager(log.NewNop())

	m.Push(Event{Type: KeyDown, Key: "KeyA"})
	assert.False(t, m.IsPressed("KeyA"))

	m.Update()
	assert.True(t, m.IsPressed("KeyA"))
}

func TestConcurrentPushes(t *testing.T) {
	m := NewManager(log.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				m.Push(Event{Type: PointerMove, X: float64(j), Y: float64(j)})
			}
		}()
	}
	wg.Wait()
	m.Update()

	x, _ := m.Cursor()
	assert.Equal(t, 49.0, x)
}

func TestBacklogOverflowDropsEvents(t *testing.T) {
	m := NewManager(log.NewNop())

	for i := 0; i < maxPending+100; i++ {
		m.Push(Event{Type: PointerMove, X: float64(i)})
	}
	m.Update()

	x, _ := m.Cursor()
	assert.Equal(t, float64(maxPending-1), x)
}

func TestDisposeDetachesSources(t *testing.T) {
	m := NewManager(log.NewNop())
	src := &stubSource{}
	m.AttachSource(src)
	assert.NotNil(t, src.sink)

	m.Push(Event{Type: KeyDown, Key: "KeyD"})
	m.Dispose()
	m.Dispose()

	assert.True(t, src.detached)

	// pushes after dispose are dropped
	m.Push(Event{Type: KeyDown, Key: "KeyE"})
	m.Update()
	assert.False(t, m.IsPressed("KeyD"))
	assert.False(t, m.IsPressed("KeyE"))
}
