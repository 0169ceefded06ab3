package system

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glint3d/glint/internal/core/observability/log"
)

type callRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *callRecorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *callRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeSystem struct {
	Base
	rec         *callRecorder
	initErr     error
	initRelease chan struct{}
	updateErr   error
}

func newFakeSystem(name string, priority int, rec *callRecorder) *fakeSystem {
	return &fakeSystem{Base: NewBase(name, priority), rec: rec}
}

func (s *fakeSystem) Init(context.Context) error {
	if s.initRelease != nil {
		<-s.initRelease
	}
	return s.initErr
}

func (s *fakeSystem) Update(float64) error {
	if s.rec != nil {
		s.rec.add(s.Name())
	}
	return s.updateErr
}

func (s *fakeSystem) Dispose() {
	if s.rec != nil {
		s.rec.add(s.Name() + ":dispose")
	}
}

func waitReady(t *testing.T, m Manager, names ...string) {
	t.Helper()
	assert.Eventually(t, func() bool {
		for _, name := range names {
			status, ok := m.Status(name)
			if !ok || status == StatusPending {
				return false
			}
		}
		return true
	}, time.Second, time.Millisecond)
}

func TestUpdateOrderByPriorityStableTies(t *testing.T) {
	rec := &callRecorder{}
	m := NewManager(log.NewNop())

	m.Register(newFakeSystem("render", 10, rec))
	m.Register(newFakeSystem("audio", 5, rec))
	m.Register(newFakeSystem("physics", 10, rec))

	require.NoError(t, m.Update(0.016))

	assert.Equal(t, []string{"render", "physics", "audio"}, rec.snapshot())
	assert.Equal(t, []string{"render", "physics", "audio"}, m.ExecutionOrder())
}

func TestRegistrationMidRunReordersNextUpdate(t *testing.T) {
	rec := &callRecorder{}
	m := NewManager(log.NewNop())

	m.Register(newFakeSystem("b", 1, rec))
	require.NoError(t, m.Update(0.016))

	m.Register(newFakeSystem("a", 99, rec))
	require.NoError(t, m.Update(0.016))

	assert.Equal(t, []string{"b", "a", "b"}, rec.snapshot())
}

func TestDuplicateRegistrationKeepsOriginal(t *testing.T) {
	rec := &callRecorder{}
	m := NewManager(log.NewNop())

	first := newFakeSystem("movement", 1, rec)
	second := newFakeSystem("movement", 50, rec)
	m.Register(first)
	m.Register(second)

	got, ok := m.Get("movement")
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Equal(t, 1, m.Metrics().Registered)
}

func TestDisabledSystemSkippedButRegistered(t *testing.T) {
	rec := &callRecorder{}
	m := NewManager(log.NewNop())

	m.Register(newFakeSystem("input", 1, rec))
	require.True(t, m.Disable("input"))

	require.NoError(t, m.Update(0.016))
	assert.Empty(t, rec.snapshot())
	assert.True(t, m.Has("input"))

	require.True(t, m.Enable("input"))
	require.NoError(t, m.Update(0.016))
	assert.Equal(t, []string{"input"}, rec.snapshot())
}

func TestEnableUnknownSystem(t *testing.T) {
	m := NewManager(log.NewNop())
	assert.False(t, m.Enable("ghost"))
	assert.False(t, m.Disable("ghost"))
}

func TestUpdateErrorAbortsFrame(t *testing.T) {
	rec := &callRecorder{}
	m := NewManager(log.NewNop())

	failing := newFakeSystem("broken", 10, rec)
	failing.updateErr = errors.New("bad state")
	m.Register(failing)
	m.Register(newFakeSystem("later", 1, rec))

	err := m.Update(0.016)
	require.Error(t, err)
	assert.ErrorContains(t, err, "broken")

	// the failure aborted the pass before lower-priority systems ran
	assert.Equal(t, []string{"broken"}, rec.snapshot())
}

func TestAsyncInitStatusTransitions(t *testing.T) {
	m := NewManager(log.NewNop())

	blocked := newFakeSystem("slow", 1, nil)
	blocked.initRelease = make(chan struct{})
	m.Register(blocked)

	status, ok := m.Status("slow")
	require.True(t, ok)
	assert.Equal(t, StatusPending, status)

	close(blocked.initRelease)
	waitReady(t, m, "slow")

	status, _ = m.Status("slow")
	assert.Equal(t, StatusReady, status)
	assert.NoError(t, m.InitError("slow"))
}

func TestFailedInitKeepsSystemRegistered(t *testing.T) {
	m := NewManager(log.NewNop())

	failing := newFakeSystem("net", 1, nil)
	failing.initErr = errors.New("dial refused")
	m.Register(failing)

	waitReady(t, m, "net")

	status, ok := m.Status("net")
	require.True(t, ok)
	assert.Equal(t, StatusFailed, status)
	assert.EqualError(t, m.InitError("net"), "dial refused")
	assert.True(t, m.Has("net"))

	// a failed system still updates; only its init outcome is recorded
	require.NoError(t, m.Update(0.016))
}

func TestUnregisterDisposes(t *testing.T) {
	rec := &callRecorder{}
	m := NewManager(log.NewNop())

	m.Register(newFakeSystem("audio", 1, rec))
	waitReady(t, m, "audio")

	var gone []string
	m.OnUnregistered(func(name string) { gone = append(gone, name) })

	m.Unregister("audio")
	assert.False(t, m.Has("audio"))
	assert.Contains(t, rec.snapshot(), "audio:dispose")
	assert.Equal(t, []string{"audio"}, gone)

	// unknown name is a logged no-op
	m.Unregister("audio")
	assert.Equal(t, []string{"audio"}, gone)
}

func TestRegistrationObserversFireInOrder(t *testing.T) {
	m := NewManager(log.NewNop())

	var seen []string
	m.OnRegistered(func(sys System) { seen = append(seen, "first:"+sys.Name()) })
	m.OnRegistered(func(sys System) { seen = append(seen, "second:"+sys.Name()) })

	m.Register(newFakeSystem("hud", 1, nil))

	assert.Equal(t, []string{"first:hud", "second:hud"}, seen)
}

func TestDisposeClearsRegistryAndObservers(t *testing.T) {
	rec := &callRecorder{}
	m := NewManager(log.NewNop())

	m.Register(newFakeSystem("a", 2, rec))
	m.Register(newFakeSystem("b", 1, rec))
	waitReady(t, m, "a", "b")

	fired := false
	m.OnRegistered(func(System) { fired = true })

	m.Dispose()

	snap := rec.snapshot()
	assert.Contains(t, snap, "a:dispose")
	assert.Contains(t, snap, "b:dispose")
	assert.Equal(t, 0, m.Metrics().Registered)

	m.Register(newFakeSystem("c", 1, rec))
	assert.False(t, fired)
}

func TestMetricsCountsEnabled(t *testing.T) {
	m := NewManager(log.NewNop())

	m.Register(newFakeSystem("a", 1, nil))
	m.Register(newFakeSystem("b", 2, nil))
	m.Disable("b")

	metrics := m.Metrics()
	assert.Equal(t, 2, metrics.Registered)
	assert.Equal(t, 1, metrics.Enabled)
}
