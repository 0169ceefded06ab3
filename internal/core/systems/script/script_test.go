package script

import (
	"context"
	"testing"

	"github.com/d5/tengo/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glint3d/glint/internal/core/observability/log"
	"github.com/glint3d/glint/internal/core/system"
)

func newTestSystem(t *testing.T, source string, opts ...Option) *System {
	t.Helper()
	return New(log.NewNop(), "test-script", []byte(source), opts...)
}

func TestScriptReceivesFrameGlobals(t *testing.T) {
	sys := newTestSystem(t, `
latest_dt := dt
latest_frame := frame
`)
	require.NoError(t, sys.Init(context.Background()))

	require.NoError(t, sys.Update(0.25))
	assert.Equal(t, 0.25, sys.Var("latest_dt"))
	assert.Equal(t, int64(1), sys.Var("latest_frame"))

	require.NoError(t, sys.Update(0.5))
	assert.Equal(t, 0.5, sys.Var("latest_dt"))
	assert.Equal(t, int64(2), sys.Var("latest_frame"))
}

func TestInjectedStatePersistsAcrossFrames(t *testing.T) {
	sys := newTestSystem(t, `state.count += 1`,
		WithGlobal("state", map[string]any{"count": int64(0)}))
	require.NoError(t, sys.Init(context.Background()))

	for i := 0; i < 3; i++ {
		require.NoError(t, sys.Update(0.016))
	}

	state, ok := sys.Var("state").(map[string]any)
	require.True(t, ok, "state should read back as a map")
	assert.Equal(t, int64(3), state["count"])
}

func TestHostFunctionReceivesCalls(t *testing.T) {
	var events []string
	sys := newTestSystem(t, `emit("tick")`,
		WithFunction("emit", func(args ...tengo.Object) (tengo.Object, error) {
			name, _ := tengo.ToString(args[0])
			events = append(events, name)
			return tengo.UndefinedValue, nil
		}))
	require.NoError(t, sys.Init(context.Background()))

	require.NoError(t, sys.Update(0.016))
	require.NoError(t, sys.Update(0.016))
	assert.Equal(t, []string{"tick", "tick"}, events)
}

func TestStdlibModulesAvailable(t *testing.T) {
	sys := newTestSystem(t, `
math := import("math")
root := math.sqrt(16.0)
`)
	require.NoError(t, sys.Init(context.Background()))
	require.NoError(t, sys.Update(0.016))
	assert.Equal(t, 4.0, sys.Var("root"))
}

func TestUpdateBeforeInitIsNoOp(t *testing.T) {
	sys := newTestSystem(t, `boom := undefined_name`)

	assert.NoError(t, sys.Update(0.016))
	assert.Nil(t, sys.Var("boom"))
}

func TestCompileErrorSurfacesAtInit(t *testing.T) {
	sys := newTestSystem(t, `func (`)

	err := sys.Init(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "test-script")
}

func TestRuntimeErrorAbortsFrame(t *testing.T) {
	sys := newTestSystem(t, `x := 1 / zero`, WithGlobal("zero", int64(0)))
	require.NoError(t, sys.Init(context.Background()))

	err := sys.Update(0.016)
	require.Error(t, err)
	assert.ErrorContains(t, err, "test-script")
}

func TestVarOnUndefinedName(t *testing.T) {
	sys := newTestSystem(t, `x := 1`)
	require.NoError(t, sys.Init(context.Background()))
	require.NoError(t, sys.Update(0.016))

	assert.Nil(t, sys.Var("nope"))
	assert.Equal(t, int64(1), sys.Var("x"))
}

func TestSystemIdentity(t *testing.T) {
	sys := newTestSystem(t, `x := 1`)

	assert.Equal(t, "test-script", sys.Name())
	assert.Equal(t, system.PriorityNormal, sys.Priority())
	assert.True(t, sys.Enabled())

	require.NoError(t, sys.Init(context.Background()))
	sys.Dispose()
	assert.NoError(t, sys.Update(0.016))
}
