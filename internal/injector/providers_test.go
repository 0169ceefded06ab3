package injector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glint3d/glint/internal/core/engine"
)

func resetShared() {
	sharedMu.Lock()
	shared = nil
	sharedMu.Unlock()
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestBuildEngineWithDefaults(t *testing.T) {
	resetShared()

	eng, err := BuildEngine("")
	require.NoError(t, err)
	t.Cleanup(eng.Dispose)

	assert.Equal(t, engine.DefaultConfig().Width, eng.Config().Width)

	got, err := Shared()
	require.NoError(t, err)
	assert.Same(t, eng, got, "building should register the shared instance")
}

func TestBuildEngineMissingFileFallsBack(t *testing.T) {
	resetShared()

	eng, err := BuildEngine(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	t.Cleanup(eng.Dispose)

	assert.Equal(t, engine.DefaultConfig().TargetFPS, eng.Config().TargetFPS)
}

func TestBuildEngineAppliesConfigFile(t *testing.T) {
	resetShared()
	path := writeConfig(t, "width: 640\nheight: 360\nlog_level: error\n")

	eng, err := BuildEngine(path)
	require.NoError(t, err)
	t.Cleanup(eng.Dispose)

	assert.Equal(t, 640, eng.Config().Width)
	assert.Equal(t, 360, eng.Config().Height)
}

func TestBuildEngineRejectsBadConfig(t *testing.T) {
	resetShared()
	path := writeConfig(t, "log_level: shout\n")

	_, err := BuildEngine(path)
	require.Error(t, err)
}

func TestSharedBuildsDefaultOnFirstUse(t *testing.T) {
	resetShared()

	first, err := Shared()
	require.NoError(t, err)
	t.Cleanup(first.Dispose)

	second, err := Shared()
	require.NoError(t, err)
	assert.Same(t, first, second)
}
