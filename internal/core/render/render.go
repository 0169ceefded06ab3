// Package render owns the draw boundary. The engine hands the active scene
// and camera to a Backend once per tick and never touches GPU state itself,
// so the core stays testable without a display.
package render

import (
	"github.com/glint3d/glint/internal/core/scene"
)

// Frame is everything a backend needs for one draw.
type Frame struct {
	Scene  scene.Scene
	Camera *scene.Camera
	Number uint64
	Delta  float64
}

// Backend is the rendering implementation boundary. BeginFrame and EndFrame
// bracket every tick; RenderFrame is issued only when a scene is active.
type Backend interface {
	BeginFrame()
	RenderFrame(frame Frame) error
	EndFrame()
	Resize(width, height int)
	Dispose()
}

// NullBackend draws nothing. Default for tests and headless runs.
type NullBackend struct{}

var _ Backend = (*NullBackend)(nil)

func (NullBackend) BeginFrame()             {}
func (NullBackend) RenderFrame(Frame) error { return nil }
func (NullBackend) EndFrame()               {}
func (NullBackend) Resize(int, int)         {}
func (NullBackend) Dispose()                {}
