// Package scene holds the scene registry and activation lifecycle. A scene
// is one screenful of game content: a menu, a level, a loading view. The
// manager keeps at most one scene active and owns the default camera.
package scene

// Scene is the unit of content the engine updates and renders. Hooks run on
// the frame goroutine.
type Scene interface {
	// OnActivate runs when the scene becomes the active scene.
	OnActivate()
	// OnDeactivate runs when the scene stops being active.
	OnDeactivate()
	// Update advances the scene by dt seconds. Errors are frame-fatal.
	Update(dt float64) error
	Dispose()
}

// Resizable is an optional capability for scenes that track viewport size.
// The manager forwards resizes to the active scene only.
type Resizable interface {
	HandleResize(width, height int)
}

// Base satisfies the uninteresting parts of Scene so concrete scenes declare
// only what they need.
type Base struct{}

func (Base) OnActivate()          {}
func (Base) OnDeactivate()        {}
func (Base) Update(float64) error { return nil }
func (Base) Dispose()             {}
