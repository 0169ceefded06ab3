// Package physics runs a chipmunk space inside the frame loop. The system
// owns the space; gameplay code adds bodies and shapes through it and reads
// positions back after each step.
package physics

import (
	"github.com/jakecoffman/cp"

	"github.com/glint3d/glint/internal/core/observability/log"
	"github.com/glint3d/glint/internal/core/system"
)

const (
	// DefaultGravity pulls along -Y in world units per second squared.
	DefaultGravity = -9.81

	defaultIterations = 20
	defaultSubsteps   = 1
)

type Option func(*System)

func WithGravity(x, y float64) Option {
	return func(s *System) {
		s.gravity = cp.Vector{X: x, Y: y}
		s.space.SetGravity(s.gravity)
	}
}

// WithIterations sets the solver iteration count. More is stiffer and
// slower.
func WithIterations(n int) Option {
	return func(s *System) {
		if n > 0 {
			s.space.Iterations = uint(n)
		}
	}
}

// WithSubsteps splits each frame delta into n equal space steps, which
// keeps fast bodies from tunneling at low frame rates.
func WithSubsteps(n int) Option {
	return func(s *System) {
		if n > 0 {
			s.substeps = n
		}
	}
}

// System steps the space once per frame. Bodies must be added and removed
// on the frame goroutine; chipmunk is not internally synchronized.
type System struct {
	system.Base
	log      *log.Logger
	space    *cp.Space
	gravity  cp.Vector
	substeps int
	steps    uint64
}

var _ system.System = (*System)(nil)

func New(logger *log.Logger, opts ...Option) *System {
	space := cp.NewSpace()
	space.Iterations = defaultIterations
	gravity := cp.Vector{X: 0, Y: DefaultGravity}
	space.SetGravity(gravity)

	s := &System{
		Base:     system.NewBase("physics", system.PriorityHigh),
		log:      logger,
		space:    space,
		gravity:  gravity,
		substeps: defaultSubsteps,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Space exposes the underlying space for joints, queries, and collision
// handlers the passthroughs below do not cover.
func (s *System) Space() *cp.Space { return s.space }

func (s *System) AddBody(body *cp.Body) *cp.Body { return s.space.AddBody(body) }

func (s *System) RemoveBody(body *cp.Body) { s.space.RemoveBody(body) }

func (s *System) AddShape(shape *cp.Shape) *cp.Shape { return s.space.AddShape(shape) }

func (s *System) RemoveShape(shape *cp.Shape) { s.space.RemoveShape(shape) }

// StaticBody is the space's built-in immovable body, the usual anchor for
// level geometry shapes.
func (s *System) StaticBody() *cp.Body { return s.space.StaticBody }

func (s *System) Gravity() (x, y float64) {
	return s.gravity.X, s.gravity.Y
}

func (s *System) Update(dt float64) error {
	if dt <= 0 {
		return nil
	}
	step := dt / float64(s.substeps)
	for i := 0; i < s.substeps; i++ {
		s.space.Step(step)
	}
	s.steps++
	return nil
}

func (s *System) Dispose() {
	s.log.Debug("physics disposed", log.Uint64("steps", s.steps))
}
