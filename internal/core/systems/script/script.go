// Package script runs a tengo program once per frame. The script is
// compiled during system init; each update re-runs the compiled program
// with fresh dt and frame globals. State the script wants to keep between
// frames lives in injected globals, which persist across runs.
package script

import (
	"context"
	"fmt"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/glint3d/glint/internal/core/observability/log"
	"github.com/glint3d/glint/internal/core/system"
)

type Option func(*System)

// WithGlobal injects a named global. Mutable values (maps, slices) keep
// their mutations between frames.
func WithGlobal(name string, value any) Option {
	return func(s *System) { s.globals[name] = value }
}

// WithFunction exposes a host function to the script.
func WithFunction(name string, fn tengo.CallableFunc) Option {
	return func(s *System) {
		s.globals[name] = &tengo.UserFunction{Name: name, Value: fn}
	}
}

// System compiles at init and runs the program every frame. A script error
// aborts the frame like any other system error.
type System struct {
	system.Base
	log    *log.Logger
	source []byte

	globals map[string]any

	mu       sync.RWMutex
	compiled *tengo.Compiled
	frame    uint64
}

var _ system.System = (*System)(nil)

func New(logger *log.Logger, name string, source []byte, opts ...Option) *System {
	s := &System{
		Base:    system.NewBase(name, system.PriorityNormal),
		log:     logger,
		source:  source,
		globals: make(map[string]any),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init compiles the script. Runs on the manager's init goroutine; updates
// arriving before compilation finishes are no-ops.
func (s *System) Init(context.Context) error {
	src := tengo.NewScript(s.source)
	if err := src.Add("dt", 0.0); err != nil {
		return fmt.Errorf("script %s: %w", s.Name(), err)
	}
	if err := src.Add("frame", int64(0)); err != nil {
		return fmt.Errorf("script %s: %w", s.Name(), err)
	}
	for name, value := range s.globals {
		if err := src.Add(name, value); err != nil {
			return fmt.Errorf("script %s: global %s: %w", s.Name(), name, err)
		}
	}
	src.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := src.Compile()
	if err != nil {
		return fmt.Errorf("script %s: %w", s.Name(), err)
	}

	s.mu.Lock()
	s.compiled = compiled
	s.mu.Unlock()

	s.log.Debug("script compiled",
		log.String("system", s.Name()),
		log.Int("bytes", len(s.source)),
	)
	return nil
}

func (s *System) Update(dt float64) error {
	s.mu.RLock()
	compiled := s.compiled
	s.mu.RUnlock()
	if compiled == nil {
		return nil
	}

	s.frame++
	if err := compiled.Set("dt", dt); err != nil {
		return fmt.Errorf("script %s: %w", s.Name(), err)
	}
	if err := compiled.Set("frame", int64(s.frame)); err != nil {
		return fmt.Errorf("script %s: %w", s.Name(), err)
	}
	if err := compiled.Run(); err != nil {
		return fmt.Errorf("script %s: %w", s.Name(), err)
	}
	return nil
}

// Var reads a script variable as a Go value, nil when the script has not
// compiled or the name is undefined.
func (s *System) Var(name string) any {
	s.mu.RLock()
	compiled := s.compiled
	s.mu.RUnlock()
	if compiled == nil || !compiled.IsDefined(name) {
		return nil
	}
	return compiled.Get(name).Value()
}

func (s *System) Dispose() {
	s.mu.Lock()
	s.compiled = nil
	s.mu.Unlock()
	s.log.Debug("script disposed", log.String("system", s.Name()))
}
