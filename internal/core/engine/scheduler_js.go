//go:build js && wasm

package engine

import (
	"sync"
	"syscall/js"
	"time"
)

func newDefaultScheduler(int) Scheduler {
	return &rafScheduler{}
}

// rafScheduler steps on requestAnimationFrame, so the loop pauses with the
// tab and follows the display rate.
type rafScheduler struct {
	mu      sync.Mutex
	running bool
	cb      js.Func
	rafID   js.Value
}

func (s *rafScheduler) Start(step func(now time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	s.cb = js.FuncOf(func(this js.Value, args []js.Value) any {
		s.mu.Lock()
		running := s.running
		s.mu.Unlock()
		if !running {
			return nil
		}

		// rAF hands us a monotonic timestamp in milliseconds
		now := time.Now()
		if len(args) > 0 {
			now = time.UnixMilli(int64(args[0].Float()))
		}
		step(now)

		s.mu.Lock()
		if s.running {
			s.rafID = js.Global().Call("requestAnimationFrame", s.cb)
		}
		s.mu.Unlock()
		return nil
	})
	s.rafID = js.Global().Call("requestAnimationFrame", s.cb)
}

func (s *rafScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	js.Global().Call("cancelAnimationFrame", s.rafID)
	s.cb.Release()
}
