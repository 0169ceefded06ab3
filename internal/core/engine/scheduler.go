package engine

import (
	"sync"
	"time"
)

// Scheduler decides when frames happen. Start may be called again after
// Stop; Stop must not block on an in-progress step, because a fatal frame
// error stops the scheduler from inside a step.
type Scheduler interface {
	Start(step func(now time.Time))
	Stop()
}

// tickScheduler steps on a fixed ticker. Default outside the browser.
type tickScheduler struct {
	interval time.Duration

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

func NewTickScheduler(fps int) Scheduler {
	if fps <= 0 {
		fps = 60
	}
	return &tickScheduler{interval: time.Second / time.Duration(fps)}
}

func (s *tickScheduler) Start(step func(now time.Time)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true
	s.stopCh = make(chan struct{})
	go s.loop(step, s.stopCh)
}

func (s *tickScheduler) loop(step func(now time.Time), stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			step(now)
		case <-stop:
			return
		}
	}
}

func (s *tickScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
}

// ManualScheduler steps only when told to. For tests and host-driven
// embeddings.
type ManualScheduler struct {
	mu   sync.Mutex
	step func(now time.Time)
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (s *ManualScheduler) Start(step func(now time.Time)) {
	s.mu.Lock()
	s.step = step
	s.mu.Unlock()
}

func (s *ManualScheduler) Stop() {
	s.mu.Lock()
	s.step = nil
	s.mu.Unlock()
}

// Tick runs one frame. The step runs outside the lock so it may stop the
// scheduler itself.
func (s *ManualScheduler) Tick(now time.Time) {
	s.mu.Lock()
	step := s.step
	s.mu.Unlock()
	if step != nil {
		step(now)
	}
}
