package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/glint3d/glint/internal/core/observability/log"
	"github.com/glint3d/glint/internal/core/system"
)

// outboundBacklog bounds messages staged between frames. Queue drops once
// the backlog is full; Update logs the drop once per burst.
const outboundBacklog = 256

const inboundBacklog = 256

// Handler receives one inbound message. It runs on the frame goroutine
// during Update.
type Handler func(data []byte)

// Metrics is a point-in-time snapshot of transport traffic.
type Metrics struct {
	Sent      uint64
	Received  uint64
	Dropped   uint64
	Connected bool
}

// System pumps a Transport from the frame loop. Init dials and starts the
// reader and writer goroutines; Update flushes staged outbound messages and
// delivers queued inbound ones without blocking on I/O.
type System struct {
	system.Base
	log       *log.Logger
	transport Transport
	addr      string
	handler   Handler

	mu        sync.Mutex
	pending   [][]byte
	dropped   bool
	connected bool
	disposed  bool
	cancel    context.CancelFunc

	outCh chan []byte
	inCh  chan []byte
	wg    sync.WaitGroup

	sent         uint64
	received     uint64
	droppedTotal uint64
}

var _ system.System = (*System)(nil)

func New(logger *log.Logger, transport Transport, addr string, handler Handler) *System {
	return &System{
		Base:      system.NewBase("network", system.PriorityLow),
		log:       logger,
		transport: transport,
		addr:      addr,
		handler:   handler,
		outCh:     make(chan []byte, outboundBacklog),
		inCh:      make(chan []byte, inboundBacklog),
	}
}

func (s *System) Init(ctx context.Context) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return errors.New("network: system disposed")
	}
	s.mu.Unlock()

	if err := s.transport.Dial(ctx, s.addr); err != nil {
		return fmt.Errorf("network: %w", err)
	}

	// Pump goroutines outlive the init context.
	runCtx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.connected = true
	s.mu.Unlock()

	s.wg.Add(2)
	go s.readLoop(runCtx)
	go s.writeLoop(runCtx)

	s.log.Info("network connected", log.String("addr", s.addr))
	return nil
}

// Queue stages a message for the next flush. Safe to call from any
// goroutine; drops when the backlog is full.
func (s *System) Queue(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	if len(s.pending) >= outboundBacklog {
		s.dropped = true
		s.droppedTotal++
		return
	}
	s.pending = append(s.pending, data)
}

func (s *System) Update(float64) error {
	s.flushOutbound()
	s.deliverInbound()
	return nil
}

func (s *System) flushOutbound() {
	s.mu.Lock()
	staged := s.pending
	s.pending = nil
	warnDrop := s.dropped
	s.dropped = false
	s.mu.Unlock()

	if warnDrop {
		s.log.Warn("outbound backlog full, messages dropped",
			log.Int("backlog", outboundBacklog))
	}

	for i, msg := range staged {
		select {
		case s.outCh <- msg:
			continue
		default:
		}
		// Writer is behind. Put the remainder back at the head so order holds.
		s.mu.Lock()
		s.pending = append(staged[i:], s.pending...)
		s.mu.Unlock()
		return
	}
}

func (s *System) deliverInbound() {
	for {
		select {
		case data := <-s.inCh:
			atomic.AddUint64(&s.received, 1)
			if s.handler != nil {
				s.handler(data)
			}
		default:
			return
		}
	}
}

func (s *System) readLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		data, err := s.transport.Receive(ctx)
		if err != nil {
			if ctx.Err() == nil {
				s.log.Warn("receive failed", log.Error(err))
				s.setConnected(false)
			}
			return
		}
		select {
		case s.inCh <- data:
		case <-ctx.Done():
			return
		}
	}
}

func (s *System) writeLoop(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case data := <-s.outCh:
			if err := s.transport.Send(ctx, data); err != nil {
				if ctx.Err() == nil {
					s.log.Warn("send failed", log.Error(err))
					s.setConnected(false)
				}
				return
			}
			atomic.AddUint64(&s.sent, 1)
		case <-ctx.Done():
			return
		}
	}
}

func (s *System) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *System) Metrics() Metrics {
	s.mu.Lock()
	connected := s.connected
	s.mu.Unlock()
	return Metrics{
		Sent:      atomic.LoadUint64(&s.sent),
		Received:  atomic.LoadUint64(&s.received),
		Dropped:   atomic.LoadUint64(&s.droppedTotal),
		Connected: connected,
	}
}

func (s *System) setConnected(v bool) {
	s.mu.Lock()
	s.connected = v
	s.mu.Unlock()
}

func (s *System) Dispose() {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return
	}
	s.disposed = true
	s.connected = false
	s.pending = nil
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	// Closing the transport releases a blocked Receive.
	_ = s.transport.Close()
	s.wg.Wait()

	s.log.Debug("network disposed",
		log.Uint64("sent", atomic.LoadUint64(&s.sent)),
		log.Uint64("received", atomic.LoadUint64(&s.received)),
	)
}
