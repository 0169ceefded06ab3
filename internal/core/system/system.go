package system

import (
	"context"
	"sync/atomic"
)

// System is a unit of per-frame game logic driven by the manager.
// Implementations embed Base for the identity and enabled plumbing.
type System interface {
	// Identity

	// Name identifies the system within a manager. Names are unique.
	Name() string
	// Priority orders execution. Higher priorities run earlier; equal
	// priorities run in registration order.
	Priority() int

	// Lifecycle

	// Init runs once on a background goroutine after registration. The
	// system stays registered even when Init fails; the manager records
	// the outcome as the system's status.
	Init(ctx context.Context) error
	Dispose()

	// Execution

	// Update runs every frame while the system is enabled. A returned
	// error aborts the frame and stops the engine loop.
	Update(dt float64) error

	// State

	Enabled() bool
	SetEnabled(bool)
}

// Execution priorities. Any int works; these are the conventional tiers.
const (
	PriorityLow    = 100
	PriorityNormal = 500
	PriorityHigh   = 1000
)

// Status reports the outcome of a system's asynchronous initialization.
type Status uint8

const (
	StatusPending Status = iota
	StatusReady
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusReady:
		return "ready"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Base carries name, priority and the enabled flag so concrete systems only
// implement behavior. The zero disabled word means enabled, so systems start
// enabled without extra setup.
type Base struct {
	name     string
	priority int
	disabled int32
}

func NewBase(name string, priority int) Base {
	return Base{name: name, priority: priority}
}

func (b *Base) Name() string { return b.name }

func (b *Base) Priority() int { return b.priority }

func (b *Base) Enabled() bool {
	return atomic.LoadInt32(&b.disabled) == 0
}

func (b *Base) SetEnabled(enabled bool) {
	if enabled {
		atomic.StoreInt32(&b.disabled, 0)
	} else {
		atomic.StoreInt32(&b.disabled, 1)
	}
}

// Init satisfies System for systems with no startup work.
func (b *Base) Init(context.Context) error { return nil }

// Dispose satisfies System for systems with nothing to release.
func (b *Base) Dispose() {}
