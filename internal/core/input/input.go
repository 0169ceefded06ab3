// Package input turns asynchronous device events into a per-frame snapshot.
// Sources push events from any goroutine; Update, called once per tick,
// folds the pending events into pressed/just-pressed/just-released sets that
// stay stable until the next tick.
package input

// EventType discriminates raw device events.
type EventType uint8

const (
	KeyDown EventType = iota + 1
	KeyUp
	PointerMove
	PointerDown
	PointerUp
)

// Event is one raw device event. Key holds a layout-independent key code
// ("KeyW", "Space", "ArrowLeft") for key events; Button and X/Y apply to
// pointer events.
type Event struct {
	Type   EventType
	Key    string
	Button int
	X, Y   float64
}

// Sink receives raw events. Safe to call from any goroutine.
type Sink interface {
	Push(ev Event)
}

// Source is a device adapter: a browser event bridge, a window library, a
// replay file. Attach hands it the sink to push into; Detach must stop all
// pushes before returning.
type Source interface {
	Attach(sink Sink)
	Detach()
}
