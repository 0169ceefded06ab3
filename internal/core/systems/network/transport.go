// Package network drives a client transport from the frame loop. Outbound
// messages are staged on the frame goroutine and flushed by a writer
// goroutine; inbound messages are queued by a reader goroutine and handed to
// the handler during Update. Frame updates never block on the wire.
package network

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by transport operations before Dial succeeds.
var ErrNotConnected = errors.New("network: not connected")

// Transport is a client connection to a remote endpoint. Send and Receive
// must be safe to call from different goroutines. Close unblocks a pending
// Receive.
type Transport interface {
	Dial(ctx context.Context, addr string) error
	Send(ctx context.Context, data []byte) error
	Receive(ctx context.Context) ([]byte, error)
	Close() error
}
