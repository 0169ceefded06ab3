package network

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTransport exchanges binary frames over a websocket client
// connection. The websocket protocol allows a single concurrent writer, so
// writes are serialized with a mutex.
type WebSocketTransport struct {
	mu      sync.Mutex
	writeMu sync.Mutex
	conn    *websocket.Conn
}

var _ Transport = (*WebSocketTransport)(nil)

func NewWebSocketTransport() *WebSocketTransport {
	return &WebSocketTransport{}
}

func (t *WebSocketTransport) Dial(ctx context.Context, addr string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return errors.New("network: already connected")
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, addr, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	t.conn = conn
	return nil
}

func (t *WebSocketTransport) Send(ctx context.Context, data []byte) error {
	conn := t.connection()
	if conn == nil {
		return ErrNotConnected
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetWriteDeadline(deadline)
	}
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Receive blocks until a frame arrives or the connection closes. The context
// is checked on entry; a blocked read is released by Close.
func (t *WebSocketTransport) Receive(ctx context.Context) ([]byte, error) {
	conn := t.connection()
	if conn == nil {
		return nil, ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	messageType, data, err := conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
		return nil, fmt.Errorf("unsupported message type %d", messageType)
	}
	return data, nil
}

func (t *WebSocketTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}

	// Best effort close handshake before tearing the socket down.
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return conn.Close()
}

func (t *WebSocketTransport) connection() *websocket.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}
