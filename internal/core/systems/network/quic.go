package network

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/quic-go/quic-go"
)

const (
	quicALPN = "glint"

	// maxFrameSize bounds a single inbound message.
	maxFrameSize = 1 << 20
)

// QUICTransport opens one bidirectional stream per message and frames the
// payload with a 4-byte big-endian length prefix.
type QUICTransport struct {
	tlsConfig *tls.Config

	mu   sync.Mutex
	conn *quic.Conn
}

var _ Transport = (*QUICTransport)(nil)

// NewQUICTransport dials with the given TLS config. A nil config falls back
// to InsecureSkipVerify for self-signed development endpoints.
func NewQUICTransport(tlsConfig *tls.Config) *QUICTransport {
	if tlsConfig == nil {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: true,
			NextProtos:         []string{quicALPN},
		}
	}
	return &QUICTransport{tlsConfig: tlsConfig}
}

func (t *QUICTransport) Dial(ctx context.Context, addr string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		return errors.New("network: already connected")
	}

	conn, err := quic.DialAddr(ctx, addr, t.tlsConfig, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	t.conn = conn
	return nil
}

func (t *QUICTransport) Send(ctx context.Context, data []byte) error {
	conn := t.connection()
	if conn == nil {
		return ErrNotConnected
	}

	stream, err := conn.OpenStreamSync(ctx)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer stream.Close()

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(data)))
	if _, err := stream.Write(header[:]); err != nil {
		return fmt.Errorf("write frame length: %w", err)
	}
	if _, err := stream.Write(data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (t *QUICTransport) Receive(ctx context.Context) ([]byte, error) {
	conn := t.connection()
	if conn == nil {
		return nil, ErrNotConnected
	}

	stream, err := conn.AcceptStream(ctx)
	if err != nil {
		return nil, fmt.Errorf("accept stream: %w", err)
	}

	var header [4]byte
	if _, err := io.ReadFull(stream, header[:]); err != nil {
		return nil, fmt.Errorf("read frame length: %w", err)
	}
	length := binary.BigEndian.Uint32(header[:])
	if length > maxFrameSize {
		return nil, fmt.Errorf("frame of %d bytes exceeds limit", length)
	}

	data := make([]byte, length)
	if _, err := io.ReadFull(stream, data); err != nil {
		return nil, fmt.Errorf("read frame: %w", err)
	}
	return data, nil
}

func (t *QUICTransport) Close() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.CloseWithError(0, "client closed")
}

func (t *QUICTransport) connection() *quic.Conn {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn
}
