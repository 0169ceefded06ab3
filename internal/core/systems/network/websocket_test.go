package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glint3d/glint/internal/core/observability/log"
)

var testUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// newEchoServer upgrades every request and echoes frames back verbatim.
func newEchoServer(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(messageType, data); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketEcho(t *testing.T) {
	url := newEchoServer(t)
	tr := NewWebSocketTransport()
	ctx := context.Background()

	require.NoError(t, tr.Dial(ctx, url))
	require.NoError(t, tr.Send(ctx, []byte("hello")))

	data, err := tr.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)
	assert.NoError(t, tr.Close())
}

func TestWebSocketRejectsUseBeforeDial(t *testing.T) {
	tr := NewWebSocketTransport()
	ctx := context.Background()

	assert.ErrorIs(t, tr.Send(ctx, []byte("x")), ErrNotConnected)
	_, err := tr.Receive(ctx)
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.NoError(t, tr.Close())
}

func TestWebSocketDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	srv.Close()

	tr := NewWebSocketTransport()
	err := tr.Dial(context.Background(), url)
	require.Error(t, err)
	assert.ErrorContains(t, err, "dial")
}

func TestWebSocketSecondDialRejected(t *testing.T) {
	url := newEchoServer(t)
	tr := NewWebSocketTransport()
	require.NoError(t, tr.Dial(context.Background(), url))
	defer tr.Close()

	assert.ErrorContains(t, tr.Dial(context.Background(), url), "already connected")
}

func TestWebSocketCloseUnblocksReceive(t *testing.T) {
	url := newEchoServer(t)
	tr := NewWebSocketTransport()
	require.NoError(t, tr.Dial(context.Background(), url))

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = tr.Close()
	}()

	_, err := tr.Receive(context.Background())
	require.Error(t, err)
}

// End to end: the system pumps a real websocket against an echo server.
func TestSystemOverWebSocket(t *testing.T) {
	url := newEchoServer(t)

	var got [][]byte
	sys := New(log.NewNop(), NewWebSocketTransport(), url, func(data []byte) {
		got = append(got, data)
	})
	defer sys.Dispose()

	require.NoError(t, sys.Init(context.Background()))
	sys.Queue([]byte("ping"))

	for i := 0; i < 400 && len(got) == 0; i++ {
		require.NoError(t, sys.Update(0.016))
		time.Sleep(5 * time.Millisecond)
	}
	require.Len(t, got, 1)
	assert.Equal(t, []byte("ping"), got[0])

	metrics := sys.Metrics()
	assert.Equal(t, uint64(1), metrics.Sent)
	assert.Equal(t, uint64(1), metrics.Received)
	assert.True(t, metrics.Connected)
}
