package connection

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
)

// dial opens a websocket pair and returns the server and client sides.
func dial(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		conns <- conn
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	server := <-conns
	t.Cleanup(func() { server.Close() })

	return server, client
}

func TestViewerRunWriterDeliversQueued(t *testing.T) {
	server, client := dial(t)
	v := NewViewer("v", server, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- v.RunWriter(ctx) }()

	require.NoError(t, v.Send(map[string]int{"n": 1}))
	require.NoError(t, v.Send(map[string]int{"n": 2}))

	for want := 1; want <= 2; want++ {
		var got map[string]int
		require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
		require.NoError(t, client.ReadJSON(&got))
		assert.Equal(t, want, got["n"])
	}

	require.NoError(t, v.Close())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunWriter did not stop after Close")
	}
	assert.ErrorIs(t, v.Send("late"), ErrClosed)
}

func TestViewerSendNeverBlocks(t *testing.T) {
	server, _ := dial(t)
	v := NewViewer("v", server, time.Second)

	for i := 0; i < sendBuffer; i++ {
		require.NoError(t, v.Send(i))
	}

	start := time.Now()
	assert.ErrorIs(t, v.Send("overflow"), ErrSlowViewer)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestViewerWriteTimesOutWhenClientStopsReading(t *testing.T) {
	server, _ := dial(t)
	v := NewViewer("v", server, 100*time.Millisecond)

	big := strings.Repeat("x", 1<<20)
	done := make(chan error, 1)
	go func() {
		for i := 0; i < 500; i++ {
			if err := v.WriteJSON(big); err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("write to a client that does not read never returned")
	}
}
