package connection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	DefaultWriteWait = 10 * time.Second
	sendBuffer       = 16
)

var (
	ErrNotFound      = errors.New("connection not found")
	ErrAlreadyExists = errors.New("connection already exists")
	ErrSlowViewer    = errors.New("viewer is not reading")
	ErrClosed        = errors.New("viewer is closed")
)

// Viewer is an open live feed connection. Writes are serialized and bounded by
// a write deadline; reads must come from a single goroutine.
type Viewer struct {
	ID        string
	conn      *websocket.Conn
	writeWait time.Duration

	mu        sync.Mutex
	send      chan any
	done      chan struct{}
	closeOnce sync.Once
}

func NewViewer(id string, conn *websocket.Conn, writeWait time.Duration) *Viewer {
	if writeWait <= 0 {
		writeWait = DefaultWriteWait
	}

	return &Viewer{
		ID:        id,
		conn:      conn,
		writeWait: writeWait,
		send:      make(chan any, sendBuffer),
		done:      make(chan struct{}),
	}
}

func (v *Viewer) Conn() *websocket.Conn {
	return v.conn
}

func (v *Viewer) ReadJSON(dst any) error {
	return v.conn.ReadJSON(dst)
}

func (v *Viewer) WriteJSON(src any) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if err := v.conn.SetWriteDeadline(time.Now().Add(v.writeWait)); err != nil {
		return err
	}

	return v.conn.WriteJSON(src)
}

// Send queues msg for RunWriter and never blocks. A full queue means the
// client stopped reading and yields ErrSlowViewer.
func (v *Viewer) Send(msg any) error {
	select {
	case <-v.done:
		return ErrClosed
	default:
	}

	select {
	case v.send <- msg:
		return nil
	default:
		return ErrSlowViewer
	}
}

// RunWriter writes queued messages until the viewer is closed or ctx is done.
// It returns the first write error.
func (v *Viewer) RunWriter(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-v.done:
			return nil
		case msg := <-v.send:
			if err := v.WriteJSON(msg); err != nil {
				return err
			}
		}
	}
}

// Close stops RunWriter and closes the connection.
func (v *Viewer) Close() error {
	v.closeOnce.Do(func() { close(v.done) })
	return v.conn.Close()
}
