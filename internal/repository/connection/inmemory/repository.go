package inmemory

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/streamoverlay/server/internal/repository/connection"
)

type repo struct {
	viewers   map[*websocket.Conn]*connection.Viewer
	ids       map[string]*connection.Viewer
	writeWait time.Duration
	mu        sync.RWMutex
	logger    *slog.Logger
}

// NewRepo keeps viewers whose writes time out after writeWait.
func NewRepo(logger *slog.Logger, writeWait time.Duration) *repo {
	return &repo{
		viewers:   make(map[*websocket.Conn]*connection.Viewer),
		ids:       make(map[string]*connection.Viewer),
		writeWait: writeWait,
		logger:    logger,
	}
}

func (r *repo) Add(conn *websocket.Conn, viewerID string) (*connection.Viewer, error) {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "viewer_id", viewerID)
	if r.viewers[conn] != nil || r.ids[viewerID] != nil {
		r.logger.Info(funcName, "error", connection.ErrAlreadyExists)
		return nil, connection.ErrAlreadyExists
	}

	v := connection.NewViewer(viewerID, conn, r.writeWait)
	r.viewers[conn] = v
	r.ids[viewerID] = v

	r.logger.Debug(funcName, "result", "OK")
	return v, nil
}

// RemoveByConn forgets conn and closes it.
func (r *repo) RemoveByConn(conn *websocket.Conn) error {
	funcName := "connection.inmemory.RemoveByConn"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName)
	v, ok := r.viewers[conn]
	if !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}
	v.Close()

	delete(r.viewers, conn)
	delete(r.ids, v.ID)

	r.logger.Debug(funcName, "result", v.ID)
	return nil
}

func (r *repo) List() []*connection.Viewer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]*connection.Viewer, 0, len(r.viewers))
	for _, v := range r.viewers {
		list = append(list, v)
	}

	return list
}
