package wsrouter

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gorilla/websocket"
)

// Conn is the part of a websocket connection the router needs.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
}

type message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type errorMessage struct {
	Error string `json:"error"`
}

type HandlerFunc func(ctx context.Context, conn Conn, payload json.RawMessage) error

type Middleware func(HandlerFunc) HandlerFunc

type WSRouter struct {
	routes      map[string]HandlerFunc
	middlewares []Middleware
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc)}
}

// Use adds middlewares wrapping every handler registered afterwards.
func (r *WSRouter) Use(mws ...Middleware) {
	r.middlewares = append(r.middlewares, mws...)
}

func (r *WSRouter) Handle(messageType string, handler HandlerFunc) {
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}
	r.routes[messageType] = handler
}

// ServeConn reads messages until the connection fails. A normal close
// returns nil.
func (r *WSRouter) ServeConn(ctx context.Context, conn Conn) error {
	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				if err := conn.WriteJSON(errorMessage{Error: "invalid message"}); err != nil {
					return err
				}
				continue
			}
			return err
		}

		handler, exists := r.routes[msg.Type]
		if !exists {
			if err := conn.WriteJSON(errorMessage{Error: "unknown message type"}); err != nil {
				return err
			}
			continue
		}

		if err := handler(context.WithValue(ctx, messageTypeKey, msg.Type), conn, msg.Payload); err != nil {
			if err := conn.WriteJSON(errorMessage{Error: err.Error()}); err != nil {
				return err
			}
		}
	}
}
