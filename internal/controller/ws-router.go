package controller

import (
	"github.com/streamoverlay/server/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw())

	mux.Handle("ALIVE", c.handleAlive)
	mux.Handle("RENDER", c.handleRender)

	return mux
}
