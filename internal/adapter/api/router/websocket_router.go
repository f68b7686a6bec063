package router

import (
	"github.com/labstack/echo/v4"

	"plantio/internal/adapter/api/handler"
)

// SetupWebSocketRouter wires the realtime endpoint. Authentication happens
// inside the handler because the handshake carries the token as a query
// parameter.
func SetupWebSocketRouter(e *echo.Echo, wsHandler *handler.WebSocketHandler) {
	e.GET("/v1/ws", wsHandler.HandleWebSocket)
}
