package router

import (
	"github.com/labstack/echo/v4"

	"plantio/internal/adapter/api/handler"
	"plantio/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	adminMiddleware *middleware.AdminMiddleware,
	chatHandler *handler.ChatHandler,
	couponHandler *handler.CouponHandler,
	wsHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
) {
	SetupChatRouter(e, chatHandler, authMiddleware, adminMiddleware)
	SetupCouponRouter(e, couponHandler, authMiddleware, adminMiddleware)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e, healthHandler)
}
