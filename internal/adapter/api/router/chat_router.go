package router

import (
	"github.com/labstack/echo/v4"

	"plantio/internal/adapter/api/handler"
	"plantio/internal/adapter/api/middleware"
)

// SetupChatRouter wires the support chat routes.
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware, adminMiddleware *middleware.AdminMiddleware) {
	rooms := e.Group("/v1/support/rooms")
	rooms.Use(authMiddleware.Authenticate)

	rooms.POST("", chatHandler.OpenRoom)
	rooms.GET("", chatHandler.GetUserRooms)
	rooms.GET("/:id", chatHandler.GetRoomByID)
	rooms.POST("/:id/messages", chatHandler.SendMessage)
	rooms.GET("/:id/messages", chatHandler.GetMessages)
	rooms.PUT("/:id/read", chatHandler.MarkRead)
	rooms.PUT("/:id/close", chatHandler.CloseRoom)

	history := e.Group("/v1/support/history")
	history.Use(authMiddleware.Authenticate)
	history.GET("", chatHandler.GetChatHistory)

	adminRooms := e.Group("/v1/admin/support/rooms")
	adminRooms.Use(authMiddleware.Authenticate)
	adminRooms.Use(adminMiddleware.AdminOnly)

	adminRooms.GET("", chatHandler.GetAdminRooms)
	adminRooms.DELETE("/:id", chatHandler.DeleteRoom)
}
