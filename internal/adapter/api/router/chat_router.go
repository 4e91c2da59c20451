package router

import (
	"github.com/labstack/echo/v4"

	"github.com/DanielDss030225/mindfulness-sub001/internal/adapter/api/handler"
	"github.com/DanielDss030225/mindfulness-sub001/internal/adapter/api/middleware"
)

func SetupChatRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	chatHandler := handler.GetChatHandler()

	chatGroup := e.Group("/v1/chat")
	chatGroup.Use(authMiddleware.Authenticate)

	chatGroup.POST("/messages", chatHandler.SendMessage)
	chatGroup.GET("/messages", chatHandler.GetMessages)
	chatGroup.PUT("/read", chatHandler.MarkRead)
	chatGroup.GET("/conversations", chatHandler.GetConversations)
	chatGroup.GET("/unread", chatHandler.GetUnreadCount)
	chatGroup.GET("/online", chatHandler.GetOnlineUsers)
	chatGroup.GET("/users/search", chatHandler.SearchUsers)
	chatGroup.POST("/logout", chatHandler.Logout)
}
