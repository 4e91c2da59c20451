package router

import (
	"github.com/labstack/echo/v4"

	"github.com/DanielDss030225/mindfulness-sub001/internal/adapter/api/handler"
	"github.com/DanielDss030225/mindfulness-sub001/internal/adapter/api/middleware"
)

func SetupGroupRouter(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	groupHandler := handler.GetGroupHandler()

	groupGroup := e.Group("/v1/groups")
	groupGroup.Use(authMiddleware.Authenticate)

	groupGroup.POST("", groupHandler.CreateGroup)
	groupGroup.GET("", groupHandler.ListMyGroups)
	groupGroup.GET("/:id", groupHandler.GetGroup)
	groupGroup.POST("/:id/join", groupHandler.JoinGroup)
	groupGroup.POST("/:id/leave", groupHandler.LeaveGroup)
}
