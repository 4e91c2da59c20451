package router

import (
	"github.com/labstack/echo/v4"

	"github.com/DanielDss030225/mindfulness-sub001/internal/adapter/api/middleware"
)

func Setup(e *echo.Echo, authMiddleware *middleware.AuthMiddleware) {
	SetupHealthRouter(e)
	SetupAuthRouter(e)
	SetupChatRouter(e, authMiddleware)
	SetupGroupRouter(e, authMiddleware)
	SetupUserRouter(e, authMiddleware)
}
