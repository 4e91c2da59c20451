package router

import (
	"github.com/labstack/echo/v4"

	"github.com/DanielDss030225/mindfulness-sub001/internal/adapter/api/handler"
)

func SetupAuthRouter(e *echo.Echo) {
	authHandler := handler.GetAuthHandler()

	e.POST("/v1/auth/register", authHandler.Register)
}
