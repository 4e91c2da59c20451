package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/DanielDss030225/mindfulness-sub001/internal/infrastructure/firebase"
)

type HealthHandler struct {
	firebaseAuth *firebase.AuthClient
}

var healthHandler *HealthHandler

func NewHealthHandler(firebaseAuth *firebase.AuthClient) *HealthHandler {
	return &HealthHandler{
		firebaseAuth: firebaseAuth,
	}
}

func SetupHealthHandler(firebaseAuth *firebase.AuthClient) {
	healthHandler = NewHealthHandler(firebaseAuth)
}

func GetHealthHandler() *HealthHandler {
	return healthHandler
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "Server is running",
		"time":   time.Now().Format(time.RFC3339),
	})
}
