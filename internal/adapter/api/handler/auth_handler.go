package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/DanielDss030225/mindfulness-sub001/internal/usecase"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/response"
)

type AuthHandler struct {
	authUseCase *usecase.AuthUseCase
}

var authHandler *AuthHandler

func NewAuthHandler(authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

func SetupAuthHandler(authUseCase *usecase.AuthUseCase) {
	authHandler = NewAuthHandler(authUseCase)
}

func GetAuthHandler() *AuthHandler {
	return authHandler
}

func (h *AuthHandler) Register(c echo.Context) error {
	var req usecase.RegisterInput
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	out, err := h.authUseCase.Register(c.Request().Context(), req)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, out)
}
