package handler

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/DanielDss030225/mindfulness-sub001/internal/infrastructure/firebase"
	"github.com/DanielDss030225/mindfulness-sub001/pkg/response"
)

// DevTokenHandler mints locally verifiable tokens so the chat API can be
// exercised without a Firebase project. Routed only in development.
type DevTokenHandler struct {
	issuer *firebase.DevTokenIssuer
}

var devTokenHandler *DevTokenHandler

func NewDevTokenHandler(issuer *firebase.DevTokenIssuer) *DevTokenHandler {
	return &DevTokenHandler{
		issuer: issuer,
	}
}

func SetupDevTokenHandler(issuer *firebase.DevTokenIssuer) {
	devTokenHandler = NewDevTokenHandler(issuer)
}

func GetDevTokenHandler() *DevTokenHandler {
	return devTokenHandler
}

type devTokenRequest struct {
	UserID      string `json:"userId" validate:"required"`
	DisplayName string `json:"displayName"`
	TTLHours    int    `json:"ttlHours"`
}

func (h *DevTokenHandler) GenerateToken(c echo.Context) error {
	var req devTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	token, err := h.issuer.Issue(req.UserID, req.DisplayName, time.Duration(req.TTLHours)*time.Hour)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"token":  token,
		"userId": req.UserID,
	})
}
