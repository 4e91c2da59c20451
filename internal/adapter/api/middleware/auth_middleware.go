package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/DanielDss030225/mindfulness-sub001/internal/infrastructure/firebase"
)

type AuthMiddleware struct {
	firebaseAuth *firebase.AuthClient
	devTokens    *firebase.DevTokenIssuer
}

// NewAuthMiddleware verifies Firebase ID tokens. devTokens may be nil; when
// set (development only) locally issued tokens are accepted as a fallback.
func NewAuthMiddleware(firebaseAuth *firebase.AuthClient, devTokens *firebase.DevTokenIssuer) *AuthMiddleware {
	return &AuthMiddleware{
		firebaseAuth: firebaseAuth,
		devTokens:    devTokens,
	}
}

func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is required")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid authorization format")
		}

		uid, err := m.UIDFromToken(c.Request().Context(), parts[1])
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
		}

		c.Set("uid", uid)
		return next(c)
	}
}

// UIDFromToken verifies a raw token outside the middleware chain, used by
// the WebSocket handshake where the token arrives as a query parameter.
func (m *AuthMiddleware) UIDFromToken(ctx context.Context, token string) (string, error) {
	uid, err := m.firebaseAuth.VerifyToken(ctx, token)
	if err == nil {
		return uid, nil
	}
	if m.devTokens != nil {
		if uid, devErr := m.devTokens.Verify(token); devErr == nil {
			return uid, nil
		}
	}
	return "", err
}
