package firebase

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// DevTokenIssuer mints locally verifiable tokens for development, so the
// chat endpoints can be exercised without a Firebase project. Never enabled
// outside the development environment.
type DevTokenIssuer struct {
	secret []byte
}

func NewDevTokenIssuer(secret string) *DevTokenIssuer {
	if secret == "" {
		secret = uuid.New().String()
	}
	return &DevTokenIssuer{secret: []byte(secret)}
}

type devClaims struct {
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

func (d *DevTokenIssuer) Issue(uid, displayName string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	claims := devClaims{
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			ID:        uuid.New().String(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(d.secret)
}

// Verify returns the uid encoded into a dev token.
func (d *DevTokenIssuer) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &devClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return d.secret, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*devClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", fmt.Errorf("invalid dev token")
	}
	return claims.Subject, nil
}
