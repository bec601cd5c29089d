package testutil

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// TestToken returns an HS256 token for userID signed with JWT_SECRET (or
// TEST_JWT_SECRET). JWT_AUDIENCE and JWT_ISSUER are added when set.
func TestToken(userID string) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = os.Getenv("TEST_JWT_SECRET")
	}
	if secret == "" {
		return "", errors.New("JWT_SECRET or TEST_JWT_SECRET must be set")
	}
	claims := jwt.MapClaims{
		"sub":    userID,
		"userId": userID,
		"iat":    time.Now().Unix(),
		"exp":    time.Now().Add(time.Hour).Unix(),
	}
	if aud := os.Getenv("JWT_AUDIENCE"); aud != "" {
		claims["aud"] = aud
	}
	if iss := os.Getenv("JWT_ISSUER"); iss != "" {
		claims["iss"] = iss
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
