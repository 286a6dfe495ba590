package jwt

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	AccessTokenDuration  = 24 * time.Hour
	RefreshTokenDuration = 7 * 24 * time.Hour
)

// GenerateTokenPair issues the access/refresh token pair for a user.
func GenerateTokenPair(email string, secret string, userID uint) (string, string, error) {
	accessToken, err := generateToken(email, secret, userID, AccessTokenDuration)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := generateToken(email, secret, userID, RefreshTokenDuration)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func generateToken(email, secret string, userID uint, lifetime time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":    userID,
		"email": email,
		"iat":   time.Now().Unix(),
		"exp":   time.Now().Add(lifetime).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAndGetClaims parses and verifies a token, rejecting anything not
// signed with HMAC under our secret.
func ValidateAndGetClaims(tokenString string, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
