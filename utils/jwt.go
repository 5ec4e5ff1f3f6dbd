package utils

import (
	"errors"
	"time"

	"lockbox/models"

	"github.com/golang-jwt/jwt"
)

// GenerateToken creates a signed JWT carrying the user id and dashboard role.
func GenerateToken(secret []byte, actor models.Actor, duration time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  actor.UserID,
		"role": string(actor.Role),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(duration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken parses and validates a token string and returns the token if valid.
func ValidateToken(secret []byte, tokenString string) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
}

// ActorFromToken extracts the caller's identity and role capability.
// Older tokens carry the user id under "id" instead of "sub".
func ActorFromToken(secret []byte, tokenString string) (models.Actor, error) {
	token, err := ValidateToken(secret, tokenString)
	if err != nil {
		return models.Actor{}, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Actor{}, errors.New("invalid token")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		sub, _ = claims["id"].(string)
	}
	if sub == "" {
		return models.Actor{}, errors.New("token does not contain a valid subject")
	}
	roleClaim, _ := claims["role"].(string)
	role, ok := models.ParseRole(roleClaim)
	if !ok {
		return models.Actor{}, errors.New("token does not carry a host or rent role")
	}
	return models.Actor{UserID: sub, Role: role}, nil
}
