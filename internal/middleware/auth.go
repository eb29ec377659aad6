// Package middleware provides authentication, logging, metrics, and rate
// limiting middleware for the gateway.
package middleware

import (
	"fmt"
	"strings"

	"wall/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var cfg *config.Config

// InitMiddleware initializes authentication middleware with the given config.
func InitMiddleware(c *config.Config) {
	cfg = c
}

// BearerToken extracts the raw access token from the Authorization header,
// or "" when absent or malformed.
func BearerToken(c *fiber.Ctx) string {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// AuthRequired enforces a valid platform access token on protected routes.
// The token is verified locally against the platform JWT secret; the subject
// claim carries the platform user id.
func AuthRequired(c *fiber.Ctx) error {
	tokenString := BearerToken(c)
	if tokenString == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authorization header required",
		})
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(cfg.AuthJWTSecret), nil
	})
	if err != nil || !token.Valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid or expired token",
		})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid token claims",
		})
	}

	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid token structure - missing subject",
		})
	}

	c.Locals("userID", sub)
	if email, ok := claims["email"].(string); ok {
		c.Locals("userEmail", email)
	}
	c.Locals("accessToken", tokenString)

	return c.Next()
}

// UserID returns the authenticated platform user id set by AuthRequired,
// or "" for anonymous requests.
func UserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("userID").(string); ok {
		return id
	}
	return ""
}
