package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"skilltracker/backend/config"
)

// GenerateJWTToken issues an access token valid for cfg.AccessTokenTTL from now.
func GenerateJWTToken(userID uint, cfg *config.Config, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(cfg.AccessTokenTTL)
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
		"exp":     expiresAt.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseJWTToken validates tokenString and returns the user id it was issued for.
func ParseJWTToken(tokenString string, cfg *config.Config) (uint, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokenString), "Bearer "))
	if tokenString == "" {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Missing authorization token")
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid token claims")
	}

	userIDFloat, ok := claims["user_id"].(float64)
	if !ok || userIDFloat <= 0 {
		return 0, fiber.NewError(fiber.StatusUnauthorized, "Invalid user ID in token")
	}

	return uint(userIDFloat), nil
}

// ExtractUserIDFromToken reads the Authorization header ("Bearer <token>" or the bare token).
func ExtractUserIDFromToken(c *fiber.Ctx, cfg *config.Config) (uint, error) {
	return ParseJWTToken(c.Get(fiber.HeaderAuthorization), cfg)
}

// NewRefreshToken returns 64 random hex characters.
func NewRefreshToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

const userIDLocal = "user_id"

// SetUserID stores the authenticated user id on the request.
func SetUserID(c *fiber.Ctx, id uint) {
	c.Locals(userIDLocal, id)
}

// UserID returns the authenticated user id, or 0 for anonymous requests.
func UserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals(userIDLocal).(uint); ok {
		return id
	}
	return 0
}
