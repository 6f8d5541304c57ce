package middleware

import (
	"github.com/gofiber/fiber/v2"

	"skilltracker/backend/config"
	"skilltracker/backend/utils"
)

// AuthMiddleware пропускает запрос только с валидным access-токеном
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return utils.Unauthorized(c, "Unauthorized")
		}
		utils.SetUserID(c, userID)
		return c.Next()
	}
}

// OptionalAuth sets the user id when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) != "" {
			if userID, err := utils.ExtractUserIDFromToken(c, cfg); err == nil {
				utils.SetUserID(c, userID)
			}
		}
		return c.Next()
	}
}
