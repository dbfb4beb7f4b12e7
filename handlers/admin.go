package handlers

import (
	"firefight-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupModerationRoutes(admin fiber.Router, moderation *services.ModerationService) {
	admin.Get("/queue", func(c *fiber.Ctx) error {
		q, err := moderation.Queue(c.UserContext())
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(q)
	})
}
