// handlers/progression_routes.go
package handlers

import (
	"strconv"

	"firefight-platform/middleware"
	"firefight-platform/services"

	"github.com/gofiber/fiber/v2"
)

type upiRequest struct {
	UpiID string `json:"upi_id" validate:"required"`
}

func SetupProgressionRoutes(api fiber.Router, users *services.UserService, progression *services.ProgressionService, badges *services.BadgeService) {
	api.Get("/me", func(c *fiber.Ctx) error {
		u, err := users.Get(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{
			"user":     u,
			"roles":    middleware.Roles(c),
			"progress": services.ProgressFor(u),
		})
	})

	api.Put("/me/upi", func(c *fiber.Ctx) error {
		var req upiRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		u, err := users.SetUpiID(c.UserContext(), middleware.UserID(c), req.UpiID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(u)
	})

	api.Get("/me/badges", func(c *fiber.Ctx) error {
		earned, err := badges.ForUser(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": earned})
	})

	api.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "10"))
		entries, err := progression.Leaderboard(c.UserContext(), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": entries})
	})
}
