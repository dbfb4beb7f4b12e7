package handlers

import (
	"firefight-platform/middleware"
	"firefight-platform/models"
	"firefight-platform/services"

	"github.com/gofiber/fiber/v2"
)

type createTeamRequest struct {
	Name     string `json:"name" validate:"required,min=3,max=40"`
	LogoURL  string `json:"logo_url" validate:"omitempty,url"`
	InGameID string `json:"in_game_id" validate:"max=64"`
}

type joinTeamRequest struct {
	Code     string            `json:"code" validate:"required,len=9"`
	Role     models.PlayerRole `json:"role"`
	InGameID string            `json:"in_game_id" validate:"max=64"`
}

func SetupTeamRoutes(api fiber.Router, teams *services.TeamService) {
	api.Post("/teams", func(c *fiber.Ctx) error {
		var req createTeamRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		team, err := teams.Create(c.UserContext(), middleware.UserID(c), req.Name, req.LogoURL, req.InGameID)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(team)
	})

	api.Post("/teams/join", func(c *fiber.Ctx) error {
		var req joinTeamRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		team, err := teams.JoinByCode(c.UserContext(), middleware.UserID(c), req.Code, req.Role, req.InGameID)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(team)
	})

	api.Get("/teams", func(c *fiber.Ctx) error {
		list, err := teams.ForUser(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": list})
	})

	api.Get("/teams/:id", func(c *fiber.Ctx) error {
		team, err := teams.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(team)
	})

	api.Delete("/teams/:id/players/:userId", func(c *fiber.Ctx) error {
		if err := teams.RemovePlayer(c.UserContext(), c.Params("id"), middleware.UserID(c), c.Params("userId")); err != nil {
			return respondError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
