package handlers

import (
	"strconv"
	"time"

	"firefight-platform/middleware"
	"firefight-platform/models"
	"firefight-platform/services"

	"github.com/gofiber/fiber/v2"
)

type announcementRequest struct {
	Title            string                  `json:"title" validate:"required,max=200"`
	Body             string                  `json:"body"`
	Kind             models.AnnouncementKind `json:"kind" validate:"omitempty,oneof=general maintenance tournament promotion"`
	TournamentID     string                  `json:"tournament_id"`
	MaintenanceStart *time.Time              `json:"maintenance_start"`
	MaintenanceEnd   *time.Time              `json:"maintenance_end"`
	PromoCode        string                  `json:"promo_code" validate:"max=32"`
}

type ticketRequest struct {
	Category    models.TicketCategory `json:"category" validate:"required"`
	Subject     string                `json:"subject" validate:"required,max=200"`
	Message     string                `json:"message" validate:"required"`
	ReferenceID string                `json:"reference_id"`
}

type resolveRequest struct {
	Resolution string `json:"resolution"`
}

func SetupAnnouncementRoutes(api, admin fiber.Router, announcements *services.AnnouncementService) {
	api.Get("/announcements", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "20"))
		list, err := announcements.Published(c.UserContext(), models.AnnouncementKind(c.Query("kind")), limit)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": list})
	})

	// 🔒 Admin
	admin.Post("/announcements", func(c *fiber.Ctx) error {
		var req announcementRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		a, err := announcements.Create(c.UserContext(), services.AnnouncementInput{
			Title:            req.Title,
			Body:             req.Body,
			Kind:             req.Kind,
			TournamentID:     req.TournamentID,
			MaintenanceStart: req.MaintenanceStart,
			MaintenanceEnd:   req.MaintenanceEnd,
			PromoCode:        req.PromoCode,
			AuthorID:         middleware.UserID(c),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(a)
	})

	admin.Post("/announcements/:id/publish", func(c *fiber.Ctx) error {
		a, err := announcements.Publish(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(a)
	})
}

func SetupSupportRoutes(api, admin fiber.Router, support *services.SupportService) {
	api.Post("/support/tickets", func(c *fiber.Ctx) error {
		var req ticketRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		t, err := support.Create(c.UserContext(), middleware.UserID(c), req.Category, req.Subject, req.Message, req.ReferenceID)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	})

	api.Get("/support/tickets", func(c *fiber.Ctx) error {
		list, err := support.ForUser(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": list})
	})

	// 🔒 Admin
	admin.Post("/support/:id/resolve", func(c *fiber.Ctx) error {
		var req resolveRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		t, err := support.Resolve(c.UserContext(), c.Params("id"), middleware.UserID(c), req.Resolution)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(t)
	})
}
