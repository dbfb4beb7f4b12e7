package handlers

import (
	"strconv"
	"time"

	"firefight-platform/middleware"
	"firefight-platform/models"
	"firefight-platform/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type createTournamentRequest struct {
	Name            string                  `json:"name" validate:"required,max=120"`
	Game            string                  `json:"game" validate:"max=60"`
	Description     string                  `json:"description"`
	Format          models.TournamentFormat `json:"format" validate:"required,oneof=solo squad"`
	MaxParticipants int                     `json:"max_participants" validate:"required,min=1"`
	EntryFee        decimal.Decimal         `json:"entry_fee"`
	PrizePool       decimal.Decimal         `json:"prize_pool"`
	PrizeSplit      []int                   `json:"prize_split" validate:"dive,min=0,max=100"`
	StartTime       time.Time               `json:"start_time" validate:"required"`
}

type joinRequest struct {
	TeamID *string `json:"team_id"`
}

type statusRequest struct {
	Status       models.TournamentStatus `json:"status" validate:"required"`
	RoomID       string                  `json:"room_id"`
	RoomPassword string                  `json:"room_password"`
}

type roomRequest struct {
	RoomID       string `json:"room_id" validate:"required"`
	RoomPassword string `json:"room_password"`
}

type reviewResultRequest struct {
	Approve bool   `json:"approve"`
	Rank    int    `json:"rank" validate:"min=0"`
	Notes   string `json:"notes"`
}

func SetupTournamentRoutes(api, admin fiber.Router, tournaments *services.TournamentService, participation *services.ParticipationService) {
	// 🔓 Read models; room credentials only for live participants and admins
	api.Get("/tournaments", func(c *fiber.Ctx) error {
		page, size := queryPage(c)
		list, total, err := tournaments.List(c.UserContext(), services.TournamentFilter{
			Status: models.TournamentStatus(c.Query("status")),
			Format: models.TournamentFormat(c.Query("format")),
			Page:   page,
			Size:   size,
		})
		if err != nil {
			return respondError(c, err)
		}
		rows := make([]*models.Tournament, len(list))
		for i := range list {
			rows[i] = &list[i]
		}
		if err := guardRooms(c, tournaments, rows...); err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": list, "total": total, "page": page, "size": size})
	})

	api.Get("/tournaments/:id", func(c *fiber.Ctx) error {
		t, err := tournaments.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		if err := guardRooms(c, tournaments, t); err != nil {
			return respondError(c, err)
		}
		return c.JSON(t)
	})

	api.Get("/tournaments/:id/participants", func(c *fiber.Ctx) error {
		ps, err := tournaments.Participants(c.UserContext(), c.Params("id"))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": ps, "total": len(ps)})
	})

	api.Post("/tournaments", middleware.RequireRole(middleware.RoleAdmin), func(c *fiber.Ctx) error {
		var req createTournamentRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		t, err := tournaments.Create(c.UserContext(), services.CreateTournamentInput{
			Name:            req.Name,
			Game:            req.Game,
			Description:     req.Description,
			Format:          req.Format,
			MaxParticipants: req.MaxParticipants,
			EntryFee:        req.EntryFee,
			PrizePool:       req.PrizePool,
			PrizeSplit:      req.PrizeSplit,
			StartTime:       req.StartTime,
			CreatedBy:       middleware.UserID(c),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(t)
	})

	api.Post("/tournaments/:id/join", func(c *fiber.Ctx) error {
		var req joinRequest
		if len(c.Body()) > 0 {
			if err := parseBody(c, &req); err != nil {
				return respondError(c, err)
			}
		}
		p, err := participation.JoinWithPayment(c.UserContext(), c.Params("id"), middleware.UserID(c), req.TeamID)
		if err != nil {
			return respondError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	})

	// multipart: kills, points, screenshot (or screenshot_url)
	api.Post("/tournaments/:id/results", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)
		kills, err := strconv.Atoi(c.FormValue("kills"))
		if err != nil {
			return respondError(c, &services.ValidationError{Field: "kills", Reason: "must be a number"})
		}
		points, err := strconv.Atoi(c.FormValue("points"))
		if err != nil {
			return respondError(c, &services.ValidationError{Field: "points", Reason: "must be a number"})
		}
		p, err := participation.ParticipantFor(c.UserContext(), c.Params("id"), userID)
		if err != nil {
			return respondError(c, err)
		}
		shot, file, err := formImage(c, "screenshot")
		if err != nil {
			return respondError(c, err)
		}
		if file != nil {
			defer file.Close()
		}
		p, err = participation.SubmitResult(c.UserContext(), services.ResultSubmission{
			ParticipantID: p.ID,
			UserID:        userID,
			Kills:         kills,
			Points:        points,
			Screenshot:    shot,
			ScreenshotURL: c.FormValue("screenshot_url"),
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	})

	api.Get("/me/tournaments", func(c *fiber.Ctx) error {
		entries, err := participation.ForUser(c.UserContext(), middleware.UserID(c))
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(fiber.Map{"data": entries})
	})

	// 🔒 Admin
	admin.Post("/tournaments/:id/status", func(c *fiber.Ctx) error {
		var req statusRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		var room *services.Room
		if req.RoomID != "" {
			room = &services.Room{ID: req.RoomID, Password: req.RoomPassword}
		}
		t, err := tournaments.Transition(c.UserContext(), c.Params("id"), req.Status, room)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(t)
	})

	admin.Post("/tournaments/:id/room", func(c *fiber.Ctx) error {
		var req roomRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		t, err := tournaments.SetRoom(c.UserContext(), c.Params("id"), services.Room{ID: req.RoomID, Password: req.RoomPassword})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(t)
	})

	admin.Post("/results/:id/review", func(c *fiber.Ctx) error {
		var req reviewResultRequest
		if err := parseBody(c, &req); err != nil {
			return respondError(c, err)
		}
		p, err := participation.Verify(c.UserContext(), services.Verdict{
			ParticipantID: c.Params("id"),
			AdminID:       middleware.UserID(c),
			Rank:          req.Rank,
			Approve:       req.Approve,
			Notes:         req.Notes,
		})
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(p)
	})
}

// guardRooms hides lobby credentials unless the tournament is live and the
// caller is an admin or a participant. Membership is loaded once for all
// live tournaments.
func guardRooms(c *fiber.Ctx, tournaments *services.TournamentService, ts ...*models.Tournament) error {
	var live []string
	for _, t := range ts {
		if t.Status != models.TournamentLive {
			t.HideRoom()
			continue
		}
		live = append(live, t.ID)
	}
	if len(live) == 0 || middleware.IsAdmin(c) {
		return nil
	}
	joined, err := tournaments.JoinedAmong(c.UserContext(), middleware.UserID(c), live)
	if err != nil {
		return err
	}
	for _, t := range ts {
		if !joined[t.ID] {
			t.HideRoom()
		}
	}
	return nil
}
