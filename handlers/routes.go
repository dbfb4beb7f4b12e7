package handlers

import (
	"firefight-platform/middleware"
	"firefight-platform/services"

	"github.com/gofiber/fiber/v2"
)

// Services bundles everything the HTTP layer calls.
type Services struct {
	Users         *services.UserService
	Ledger        *services.LedgerService
	Kyc           *services.KycService
	Tournaments   *services.TournamentService
	Participation *services.ParticipationService
	Withdrawals   *services.WithdrawalService
	Moderation    *services.ModerationService
	Teams         *services.TeamService
	Progression   *services.ProgressionService
	Badges        *services.BadgeService
	Announcements *services.AnnouncementService
	Support       *services.SupportService
}

// SetupRoutes mounts /api behind the user context and /api/admin behind
// the admin role.
func SetupRoutes(app *fiber.App, s *Services) {
	api := app.Group("/api", middleware.UserContextMiddleware(s.Users))
	admin := api.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))

	SetupTournamentRoutes(api, admin, s.Tournaments, s.Participation)
	SetupWalletRoutes(api, admin, s.Users, s.Ledger, s.Withdrawals)
	SetupKycRoutes(api, admin, s.Kyc)
	SetupTeamRoutes(api, s.Teams)
	SetupProgressionRoutes(api, s.Users, s.Progression, s.Badges)
	SetupAnnouncementRoutes(api, admin, s.Announcements)
	SetupSupportRoutes(api, admin, s.Support)
	SetupModerationRoutes(admin, s.Moderation)
}
