package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"firefight-platform/config"
	"firefight-platform/database"
	"firefight-platform/handlers"
	"firefight-platform/middleware"
	"firefight-platform/services"
	"firefight-platform/utils"
	"firefight-platform/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	db, err := database.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store services.ObjectStore
	if cfg.R2Enabled() {
		if store, err = utils.NewR2Store(ctx, cfg.R2); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		log.Printf("✅ Uploads go to R2 bucket %s", cfg.R2.Bucket)
	} else {
		if store, err = utils.NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL); err != nil {
			log.Fatal("failed to ensure upload dir:", err)
		}
		log.Printf("⚠️  R2 not configured, storing uploads in %s", cfg.UploadDir)
	}

	ledger := services.NewLedgerService(db)
	progression := services.NewProgressionService(db)
	tournaments := services.NewTournamentService(db, ledger)
	svc := &handlers.Services{
		Users:         services.NewUserService(db),
		Ledger:        ledger,
		Kyc:           services.NewKycService(db, store),
		Tournaments:   tournaments,
		Participation: services.NewParticipationService(db, tournaments, ledger, progression, store),
		Withdrawals:   services.NewWithdrawalService(db, ledger, cfg.WithdrawalMinAmount),
		Moderation:    services.NewModerationService(db),
		Teams:         services.NewTeamService(db),
		Progression:   progression,
		Badges:        services.NewBadgeService(db),
		Announcements: services.NewAnnouncementService(db),
		Support:       services.NewSupportService(db),
	}

	app := fiber.New(fiber.Config{
		AppName:   "firefight-platform",
		BodyLimit: 10 * 1024 * 1024, // screenshots and KYC images
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))

	// Liveness stays outside the gateway check.
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowedOrigins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-User-Roles, X-User-Name",
		ExposeHeaders:    "Content-Length, Content-Type, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// 🔐❗ Only Gateway requests allowed past this point
	app.Use(middleware.GatewayAuthMiddleware(cfg.GatewayToken))

	if !cfg.R2Enabled() {
		app.Static("/uploads", cfg.UploadDir)
	}

	handlers.SetupRoutes(app, svc)

	sched, err := tournaments.StartTournamentScheduler(cfg.SchedulerInterval)
	if err != nil {
		log.Fatal("failed to start tournament scheduler:", err)
	}
	go workers.AuditLedgers(ctx, ledger, cfg.AuditInterval)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Tournament scheduler running (every %s)", cfg.SchedulerInterval)
	log.Printf("✅ Ledger audit running (every %s)", cfg.AuditInterval)
	log.Printf("✅ CORS configured for origins: %s", strings.Join(cfg.AllowedOrigins, ","))

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := sched.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}
