package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"skilltracker/backend/ai"
	"skilltracker/backend/config"
	"skilltracker/backend/jobs"
	"skilltracker/backend/middleware"
	"skilltracker/backend/routes"
	"skilltracker/backend/services"
	"skilltracker/backend/utils"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "skilltracker",
		Short:        "Skill progress tracker API",
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (default)",
		RunE:  runServe,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update tables and seed system categories",
		RunE:  runMigrate,
	})
	rootCmd.AddCommand(&cobra.Command{
		Use:   "purge-sessions",
		Short: "Delete expired refresh sessions once and exit",
		RunE:  runPurgeSessions,
	})
	return rootCmd
}

// bootstrap loads configuration, the logger and a migrated database.
func bootstrap() (*config.Config, *utils.Logger, *gorm.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error loading config: %w", err)
	}

	logger, err := utils.InitLogger(cfg.LogMode)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error initializing logger: %w", err)
	}

	db, err := utils.InitDB(cfg)
	if err != nil {
		logger.Error("Error initializing database", "driver", cfg.DBDriver, "error", err)
		return nil, nil, nil, err
	}
	if err := utils.Migrate(db); err != nil {
		logger.Error("Error migrating database", "error", err)
		return nil, nil, nil, err
	}
	return cfg, logger, db, nil
}

func runMigrate(_ *cobra.Command, _ []string) error {
	_, logger, _, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()
	logger.Info("Database migrated")
	return nil
}

func runPurgeSessions(cmd *cobra.Command, _ []string) error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	n, err := services.NewAuthService(db, logger, cfg, nil).PurgeExpiredSessions(cmd.Context())
	if err != nil {
		return err
	}
	logger.Info("Expired sessions purged", "count", n)
	return nil
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, logger, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	var gen ai.Generator
	gemini, err := ai.NewGeminiClient(cfg)
	switch {
	case errors.Is(err, ai.ErrNotConfigured):
		logger.Warn("GEMINI_API_KEY is not set, AI planning is disabled")
	case err != nil:
		return err
	default:
		gen = gemini
	}

	scheduler := jobs.New(services.NewAuthService(db, logger, cfg, nil), logger)
	if err := scheduler.Start(cfg.SessionCleanupCron); err != nil {
		logger.Error("Error starting scheduler", "cron", cfg.SessionCleanupCron, "error", err)
		return err
	}
	defer scheduler.Stop()

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "skilltracker",
		ErrorHandler: middleware.ErrorHandler(logger),
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.TrimSpace(cfg.CORSOrigins),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	app.Use(middleware.LoggingMiddleware(logger))

	// Setup routes
	routes.SetupRoutes(app, db, cfg, logger, gen)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting", "port", cfg.ServerPort, "db", cfg.DBDriver)
		errCh <- app.Listen(":" + cfg.ServerPort)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		logger.Info("Shutting down")
		return app.ShutdownWithTimeout(shutdownTimeout)
	}
}
