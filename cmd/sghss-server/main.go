package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pamela-btob/sghss-uninter/internal/config"
	"github.com/pamela-btob/sghss-uninter/internal/domain/account"
	"github.com/pamela-btob/sghss-uninter/internal/domain/appointment"
	"github.com/pamela-btob/sghss-uninter/internal/domain/exam"
	"github.com/pamela-btob/sghss-uninter/internal/domain/history"
	"github.com/pamela-btob/sghss-uninter/internal/domain/prescription"
	"github.com/pamela-btob/sghss-uninter/internal/domain/record"
	"github.com/pamela-btob/sghss-uninter/internal/domain/reporting"
	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/auth"
	"github.com/pamela-btob/sghss-uninter/internal/platform/db"
	"github.com/pamela-btob/sghss-uninter/internal/platform/middleware"
	"github.com/pamela-btob/sghss-uninter/internal/platform/notification"
	"github.com/pamela-btob/sghss-uninter/internal/platform/phi"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sghss-server",
		Short: "SGHSS hospital management API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Printf("Applied %d migration(s).\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	fields, err := phi.NewService(cfg.EncryptionKey, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid encryption key")
	}

	tokens := auth.NewTokenManager([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.AccessTTL(), cfg.RefreshTTL())

	notifier := notification.NewNotifier(notification.NewTemplateEngine(),
		&notification.LogSender{Logger: logger}, logger, cfg.NotifyQueueSize)
	go notifier.Start(ctx)

	// Services
	accountSvc := account.NewService(account.NewRepoPG(pool, fields))
	apptRepo := appointment.NewRepoPG(pool)
	appointmentSvc := appointment.NewService(apptRepo, accountSvc, notifier)
	recordRepo := record.NewRepoPG(pool, fields)
	recordSvc := record.NewService(recordRepo, accountSvc)
	examRepo := exam.NewRepoPG(pool, fields)
	examSvc := exam.NewService(examRepo, accountSvc)
	prescriptionSvc := prescription.NewService(prescription.NewRepoPG(pool), accountSvc, notifier)
	reportingSvc := reporting.NewService(reporting.NewRepoPG(pool))
	historySvc := history.NewService(accountSvc, recordRepo, examRepo, apptRepo, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = apperr.HTTPErrorHandler(logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))
	if cfg.RequestTimeout > 0 {
		e.Use(middleware.RequestTimeout(time.Duration(cfg.RequestTimeout) * time.Second))
	}

	rateLimitCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateLimitCfg.RequestsPerSecond <= 0 {
		rateLimitCfg = middleware.DefaultRateLimitConfig()
	}

	// Public group carries registration and token endpoints, throttled
	// to slow credential stuffing.
	public := e.Group("/api")
	public.Use(middleware.RateLimit(rateLimitCfg))

	// Everything else requires a valid access token.
	api := e.Group("/api")
	api.Use(auth.Middleware(tokens))
	api.Use(middleware.Audit(logger))

	accountHandler := account.NewHandler(accountSvc, tokens)
	accountHandler.RegisterRoutes(public, api)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(api)
	record.NewHandler(recordSvc).RegisterRoutes(api)
	exam.NewHandler(examSvc).RegisterRoutes(api)
	prescription.NewHandler(prescriptionSvc).RegisterRoutes(api)
	reporting.NewHandler(reportingSvc).RegisterRoutes(api)
	history.NewHandler(historySvc).RegisterRoutes(api)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server listening")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}

	// Drain queued notifications before exiting.
	notifier.Wait()
	logger.Info().Msg("stopped")
	return nil
}
