// Taskforge - multi-user task tracking backend
//
// This is the main entry point for the Taskforge API server. It wires
// the SQLite persistence layer, the auth and task services, the
// optional Google Calendar integration, and the HTTP/WebSocket API.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nboulfrad/taskforge/migrations"

	"github.com/nboulfrad/taskforge/internal/api"
	"github.com/nboulfrad/taskforge/internal/auth"
	"github.com/nboulfrad/taskforge/internal/calendar"
	"github.com/nboulfrad/taskforge/internal/infrastructure/config"
	"github.com/nboulfrad/taskforge/internal/infrastructure/database"
	"github.com/nboulfrad/taskforge/internal/infrastructure/logging"
	"github.com/nboulfrad/taskforge/internal/task"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Taskforge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Auth service: accounts, sessions, tokens
	issuer := auth.NewTokenIssuer(
		cfg.Security.JWT.AccessSecret,
		cfg.Security.JWT.RefreshSecret,
		cfg.AccessTokenTTL(),
		cfg.RefreshTokenTTL(),
	)
	userRepo := auth.NewUserRepository(db.DB)
	authSvc := auth.NewService(
		userRepo,
		auth.NewSessionRepository(db.DB),
		issuer,
		cfg.Security.Password.BcryptCost,
		log,
	)

	// Google Calendar integration (optional)
	var calendarClient *calendar.Client
	if cfg.Calendar.Enabled {
		calendarClient, err = calendar.NewClient(ctx, cfg.Calendar, log)
		if err != nil {
			return fmt.Errorf("connecting to Google Calendar: %w", err)
		}
		log.Info("calendar integration enabled", "calendar_id", cfg.Calendar.CalendarID)
	} else {
		log.Info("calendar integration disabled")
	}

	// The hub is created up front so the task service can broadcast
	// change events through it.
	hub := api.NewHub(cfg.WebSocket, log)
	taskSvc := task.NewService(task.NewRepository(db.DB), userRepo, hub, log)

	// API server with WebSocket task event feed
	server, err := api.New(api.Deps{
		Config:   cfg.Server,
		WS:       cfg.WebSocket,
		Security: cfg.Security,
		Logger:   log,
		Auth:     authSvc,
		Tasks:    taskSvc,
		Calendar: calendarClient,
		Hub:      hub,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "host", cfg.Server.Host, "port", cfg.Server.Port)

	// Block until shutdown signal
	<-ctx.Done()
	log.Info("shutdown signal received")

	return nil
}

// getConfigPath returns the configuration file path. The TASKFORGE_CONFIG
// environment variable overrides the default.
func getConfigPath() string {
	if v := os.Getenv("TASKFORGE_CONFIG"); v != "" {
		return v
	}
	return defaultConfigPath
}
