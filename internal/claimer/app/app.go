package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/sagelock/freeclaim/internal/claimer/bot"
	"github.com/sagelock/freeclaim/internal/claimer/notify"
	"github.com/sagelock/freeclaim/internal/claimer/service"
	"github.com/sagelock/freeclaim/internal/claimer/store"
	"github.com/sagelock/freeclaim/internal/claimer/store/drivers/sqlite"
	"github.com/sagelock/freeclaim/internal/claimer/storefront"
	"github.com/sagelock/freeclaim/pkg/cryptox"
	"github.com/sagelock/freeclaim/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the claimer with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db     store.Store
	client *storefront.Client

	// Services
	claimer   *service.Claimer
	notifier  *notify.Manager
	scheduler *service.CycleScheduler

	// Chat surface, nil when no bot token is configured
	bot *bot.Bot
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "freeclaim",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Set master key path for token sealing
	cryptox.SetMasterKeyPath(cfg.MasterKeyPath)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	client, err := storefront.NewClient(storefront.Config{
		IdentityURL:       cfg.IdentityURL,
		CatalogURL:        cfg.CatalogURL,
		GraphQLURL:        cfg.GraphQLURL,
		ClientID:          cfg.ClientID,
		Locale:            cfg.Locale,
		Country:           cfg.Country,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Burst:             cfg.RequestBurst,
	})
	if err != nil {
		_ = app.db.Close()
		return nil, fmt.Errorf("failed to initialize storefront client: %w", err)
	}
	app.client = client

	app.initServices()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("claimer starting", "version", BuildVersion,
		"daily_check", fmt.Sprintf("%02d:%02d UTC", app.cfg.CheckHour, app.cfg.CheckMinute))

	app.notifier.Startup(context.Background())

	if app.bot != nil {
		app.bot.Start()
	}
	app.scheduler.Start()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	sig := <-shutdown
	app.logger.Info("shutdown signal received", "signal", sig)

	if err := app.Shutdown(); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down claimer...")

	app.scheduler.Stop()
	if app.bot != nil {
		app.bot.Stop()
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("claimer stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initServices initializes the claimer, the notification fan-out, the
// scheduler and (when configured) the chat surface.
func (app *Application) initServices() {
	app.claimer = service.NewClaimer(context.Background(), app.db, app.client, app.logger, service.ClaimerConfig{
		Email:      app.cfg.Email,
		Password:   app.cfg.Password,
		TOTPSecret: app.cfg.TOTPSecret,
	})

	var channels []notify.Notifier
	if app.cfg.TelegramToken != "" {
		// One channel per authorized chat, so every operator sees claim
		// notifications, not just the first configured id.
		for _, chatID := range app.cfg.TelegramChatIDs {
			channels = append(channels,
				notify.NewTelegramNotifier(app.cfg.TelegramToken, strconv.FormatInt(chatID, 10)))
		}
	}
	if app.cfg.DiscordWebhookURL != "" {
		channels = append(channels, notify.NewDiscordNotifier(app.cfg.DiscordWebhookURL))
	}
	app.notifier = notify.NewManager(app.logger, channels...)

	app.scheduler = service.NewCycleScheduler(
		app.claimer,
		app.notifier,
		app.logger,
		app.cfg.CheckHour,
		app.cfg.CheckMinute,
	)

	if app.cfg.TelegramToken != "" {
		app.bot = bot.New(
			bot.NewAPI(app.cfg.TelegramToken),
			app.claimer,
			app.logger,
			app.cfg.TelegramChatIDs,
		)
	}
}
