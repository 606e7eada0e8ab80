// Package app provides application initialization and dependency wiring.
//
// App is the container that assembles the components: configuration, logger,
// the Genkit completion client, the session connection registry, conversation
// history, the chat orchestrator, and the HTTP server.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/querychat/querychat/internal/api"
	"github.com/querychat/querychat/internal/chat"
	"github.com/querychat/querychat/internal/config"
	"github.com/querychat/querychat/internal/database"
	"github.com/querychat/querychat/internal/history"
	"github.com/querychat/querychat/internal/llm"
	"github.com/querychat/querychat/internal/log"
	"github.com/querychat/querychat/internal/registry"
)

// App is the core application container.
type App struct {
	Config   *config.Config
	Logger   log.Logger
	Registry *registry.Registry
	History  *history.Store
	Chat     *chat.Service
	Server   *api.Server
}

// Setup wires all components from configuration. The returned App owns the
// registered database connections; call Close on shutdown.
func Setup(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	logger := log.New(log.Config{
		Level:     slog.Level(cfg.LogLevel),
		JSON:      cfg.LogJSON,
		AddSource: cfg.LogSource,
	})

	g, err := llm.InitGenkit(ctx, cfg.Provider, cfg.FullModelName(), cfg.OllamaHost)
	if err != nil {
		return nil, fmt.Errorf("initializing model provider: %w", err)
	}

	completer, err := llm.NewClient(llm.Config{
		Genkit:      g,
		Logger:      logger,
		ModelName:   cfg.FullModelName(),
		RateLimiter: rate.NewLimiter(rate.Limit(cfg.ModelRateLimit), cfg.ModelRateBurst),
	})
	if err != nil {
		return nil, fmt.Errorf("creating completion client: %w", err)
	}

	reg := registry.New(func(ctx context.Context, creds database.Credentials) (database.Conn, error) {
		return database.Connect(ctx, creds, logger)
	}, logger)

	hist := history.New(logger)

	svc, err := chat.New(chat.Config{
		Connections: reg,
		History:     hist,
		Completer:   completer,
		Logger:      logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating chat service: %w", err)
	}

	srv, err := api.NewServer(api.Config{
		Registry:  reg,
		Chat:      svc,
		Logger:    logger,
		RateBurst: cfg.HTTPRateBurst,
	})
	if err != nil {
		return nil, fmt.Errorf("creating HTTP server: %w", err)
	}

	return &App{
		Config:   cfg,
		Logger:   logger,
		Registry: reg,
		History:  hist,
		Chat:     svc,
		Server:   srv,
	}, nil
}

// Run starts the HTTP server and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	return a.Server.Run(ctx, a.Config.Addr)
}

// Close releases all registered database connections.
func (a *App) Close() {
	a.Logger.Info("shutting down application")
	if a.Registry != nil {
		a.Registry.Close()
	}
}
