package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/dusk-indust/agentmux/internal/completion"
	"github.com/dusk-indust/agentmux/internal/config"
	"github.com/dusk-indust/agentmux/internal/logging"
	"github.com/dusk-indust/agentmux/internal/mcptools"
	"github.com/dusk-indust/agentmux/internal/orchestrator"
	"github.com/dusk-indust/agentmux/internal/registry"
	"github.com/dusk-indust/agentmux/internal/tracing"
)

// app is the wired runtime shared by the long-running and one-shot commands.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *registry.Registry
	pipeline *orchestrator.Pipeline

	shutdownTracing func(context.Context) error
}

// loadConfig reads and validates configuration.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp loads configuration and builds the orchestrator with its
// dependencies.
func newApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	shutdown, err := tracing.Initialize(ctx, cfg.Tracing, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	reg, err := registry.Load(cfg.Registry.File)
	if err != nil {
		return nil, err
	}

	client := completion.NewHTTPClient(append(cfg.ClientOptions(), completion.WithLogger(logger))...)

	pipeline, err := orchestrator.New(cfg.Orchestrator(), reg, client, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("agentmux ready",
		zap.String("config", cfg.Source),
		zap.Strings("responders", reg.IDs()),
		zap.String("fallback", cfg.Registry.FallbackResponder))

	return &app{
		cfg:             cfg,
		logger:          logger,
		registry:        reg,
		pipeline:        pipeline,
		shutdownTracing: shutdown,
	}, nil
}

func (a *app) chatService() *mcptools.ChatService {
	return mcptools.NewChatService(a.pipeline, a.registry)
}

// close flushes tracing and logs.
func (a *app) close() {
	if err := a.shutdownTracing(context.Background()); err != nil {
		a.logger.Warn("tracing shutdown", zap.Error(err))
	}
	_ = a.logger.Sync()
}
