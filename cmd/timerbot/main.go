// Package main provides the timer bot binary: it wires configuration,
// logging, the timer registry, the update scheduler, and the gateway, then
// runs until signalled. The chat-platform transport plugs in behind the
// gateway contract; the stock binary ships with the log-backed gateway so it
// runs without platform credentials.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/timerbot/internal/bot"
	"github.com/cory-johannsen/timerbot/internal/config"
	"github.com/cory-johannsen/timerbot/internal/gateway"
	"github.com/cory-johannsen/timerbot/internal/observability"
	"github.com/cory-johannsen/timerbot/internal/preset"
	"github.com/cory-johannsen/timerbot/internal/server"
	"github.com/cory-johannsen/timerbot/internal/timer"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	demo := flag.Duration("demo", 0, "start a local countdown of this length on boot; 0 = disabled")
	demoPreset := flag.String("demo-preset", "", "start a local countdown from this preset ID on boot")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting timer bot",
		zap.Duration("tick_interval", cfg.Engine.TickInterval),
		zap.Duration("pause_timeout", cfg.Engine.PauseTimeout),
	)

	var presets *preset.Set
	if cfg.Presets.Enabled {
		presetStart := time.Now()
		presets, err = preset.LoadFromDir(cfg.Presets.Dir)
		if err != nil {
			logger.Fatal("loading presets", zap.Error(err))
		}
		logger.Info("presets loaded",
			zap.Int("count", presets.Len()),
			zap.Strings("ids", presets.IDs()),
			zap.Duration("elapsed", time.Since(presetStart)),
		)
	}

	registry := timer.NewRegistry()
	gw := gateway.NewLogGateway(logger.Named("gateway"))

	scheduler := timer.NewScheduler(timer.SchedulerConfig{
		TickInterval:    cfg.Engine.TickInterval,
		PauseTimeout:    cfg.Engine.PauseTimeout,
		DisplayInterval: cfg.Engine.DisplayInterval,
		DisplayBurst:    cfg.Engine.DisplayBurst,
		FineWindow:      cfg.Engine.FineWindow,
		CoarseInterval:  cfg.Engine.CoarseInterval,
	}, registry, gw, logger.Named("scheduler"))

	// The handler is what the platform layer invokes for each parsed
	// command; a platform front end swaps the gateway and calls into it.
	handler := bot.NewHandler(registry, gw, cfg.Engine.DefaultThresholds, presets, logger.Named("bot"))

	if *demo > 0 {
		if err := handler.Start(context.Background(), "local", "operator", *demo, false, nil); err != nil {
			logger.Fatal("starting demo timer", zap.Error(err))
		}
	}
	if *demoPreset != "" {
		if err := handler.StartPreset(context.Background(), "local", "operator", *demoPreset); err != nil {
			logger.Fatal("starting demo preset", zap.Error(err))
		}
	}

	lc := server.NewLifecycle(logger)
	lc.Add("scheduler", scheduler)

	logger.Info("timer bot initialized", zap.Duration("elapsed", time.Since(start)))

	if err := lc.Run(context.Background()); err != nil {
		logger.Fatal("lifecycle error", zap.Error(err))
	}
}
