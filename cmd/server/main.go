package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cardnet/cardnet-server-go/internal/config"
	"github.com/cardnet/cardnet-server-go/internal/game"
	"github.com/cardnet/cardnet-server-go/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting cardnet server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	registry := server.NewRegistry(logger)

	engine := game.NewEngine(game.Config{
		TickRate:         cfg.Game.TickRate,
		ResetDelay:       cfg.Game.ResetDelay,
		StartingHealth:   cfg.Game.StartingHealth,
		StartingHandSize: cfg.Game.StartingHandSize,
	}, registry, logger)
	logger.Info("engine initialized", zap.String("match_id", engine.MatchID()))

	srv := server.New(server.Config{
		TCPAddress:        cfg.Server.TCPAddress,
		WebSocketAddress:  cfg.Server.WebSocketAddress,
		WriteTimeout:      cfg.Server.WriteTimeout,
		OutboundQueueSize: cfg.Server.OutboundQueueSize,
	}, engine, registry, logger)

	go engine.Run(ctx)

	go func() {
		if err := srv.ListenTCP(ctx); err != nil {
			logger.Error("TCP server error", zap.Error(err))
		}
	}()

	go func() {
		if err := srv.ListenWebSocket(ctx); err != nil {
			logger.Error("WebSocket server error", zap.Error(err))
		}
	}()

	logger.Info("cardnet server initialized",
		zap.String("tcp_address", cfg.Server.TCPAddress),
		zap.String("websocket_address", cfg.Server.WebSocketAddress),
		zap.Int("tick_rate", cfg.Game.TickRate),
	)

	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	cancel()
	logger.Info("cardnet server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
