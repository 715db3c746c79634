package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/cardtable/spades-server/internal/events"
	"github.com/cardtable/spades-server/internal/server"
	"github.com/cardtable/spades-server/internal/store"
)

var CLI struct {
	Config   string `short:"c" long:"config" default:"spades-server.hcl" help:"Path to HCL configuration file"`
	Addr     string `short:"a" long:"addr" help:"Server address to bind to (overrides config)"`
	LogLevel string `short:"l" long:"log-level" help:"Log level (overrides config)"`
}

func main() {
	kctx := kong.Parse(&CLI)

	// Local development convenience; missing .env is fine.
	_ = godotenv.Load()

	cfg, err := server.LoadConfig(CLI.Config)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		kctx.Exit(1)
	}

	// Apply command line overrides
	if CLI.LogLevel != "" {
		cfg.Server.LogLevel = CLI.LogLevel
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}

	if err := cfg.Validate(); err != nil {
		fmt.Printf("Invalid configuration: %v\n", err)
		kctx.Exit(1)
	}

	// Setup logging
	logger := log.New(os.Stderr)
	switch cfg.Server.LogLevel {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "info":
		logger.SetLevel(log.InfoLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	st := store.NewRedisStore(client)
	if err := st.Ping(ctx); err != nil {
		logger.Error("Redis unreachable", "addr", cfg.Redis.Addr, "error", err)
		kctx.Exit(1)
	}

	var pub events.Publisher = events.Nop{}
	if cfg.NATS != nil && cfg.NATS.URL != "" {
		natsPub, err := events.ConnectNATS(cfg.NATS.URL, cfg.NATS.SubjectPrefix)
		if err != nil {
			logger.Error("NATS unreachable", "url", cfg.NATS.URL, "error", err)
			kctx.Exit(1)
		}
		defer natsPub.Close()
		pub = natsPub
	}

	gameService := server.NewGameService(cfg, st, pub, quartz.NewReal(), logger)
	if err := gameService.Restore(ctx); err != nil {
		logger.Error("Failed to restore games", "error", err)
		kctx.Exit(1)
	}

	listenAddr := cfg.ServerAddress()
	if CLI.Addr != "" {
		listenAddr = CLI.Addr
	}

	wsServer := server.NewServer(listenAddr, logger)
	wsServer.SetGameService(gameService)
	gameService.SetServer(wsServer)

	logger.Info("Starting spades server",
		"addr", listenAddr,
		"redis", cfg.Redis.Addr,
		"sweepInterval", cfg.SweepInterval())

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		logger.Info("Shutting down server...")
		cancel()
		_ = wsServer.Stop()
		os.Exit(0)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return wsServer.Start()
	})
	g.Go(func() error {
		return gameService.RunSweeper(gctx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server failed", "error", err)
		kctx.Exit(1)
	}
}
