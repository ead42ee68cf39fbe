// Package main contains the entrypoint for the Telegram inbox daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbot "github.com/go-telegram/bot"
	"golang.org/x/sync/errgroup"

	"github.com/fishyer/obsidian-telegram-inbox/internal/ai"
	"github.com/fishyer/obsidian-telegram-inbox/internal/api"
	"github.com/fishyer/obsidian-telegram-inbox/internal/bot"
	"github.com/fishyer/obsidian-telegram-inbox/internal/bot/tasks"
	"github.com/fishyer/obsidian-telegram-inbox/internal/config"
	"github.com/fishyer/obsidian-telegram-inbox/internal/database"
	"github.com/fishyer/obsidian-telegram-inbox/internal/logger"
	"github.com/fishyer/obsidian-telegram-inbox/internal/notes"
	"github.com/fishyer/obsidian-telegram-inbox/internal/pipeline"
	"github.com/fishyer/obsidian-telegram-inbox/internal/telegram"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes all components (config, logger, capture log, lifecycle
// controller, scheduler, control API), starts them, and blocks until the
// context is cancelled. Returns the process exit code.
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Log.Level, cfg.Log.JSON)
	log.Info("Logger initialized", "level", cfg.Log.Level, "json", cfg.Log.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to open capture log", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	factory := newConnectionFactory(store, log)
	controller := bot.New(factory, log)

	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tasks.TaskDeps{
		Logger: log,
		Config: cfg,
		Store:  store,
		Poller: controller,
	}))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	loadConfig := func() (*config.Config, error) { return config.Load(*configPath) }
	server := api.NewServer(cfg.API.Addr, controller, loadConfig, log)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(gCtx)
	})

	g.Go(func() error {
		if err := sched.Start(); err != nil {
			return err
		}
		<-gCtx.Done()
		if err := sched.Stop(); err != nil {
			log.Error("Error stopping scheduler", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		if cfg.Vault.RunAfterSync {
			if err := notes.WaitForSyncIdle(gCtx, cfg.Vault.Dir, cfg.Vault.SyncSettle, log); err != nil {
				return err
			}
		}

		// A blank token is a notice, not a fatal error: the daemon stays
		// up so the host can fix the config and POST /bot/init.
		if err := controller.Init(gCtx, *cfg); err != nil && !errors.Is(err, bot.ErrNoToken) {
			log.Error("Failed to initialize bot", "error", err)
		}

		<-gCtx.Done()
		return controller.Stop(context.Background())
	})

	log.Info("Daemon running. Waiting for shutdown signal...")
	err = g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Daemon stopped due to error", "error", err)
		return 1
	}

	log.Info("Daemon stopped gracefully.")
	return 0
}

// newConnectionFactory returns the factory the controller uses to build a
// fresh connection per settings snapshot. Each connection gets its own
// pipeline, writer, and transformer bound to that snapshot.
func newConnectionFactory(store database.Store, log *slog.Logger) bot.ConnectionFactory {
	return func(ctx context.Context, cfg config.Config) (bot.Connection, error) {
		writer, err := notes.NewWriter(cfg.Vault, log)
		if err != nil {
			return nil, err
		}

		transformer := ai.NewTransformer(cfg.AI, newCompleter(ctx, cfg.AI, log), log)
		pipe := pipeline.New(cfg, transformer, store, log)

		handler := telegram.NewInboxHandler(telegram.InboxDeps{
			Logger:   log,
			Config:   cfg,
			Pipeline: pipe,
			Writer:   writer,
			Store:    store,
		})

		middleware := []tgbot.Middleware{logger.Middleware(log)}
		return telegram.NewConnection(ctx, cfg.Telegram.Token, cfg.Telegram.PollWindow, handler, middleware, log)
	}
}

// newCompleter picks the completion provider for the AI transformer. A nil
// completer makes the transformer fall back to raw message text.
func newCompleter(ctx context.Context, cfg config.AIConfig, log *slog.Logger) ai.Completer {
	if !cfg.Enabled {
		return nil
	}

	if cfg.Provider == "gemini" {
		gc, err := ai.NewGeminiClient(ctx, cfg, log)
		if err != nil {
			log.Error("Failed to create Gemini client, AI titles disabled", "error", err)
			return nil
		}
		return gc
	}

	return ai.NewOpenAIClient(cfg, log)
}
