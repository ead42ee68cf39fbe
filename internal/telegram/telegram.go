// Package telegram implements the chat-transport boundary on top of the
// go-telegram/bot library: a Connection that delivers inbound messages to
// the inbox handler via long polling or on-demand fetch cycles.
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	tgbot "github.com/go-telegram/bot"

	"github.com/fishyer/obsidian-telegram-inbox/internal/bot"
)

// Connection wraps one go-telegram/bot session. Delivery runs in a single
// background goroutine started by Start and cancelled by Stop; Poll borrows
// the same polling loop for a bounded window when delivery is not running.
type Connection struct {
	bot        *tgbot.Bot
	username   string
	pollWindow time.Duration
	log        *slog.Logger

	mu         sync.Mutex
	cancel     context.CancelFunc
	done       chan struct{}
	delivering bool
}

// NewConnection creates the Telegram session, verifies the token with a
// getMe call, and registers the inbox handler as the default handler.
func NewConnection(ctx context.Context, token string, pollWindow time.Duration, handler tgbot.HandlerFunc, middleware []tgbot.Middleware, log *slog.Logger) (*Connection, error) {
	if token == "" {
		return nil, fmt.Errorf("telegram bot token cannot be empty")
	}

	opts := []tgbot.Option{
		tgbot.WithDefaultHandler(handler),
		tgbot.WithMiddlewares(middleware...),
	}

	b, err := tgbot.New(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	me, err := b.GetMe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get bot info: %w", err)
	}

	if pollWindow <= 0 {
		pollWindow = 5 * time.Second
	}

	connLog := log.With("component", "telegram_connection", "bot_username", me.Username)
	connLog.Info("Telegram connection created", "bot_id", me.ID)

	return &Connection{
		bot:        b,
		username:   me.Username,
		pollWindow: pollWindow,
		log:        connLog,
	}, nil
}

// Start begins continuous delivery of inbound messages. Calling Start while
// already delivering is a no-op.
func (c *Connection) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.delivering {
		c.log.Info("Delivery already running")
		return nil
	}

	// Delivery is bound to the connection lifetime, not the caller's
	// context: Stop is the only way to halt it. Without this, a Start
	// issued from an HTTP request would die with the request.
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	go func() {
		defer close(done)
		c.bot.Start(runCtx)
	}()

	c.cancel = cancel
	c.done = done
	c.delivering = true

	c.log.Info("Started message delivery")
	return nil
}

// Stop halts delivery and waits briefly for the polling loop to exit. It is
// safe to call at any time, including when delivery never started.
func (c *Connection) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.delivering {
		return nil
	}

	c.cancel()
	c.cancel = nil
	c.delivering = false

	select {
	case <-c.done:
	case <-ctx.Done():
		c.log.Warn("Timed out waiting for delivery loop to stop")
		return ctx.Err()
	}

	c.log.Info("Stopped message delivery")
	return nil
}

// Poll performs one on-demand fetch cycle: it runs the polling loop for a
// bounded window so pending updates are fetched and delivered, then stops.
// While continuous delivery is active Poll is a no-op, since updates are
// already flowing.
func (c *Connection) Poll(ctx context.Context) error {
	c.mu.Lock()
	if c.delivering {
		c.mu.Unlock()
		c.log.Info("Delivery running, manual poll skipped")
		return nil
	}
	c.mu.Unlock()

	c.log.Info("Running manual poll", "window", c.pollWindow)

	pollCtx, cancel := context.WithTimeout(ctx, c.pollWindow)
	defer cancel()

	c.bot.Start(pollCtx)

	c.log.Info("Manual poll finished")
	return nil
}

// Info reports the connection identity and whether delivery is active.
func (c *Connection) Info() bot.BotInfo {
	c.mu.Lock()
	defer c.mu.Unlock()

	return bot.BotInfo{
		Username:    c.username,
		IsConnected: c.delivering,
	}
}
