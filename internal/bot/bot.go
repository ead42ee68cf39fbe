// Package bot implements the ingestion lifecycle: a state machine that
// owns the single live transport connection and exposes the host-facing
// operations init, start, stop, manual poll, and status.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/fishyer/obsidian-telegram-inbox/internal/config"
)

// State is the lifecycle state of the ingestion connection.
type State int

const (
	StateUninitialized State = iota
	StateReady
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

// Configuration errors surfaced as user-visible notices.
var (
	ErrNoToken        = errors.New("telegram bot token not set")
	ErrNotInitialized = errors.New("bot not initialized")
)

// Status is the host-visible snapshot of the controller.
type Status struct {
	State      string  `json:"state"`
	Bot        BotInfo `json:"bot"`
	LastNotice string  `json:"last_notice,omitempty"`
}

// Controller owns the connection instance exclusively. All host operations
// are serialized by one mutex, the Go rendition of the original's
// single-threaded cooperative scheduler: a stop can never interleave with a
// message mid-transform because both funnel through the same lock.
type Controller struct {
	mu      sync.Mutex
	log     *slog.Logger
	factory ConnectionFactory

	conn   Connection
	state  State
	notice string
}

// New creates a Controller in the UNINITIALIZED state.
func New(factory ConnectionFactory, log *slog.Logger) *Controller {
	return &Controller{
		log:     log.With("component", "lifecycle_controller"),
		factory: factory,
		state:   StateUninitialized,
	}
}

// Init applies a settings snapshot by full reconstruction: it always stops
// any existing connection first, then builds a new one, so two overlapping
// ingestion loops can never exist. With a blank token it surfaces a notice,
// holds no instance, and stays UNINITIALIZED. Unless auto-reception is
// disabled, delivery starts immediately.
func (c *Controller) Init(ctx context.Context, cfg config.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		c.setNotice("Telegram bot token not set")
		c.stopLocked(ctx)
		c.conn = nil
		c.state = StateUninitialized
		return ErrNoToken
	}

	c.stopLocked(ctx)

	conn, err := c.factory(ctx, cfg)
	if err != nil {
		c.setNotice("Error launching bot")
		c.log.Error("Failed to construct connection", "error", err)
		c.conn = nil
		c.state = StateUninitialized
		return err
	}

	c.conn = conn
	c.state = StateReady
	c.log.Info("Bot initialized", "bot_username", conn.Info().Username)

	if cfg.Telegram.DisableAutoReception {
		c.setNotice("Telegram bot ready (auto reception disabled)")
		return nil
	}

	return c.startLocked(ctx)
}

// Start begins continuous delivery. It is idempotent: starting an already
// RUNNING controller only re-affirms the notice.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.startLocked(ctx)
}

func (c *Controller) startLocked(ctx context.Context) error {
	if c.conn == nil {
		c.setNotice("Telegram bot not initialized")
		return ErrNotInitialized
	}

	c.setNotice("Telegram bot starting")

	if c.state == StateRunning {
		c.log.Info("Bot already running")
		return nil
	}

	if err := c.conn.Start(ctx); err != nil {
		c.setNotice("Error starting bot")
		c.log.Error("Failed to start delivery", "error", err)
		return err
	}

	c.state = StateRunning
	return nil
}

// Stop halts delivery and clears the connection instance. It is valid from
// any state, never fails, and calling it twice leaves the same end state as
// calling it once.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked(ctx)
	c.state = StateStopped
	return nil
}

// stopLocked tears down the current connection best-effort. Halt failures
// are logged and swallowed so a subsequent Init can always proceed.
func (c *Controller) stopLocked(ctx context.Context) {
	if c.conn == nil {
		return
	}

	if err := c.conn.Stop(ctx); err != nil {
		c.log.Error("Error stopping bot, continuing teardown", "error", err)
	} else {
		c.setNotice("Telegram bot stopped")
	}

	c.conn = nil
}

// Poll runs one on-demand fetch cycle without altering the delivery state.
// It is a no-op, not an error, when no connection instance exists.
func (c *Controller) Poll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		c.log.Info("Manual poll requested with no connection instance")
		return nil
	}

	if err := c.conn.Poll(ctx); err != nil {
		c.log.Error("Manual poll failed", "error", err)
		return err
	}

	return nil
}

// Info returns the current lifecycle status and connection identity.
func (c *Controller) Info() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{
		State:      c.state.String(),
		LastNotice: c.notice,
	}
	if c.conn != nil {
		st.Bot = c.conn.Info()
	}

	return st
}

// setNotice records a user-visible notice and logs it. Notices are how
// configuration problems reach the host without crashing it.
func (c *Controller) setNotice(msg string) {
	c.notice = msg
	c.log.Info(msg)
}
