// Package tasks implements the daemon's scheduled tasks: periodic manual
// polls when auto reception is disabled, and capture-log maintenance.
package tasks

import (
	"context"
	"log/slog"

	"github.com/fishyer/obsidian-telegram-inbox/internal/config"
	"github.com/fishyer/obsidian-telegram-inbox/internal/database"
)

// ScheduledTaskFunc is the signature for all scheduled tasks. The context
// provided by the scheduler must be respected for cancellation.
type ScheduledTaskFunc func(ctx context.Context) error

// Poller triggers one on-demand fetch cycle. The lifecycle controller
// satisfies it.
type Poller interface {
	Poll(ctx context.Context) error
}

// TaskDeps contains the dependencies available to scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Config *config.Config
	Store  database.Store
	Poller Poller
}
