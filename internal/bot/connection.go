package bot

import (
	"context"

	"github.com/fishyer/obsidian-telegram-inbox/internal/config"
)

// BotInfo is the observable connection status exposed to the host.
type BotInfo struct {
	Username    string `json:"username"`
	IsConnected bool   `json:"is_connected"`
}

// Connection is the transport boundary: a live handle to one chat-transport
// session. At most one Connection exists at a time, owned exclusively by
// the Controller. Start begins continuous delivery of inbound messages and
// returns immediately; Stop halts delivery; Poll performs one on-demand
// fetch cycle without changing the delivery state.
type Connection interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Poll(ctx context.Context) error
	Info() BotInfo
}

// ConnectionFactory constructs a Connection bound to a settings snapshot.
// The Controller calls it on every Init so settings changes always produce
// a fresh instance instead of patching a running one.
type ConnectionFactory func(ctx context.Context, cfg config.Config) (Connection, error)
