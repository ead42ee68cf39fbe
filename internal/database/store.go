package database

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Store defines the capture-log operations used by the pipeline (reads) and
// the inbox handler and maintenance task (writes).
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// Seen reports whether a message has already been captured.
	Seen(ctx context.Context, chatID int64, messageID int) (bool, error)

	// SaveCapture records a written capture. Saving the same
	// (chat_id, message_id) twice is not an error; the first record wins.
	SaveCapture(ctx context.Context, capture *Capture) error

	// PruneCaptures deletes capture records older than the retention
	// window and returns the number removed.
	PruneCaptures(ctx context.Context, retention time.Duration) (int64, error)

	// RunMaintenance performs database maintenance tasks like VACUUM.
	RunMaintenance(ctx context.Context) error
}

type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store implementation backed by sqlx.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) Seen(ctx context.Context, chatID int64, messageID int) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		`SELECT COUNT(1) FROM captures WHERE chat_id = ? AND message_id = ?`,
		chatID, messageID)
	if err != nil {
		return false, fmt.Errorf("failed to query capture log: %w", err)
	}
	return count > 0, nil
}

func (s *sqlxStore) SaveCapture(ctx context.Context, capture *Capture) error {
	if capture == nil {
		return fmt.Errorf("cannot save nil capture")
	}
	if capture.ChatID == 0 || capture.MessageID == 0 {
		return fmt.Errorf("capture must have non-zero chat_id and message_id")
	}

	capture.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO captures (created_at, chat_id, message_id, sender, title)
		 VALUES (?, ?, ?, ?, ?)`,
		capture.CreatedAt, capture.ChatID, capture.MessageID, capture.Sender, capture.Title)
	if err != nil {
		return fmt.Errorf("failed to save capture: %w", err)
	}

	return nil
}

func (s *sqlxStore) PruneCaptures(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-retention)

	res, err := s.db.ExecContext(ctx, `DELETE FROM captures WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune captures: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned captures: %w", err)
	}

	s.logger.DebugContext(ctx, "Pruned capture log", "removed", n, "cutoff", cutoff)
	return n, nil
}

func (s *sqlxStore) RunMaintenance(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `VACUUM`); err != nil {
		return fmt.Errorf("failed to vacuum database: %w", err)
	}
	return nil
}
