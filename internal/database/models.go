package database

import "time"

// Capture records one message that was written to the vault. The
// (chat_id, message_id) pair is unique; its presence is what makes capture
// idempotent across restarts and overlapping manual polls.
type Capture struct {
	ID        uint      `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	ChatID    int64  `db:"chat_id"`
	MessageID int    `db:"message_id"`
	Sender    string `db:"sender"`
	Title     string `db:"title"`
}
