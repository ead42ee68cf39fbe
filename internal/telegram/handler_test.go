package telegram

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"

	"github.com/fishyer/obsidian-telegram-inbox/internal/ai"
	"github.com/fishyer/obsidian-telegram-inbox/internal/config"
	"github.com/fishyer/obsidian-telegram-inbox/internal/database"
	"github.com/fishyer/obsidian-telegram-inbox/internal/notes"
	"github.com/fishyer/obsidian-telegram-inbox/internal/pipeline"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore records saved captures in memory.
type fakeStore struct {
	saved []*database.Capture
}

func (f *fakeStore) Ping(context.Context) error { return nil }

func (f *fakeStore) Seen(_ context.Context, chatID int64, messageID int) (bool, error) {
	for _, c := range f.saved {
		if c.ChatID == chatID && c.MessageID == messageID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SaveCapture(_ context.Context, c *database.Capture) error {
	f.saved = append(f.saved, c)
	return nil
}

func (f *fakeStore) PruneCaptures(context.Context, time.Duration) (int64, error) { return 0, nil }

func (f *fakeStore) RunMaintenance(context.Context) error { return nil }

func newTestHandler(t *testing.T, cfg config.Config, store database.Store) (func(ctx context.Context, update *models.Update), string) {
	t.Helper()

	dir := t.TempDir()
	cfg.Vault.Dir = dir
	if cfg.Vault.DailyNoteTimeCutoff == "" {
		cfg.Vault.DailyNoteTimeCutoff = "00:00"
	}

	log := discardLogger()
	writer, err := notes.NewWriter(cfg.Vault, log)
	if err != nil {
		t.Fatalf("NewWriter(): %v", err)
	}

	transformer := ai.NewTransformer(cfg.AI, nil, log)
	handler := NewInboxHandler(InboxDeps{
		Logger:   log,
		Config:   cfg,
		Pipeline: pipeline.New(cfg, transformer, store, log),
		Writer:   writer,
		Store:    store,
	})

	return func(ctx context.Context, update *models.Update) {
		handler(ctx, nil, update)
	}, dir
}

func inboxUpdate(text string) *models.Update {
	return &models.Update{
		ID: 1,
		Message: &models.Message{
			ID:   42,
			Date: int(time.Now().Unix()),
			Chat: models.Chat{ID: 100},
			From: &models.User{ID: 7, FirstName: "Alice", Username: "alice"},
			Text: text,
		},
	}
}

func TestInboxHandlerCapture(t *testing.T) {
	t.Parallel()

	var cfg config.Config
	cfg.Telegram.Marker = "#inbox"
	cfg.Capture.MessageTemplate = "{{{text}}}"

	store := &fakeStore{}
	handle, dir := newTestHandler(t, cfg, store)

	handle(context.Background(), inboxUpdate("#inbox buy milk"))

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading vault dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("vault has %d files, want 1", len(entries))
	}

	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("reading note: %v", err)
	}
	if !strings.Contains(string(data), "#inbox buy milk") {
		t.Errorf("note content = %q, want it to contain the capture", data)
	}

	if len(store.saved) != 1 {
		t.Fatalf("capture log has %d records, want 1", len(store.saved))
	}
	if store.saved[0].ChatID != 100 || store.saved[0].MessageID != 42 {
		t.Errorf("capture record = %+v, want chat 100 message 42", store.saved[0])
	}
}

func TestInboxHandlerIgnoresUnmarked(t *testing.T) {
	t.Parallel()

	var cfg config.Config
	cfg.Telegram.Marker = "#inbox"
	cfg.Capture.MessageTemplate = "{{{text}}}"

	store := &fakeStore{}
	handle, dir := newTestHandler(t, cfg, store)

	handle(context.Background(), inboxUpdate("just chatting"))
	handle(context.Background(), &models.Update{ID: 2})

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading vault dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("vault has %d files, want 0", len(entries))
	}
	if len(store.saved) != 0 {
		t.Errorf("capture log has %d records, want 0", len(store.saved))
	}
}

func TestInboxHandlerSkipsDuplicate(t *testing.T) {
	t.Parallel()

	var cfg config.Config
	cfg.Telegram.Marker = "#inbox"
	cfg.Capture.MessageTemplate = "{{{text}}}"

	store := &fakeStore{}
	handle, dir := newTestHandler(t, cfg, store)

	handle(context.Background(), inboxUpdate("#inbox buy milk"))
	handle(context.Background(), inboxUpdate("#inbox buy milk"))

	if len(store.saved) != 1 {
		t.Errorf("capture log has %d records, want 1", len(store.saved))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading vault dir: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, entries[0].Name()))
	if err != nil {
		t.Fatalf("reading note: %v", err)
	}
	if got := strings.Count(string(data), "buy milk"); got != 1 {
		t.Errorf("note contains capture %d times, want 1", got)
	}
}
