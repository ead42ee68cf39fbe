// Package notes writes captured text blocks into an Obsidian vault
// directory, selecting between a daily note and a fixed custom file.
package notes

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fishyer/obsidian-telegram-inbox/internal/config"
)

// Writer appends or prepends finished text blocks to note files. It is the
// only component that touches the vault; the pipeline hands it a complete
// TransformResult and an insertion-order flag.
type Writer struct {
	dir        string
	customFile bool
	customPath string
	cutoff     time.Duration
	log        *slog.Logger
}

// NewWriter creates a vault writer from the vault settings snapshot.
func NewWriter(cfg config.VaultConfig, log *slog.Logger) (*Writer, error) {
	cutoff, err := parseCutoff(cfg.DailyNoteTimeCutoff)
	if err != nil {
		return nil, err
	}

	return &Writer{
		dir:        cfg.Dir,
		customFile: cfg.IsCustomFile,
		customPath: cfg.CustomFilePath,
		cutoff:     cutoff,
		log:        log.With("component", "note_writer"),
	}, nil
}

// parseCutoff converts an "HH:MM" cutoff into a duration subtracted from
// the wall clock when choosing the daily note: messages arriving before the
// cutoff still land in the previous day's note.
func parseCutoff(s string) (time.Duration, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("invalid daily note time cutoff %q: %w", s, err)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

// Write inserts the text block into the destination note. With reverse set,
// the block is prepended so the newest capture appears first; otherwise it
// is appended.
func (w *Writer) Write(text string, reverse bool) error {
	return w.writeAt(text, reverse, time.Now())
}

func (w *Writer) writeAt(text string, reverse bool, now time.Time) error {
	path := w.notePath(now)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create note directory: %w", err)
	}

	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read note file: %w", err)
	}

	block := strings.TrimRight(text, "\n") + "\n"

	var content string
	switch {
	case len(existing) == 0:
		content = block
	case reverse:
		content = block + string(existing)
	default:
		content = string(existing)
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
		content += block
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write note file: %w", err)
	}

	w.log.Debug("Wrote capture to note", "path", path, "reverse", reverse, "bytes", len(block))
	return nil
}

// notePath returns the destination file for a capture at the given time.
func (w *Writer) notePath(now time.Time) string {
	if w.customFile {
		return filepath.Join(w.dir, w.customPath)
	}

	day := now.Add(-w.cutoff).Format("2006-01-02")
	return filepath.Join(w.dir, day+".md")
}
