// Package config loads, validates, and defaults the daemon configuration.
// Values come from defaults, an optional config.yaml, and TGINBOX_*
// environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full settings snapshot. A value copy is bound to each bot
// connection at Init time; changing configuration means reloading and
// reinitializing, never patching a live instance.
type Config struct {
	Log       LogConfig       `mapstructure:"log"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Capture   CaptureConfig   `mapstructure:"capture"`
	Vault     VaultConfig     `mapstructure:"vault"`
	AI        AIConfig        `mapstructure:"ai"`
	Database  DatabaseConfig  `mapstructure:"database"`
	API       APIConfig       `mapstructure:"api"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
}

// LogConfig controls structured logging output.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds the transport settings. Token may be empty at load
// time; the lifecycle controller refuses to initialize a connection without
// it and surfaces a notice instead.
type TelegramConfig struct {
	Token                string        `mapstructure:"token"`
	Marker               string        `mapstructure:"marker"`
	AllowUsers           []string      `mapstructure:"allow_users"`
	DisableAutoReception bool          `mapstructure:"disable_auto_reception"`
	PollWindow           time.Duration `mapstructure:"poll_window" validate:"min=1s,max=1m"`
}

// CaptureConfig controls how an eligible message becomes note text.
type CaptureConfig struct {
	MessageTemplate  string `mapstructure:"message_template" validate:"required"`
	StripMarker      bool   `mapstructure:"strip_marker"`
	MarkdownEscaper  bool   `mapstructure:"markdown_escaper"`
	RemoveFormatting bool   `mapstructure:"remove_formatting"`
	ReverseOrder     bool   `mapstructure:"reverse_order"`
	DownloadMedia    bool   `mapstructure:"download_media"`
	DownloadDir      string `mapstructure:"download_dir"`
}

// VaultConfig selects where captured notes are written.
type VaultConfig struct {
	Dir                 string        `mapstructure:"dir" validate:"required"`
	IsCustomFile        bool          `mapstructure:"is_custom_file"`
	CustomFilePath      string        `mapstructure:"custom_file_path"`
	DailyNoteTimeCutoff string        `mapstructure:"daily_note_time_cutoff" validate:"datetime=15:04"`
	RunAfterSync        bool          `mapstructure:"run_after_sync"`
	SyncSettle          time.Duration `mapstructure:"sync_settle" validate:"min=1s,max=10m"`
}

// AIConfig configures the optional title transformer.
type AIConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Provider    string `mapstructure:"provider" validate:"oneof=openai gemini"`
	Prompt      string `mapstructure:"prompt"`
	BaseURL     string `mapstructure:"base_url" validate:"url"`
	APIKey      string `mapstructure:"api_key"`
	Model       string `mapstructure:"model" validate:"required"`
	ReplyInChat bool   `mapstructure:"reply_in_chat"`
}

// DatabaseConfig locates the capture log.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// APIConfig configures the HTTP control surface.
type APIConfig struct {
	Addr string `mapstructure:"addr" validate:"required"`
}

// SchedulerConfig holds the scheduled task table.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks"`
}

// TaskConfig enables one scheduled task with a cron expression.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// Load reads configuration from the given path (the file may be absent, in
// which case defaults and environment variables apply) and validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("TGINBOX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.marker", "#inbox")
	v.SetDefault("telegram.allow_users", []string{})
	v.SetDefault("telegram.disable_auto_reception", false)
	v.SetDefault("telegram.poll_window", 5*time.Second)

	v.SetDefault("capture.message_template", "{{{text}}}")
	v.SetDefault("capture.strip_marker", false)
	v.SetDefault("capture.markdown_escaper", false)
	v.SetDefault("capture.remove_formatting", false)
	v.SetDefault("capture.reverse_order", false)
	v.SetDefault("capture.download_media", false)
	v.SetDefault("capture.download_dir", "assets")

	v.SetDefault("vault.dir", "./vault")
	v.SetDefault("vault.is_custom_file", false)
	v.SetDefault("vault.custom_file_path", "Telegram-Inbox.md")
	v.SetDefault("vault.daily_note_time_cutoff", "00:00")
	v.SetDefault("vault.run_after_sync", false)
	v.SetDefault("vault.sync_settle", 10*time.Second)

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.prompt", "")
	v.SetDefault("ai.base_url", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gpt-3.5-turbo")
	v.SetDefault("ai.reply_in_chat", false)

	v.SetDefault("database.path", "tginbox.db")

	v.SetDefault("api.addr", ":8793")
}
