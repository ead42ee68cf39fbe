package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fishyer/obsidian-telegram-inbox/internal/bot"
	"github.com/fishyer/obsidian-telegram-inbox/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeConnection struct{}

func (fakeConnection) Start(context.Context) error { return nil }
func (fakeConnection) Stop(context.Context) error  { return nil }
func (fakeConnection) Poll(context.Context) error  { return nil }
func (fakeConnection) Info() bot.BotInfo {
	return bot.BotInfo{Username: "inbox_bot", IsConnected: true}
}

func newTestServer(t *testing.T, cfg *config.Config, loadErr error) *httptest.Server {
	t.Helper()

	factory := func(context.Context, config.Config) (bot.Connection, error) {
		return fakeConnection{}, nil
	}
	controller := bot.New(factory, discardLogger())

	loader := func() (*config.Config, error) {
		return cfg, loadErr
	}

	s := NewServer(":0", controller, loader, discardLogger())
	srv := httptest.NewServer(s.srv.Handler)
	t.Cleanup(srv.Close)
	return srv
}

func decodeStatus(t *testing.T, resp *http.Response) bot.Status {
	t.Helper()

	defer resp.Body.Close()
	var st bot.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return st
}

func TestServerEndpoints(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{}
	cfg.Telegram.Token = "123:abc"

	t.Run("healthz", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, cfg, nil)

		resp, err := http.Get(srv.URL + "/healthz")
		if err != nil {
			t.Fatalf("GET /healthz: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	t.Run("info on a fresh controller", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, cfg, nil)

		resp, err := http.Get(srv.URL + "/bot/info")
		if err != nil {
			t.Fatalf("GET /bot/info: %v", err)
		}
		if st := decodeStatus(t, resp); st.State != "uninitialized" {
			t.Errorf("state = %q, want %q", st.State, "uninitialized")
		}
	})

	t.Run("init then info", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, cfg, nil)

		resp, err := http.Post(srv.URL+"/bot/init", "", nil)
		if err != nil {
			t.Fatalf("POST /bot/init: %v", err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("init status = %d, want %d", resp.StatusCode, http.StatusOK)
		}

		st := decodeStatus(t, resp)
		if st.State != "running" {
			t.Errorf("state = %q, want %q", st.State, "running")
		}
		if st.Bot.Username != "inbox_bot" {
			t.Errorf("bot username = %q, want %q", st.Bot.Username, "inbox_bot")
		}
	})

	t.Run("init with blank token is a bad request", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, &config.Config{}, nil)

		resp, err := http.Post(srv.URL+"/bot/init", "", nil)
		if err != nil {
			t.Fatalf("POST /bot/init: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
		}
	})

	t.Run("init with broken config is a server error", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, nil, errors.New("yaml parse error"))

		resp, err := http.Post(srv.URL+"/bot/init", "", nil)
		if err != nil {
			t.Fatalf("POST /bot/init: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
		}
	})

	t.Run("start before init is a conflict", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, cfg, nil)

		resp, err := http.Post(srv.URL+"/bot/start", "", nil)
		if err != nil {
			t.Fatalf("POST /bot/start: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusConflict)
		}
	})

	t.Run("stop always succeeds", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, cfg, nil)

		resp, err := http.Post(srv.URL+"/bot/stop", "", nil)
		if err != nil {
			t.Fatalf("POST /bot/stop: %v", err)
		}
		if st := decodeStatus(t, resp); st.State != "stopped" {
			t.Errorf("state = %q, want %q", st.State, "stopped")
		}
	})

	t.Run("poll without instance succeeds", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, cfg, nil)

		resp, err := http.Post(srv.URL+"/bot/poll", "", nil)
		if err != nil {
			t.Fatalf("POST /bot/poll: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		t.Parallel()

		srv := newTestServer(t, cfg, nil)

		resp, err := http.Get(srv.URL + "/bot/init")
		if err != nil {
			t.Fatalf("GET /bot/init: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
		}
	})
}
