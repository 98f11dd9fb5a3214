package bot

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/chatinsight/internal/api"
	"github.com/edgard/chatinsight/internal/config"
)

func newTestBot(t *testing.T, addr string) *Bot {
	t.Helper()
	log := slog.New(slog.DiscardHandler)
	cfg := &config.Config{HTTP: config.HTTPConfig{Enabled: true, Addr: addr, ShutdownTimeout: time.Second}}

	s, err := NewScheduler(log, map[string]string{"noop": "0 3 * * *"}, nil)
	require.NoError(t, err)
	return NewBot(log, cfg, nil, api.NewServer(api.Deps{Logger: log}, cfg.HTTP), s)
}

func TestRunStopsOnCancel(t *testing.T) {
	t.Parallel()

	b := newTestBot(t, "127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	assert.NoError(t, b.Run(ctx))
}

func TestRunReportsHTTPFailure(t *testing.T) {
	t.Parallel()

	b := newTestBot(t, "127.0.0.1:99999")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := b.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "http server failed")
}
