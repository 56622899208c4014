package server

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mstock/relaydns/internal/config"
)

func TestRunnerStartsAndStops(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0 // OS-assigned
	cfg.Upstream.Address = "127.0.0.1:1"

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- NewRunner(slog.Default()).RunWithContext(ctx, cfg)
	}()

	// Give the listener a moment, then request shutdown.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("runner did not stop after context cancellation")
	}
}

func TestRunnerRejectsBadQueryLogPath(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.QueryLog.Enabled = true
	cfg.QueryLog.Path = "/nonexistent-dir/definitely/not/here.db"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := NewRunner(slog.Default()).RunWithContext(ctx, cfg)
	require.Error(t, err)
}
