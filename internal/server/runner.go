package server

import (
	"context"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mstock/relaydns/internal/api"
	"github.com/mstock/relaydns/internal/config"
	"github.com/mstock/relaydns/internal/querylog"
	"github.com/mstock/relaydns/internal/stats"
)

// Runner orchestrates relay startup, wiring, and shutdown.
type Runner struct {
	logger *slog.Logger
}

// NewRunner creates a new server runner with the given logger.
func NewRunner(logger *slog.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run starts the relay with the given configuration and blocks until
// SIGINT/SIGTERM.
func (r *Runner) Run(cfg *config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return r.RunWithContext(ctx, cfg)
}

// RunWithContext starts the relay and blocks until ctx is canceled or a
// server error occurs.
//
// Startup order: query log store, stats, handler, optional management API,
// UDP server. Shutdown reverses it: the UDP server drains in-flight
// requests, then the API stops, then the query log flushes and closes.
func (r *Runner) RunWithContext(ctx context.Context, cfg *config.Config) error {
	ctx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()

	st := stats.New()

	var qlog *querylog.Store
	if cfg.QueryLog.Enabled {
		s, err := querylog.Open(cfg.QueryLog.Path)
		if err != nil {
			return err
		}
		qlog = s
		defer qlog.Close()
		r.logger.Info("query log enabled", "path", cfg.QueryLog.Path)
	}

	handler := &QueryHandler{
		Logger:   r.logger,
		Upstream: cfg.Upstream.Address,
		Timeout:  cfg.Upstream.TimeoutDuration(),
		Stats:    st,
		QueryLog: qlog,
	}

	var limiter *RateLimiter
	if cfg.RateLimit.Enabled {
		limiter = NewRateLimiter(RateLimitSettings{
			GlobalQPS:    cfg.RateLimit.GlobalQPS,
			GlobalBurst:  cfg.RateLimit.GlobalBurst,
			IPQPS:        cfg.RateLimit.IPQPS,
			IPBurst:      cfg.RateLimit.IPBurst,
			MaxIPEntries: cfg.RateLimit.MaxIPEntries,
		})
	}

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.New(cfg, r.logger, st.Snapshot, qlog)
		go func() {
			if err := apiServer.ListenAndServe(); err != nil {
				r.logger.Error("management api stopped", "error", err)
			}
		}()
		r.logger.Info("management api listening", "addr", apiServer.Addr())
	}

	udp := &UDPServer{
		Logger:         r.logger,
		Handler:        handler,
		Limiter:        limiter,
		MaxConcurrency: cfg.Server.MaxConcurrency,
		ReusePort:      cfg.Server.ReusePort,
	}

	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))
	r.logger.Info("relay listening",
		"addr", addr,
		"upstream", cfg.Upstream.Address,
		"max_concurrency", cfg.Server.MaxConcurrency,
		"reuse_port", cfg.Server.ReusePort,
	)

	errCh := make(chan error, 1)
	go func() { errCh <- udp.Run(ctx, addr) }()

	var runErr error
	select {
	case <-ctx.Done():
		// shutdown requested via signal
	case err := <-errCh:
		runErr = err
	}

	cancelRun()
	if err := udp.Stop(5 * time.Second); err != nil {
		r.logger.Warn("udp shutdown", "error", err)
	}
	if apiServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("api shutdown", "error", err)
		}
	}
	r.logger.Info("relay stopped")
	return runErr
}
