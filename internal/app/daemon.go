package app

import (
	"context"
	"fmt"
	"time"

	"github.com/Checkmk/checkmk-sub072/internal/httpserver"
	"github.com/Checkmk/checkmk-sub072/internal/httpserver/deps"
	"github.com/Checkmk/checkmk-sub072/internal/logger"
	"github.com/Checkmk/checkmk-sub072/internal/scheduler"
	"github.com/Checkmk/checkmk-sub072/internal/version"
)

// App is the discovery daemon: HTTP API, periodic rediscovery and summary
// garbage collection.
type App struct {
	*Components
	server *httpserver.Server
	gc     *scheduler.GarbageCollector
}

func New(c *Components) *App {
	d := deps.Deps{
		Logger:            c.Logger,
		StartTime:         time.Now(),
		Version:           version.Version,
		Commit:            version.Commit,
		BuildDate:         version.BuildDate,
		GoVersion:         version.GoVersion,
		AllowedCIDRS:      c.Config.AllowedCIDRS,
		TrustProxy:        c.Config.TrustProxy,
		RateBurst:         c.Config.RateBurst,
		RatePerMin:        c.Config.RatePerMin,
		Fleet:             c.Fleet,
		Autochecks:        c.Autochecks,
		HostLabels:        c.HostLabels,
		Rules:             c.Rules,
		MemoryIndex:       c.Index,
		RedisClient:       c.RedisClient,
		RediscoverTrigger: c.Trigger,
	}

	gc := scheduler.NewGarbageCollector(
		c.summaryDeleter(),
		c.Index,
		c.Logger,
		c.Config.GCInterval,
		c.Config.GCThreshold,
		c.Snapshots,
		c.Autochecks,
	)

	return &App{
		Components: c,
		server:     httpserver.New(c.Config, c.Logger, d),
		gc:         gc,
	}
}

// Run starts all background jobs and serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.Logger.Info("starting cmk-discovery",
		logger.String("version", version.Version),
		logger.String("commit", version.Commit),
		logger.String("built", version.BuildDate),
		logger.String("go", version.GoVersion),
		logger.String("listen", a.Config.ListenPort))

	a.SyncSummaries(ctx)

	if err := a.Rediscoverer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start rediscovery: %w", err)
	}
	a.Logger.Info("rediscovery started",
		logger.Duration("interval", a.Config.DiscoveryInterval))

	if err := a.gc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start garbage collector: %w", err)
	}
	a.Logger.Info("garbage collector started",
		logger.Duration("interval", a.Config.GCInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("shutting down gracefully")
	case runErr = <-errCh:
	}

	a.Rediscoverer.Stop()
	a.gc.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	a.Close()
	if runErr == nil {
		a.Logger.Info("cmk-discovery stopped cleanly")
	}
	return runErr
}
