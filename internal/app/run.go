package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/polycopy/copytrader/internal/monitor"
)

// Run starts the application and blocks until shutdown.
func (a *App) Run() error {
	a.logger.Info("application-starting",
		zap.String("execution-mode", a.cfg.ExecutionMode),
		zap.String("storage-mode", a.cfg.StorageMode),
		zap.Strings("tracked-addresses", a.cfg.TrackedAddresses),
		zap.String("copy-strategy", string(a.cfg.Strategy.Strategy)),
		zap.String("log-level", a.cfg.LogLevel))

	a.checkDependencies()
	a.startComponents()

	a.logger.Info("application-ready",
		zap.String("http-addr", ":"+a.cfg.HTTPPort),
		zap.String("ws-url", a.cfg.RTDSWSURL))

	return a.waitForShutdown()
}

// checkDependencies probes the Data API and the store once at startup.
// Failures are warnings: both are retried continuously while running, so
// a transient outage at boot should not abort the process.
func (a *App) checkDependencies() {
	ctx, cancel := context.WithTimeout(a.ctx, 15*time.Second)
	defer cancel()

	positions, err := a.gateway.Positions(ctx, a.cfg.ProxyWallet)
	if err != nil {
		a.logger.Warn("startup-data-api-unreachable", zap.Error(err))
	} else {
		a.logger.Info("startup-data-api-ok", zap.Int("own-positions", len(positions)))
	}

	count, err := a.store.PositionCount(ctx, a.cfg.ProxyWallet)
	if err != nil {
		a.logger.Warn("startup-store-unreachable", zap.Error(err))
	} else {
		a.logger.Info("startup-store-ok", zap.Int("stored-positions", count))
	}
}

func (a *App) startComponents() {
	a.wg.Add(1)
	go a.runHTTPServer()

	a.wg.Add(1)
	go a.runMonitor()

	a.wg.Add(1)
	go a.watchStreamHealth()

	if a.autoClaim != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.autoClaim.Run(a.ctx)
		}()
	}

	if a.tpslPoller != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.tpslPoller.Run(a.ctx)
		}()
	}
}

func (a *App) runHTTPServer() {
	defer a.wg.Done()
	err := a.httpServer.Start()
	if err != nil {
		a.logger.Error("http-server-error", zap.Error(err))
	}
}

func (a *App) runMonitor() {
	defer a.wg.Done()
	err := a.monitor.Run(a.ctx)
	if err != nil && !errors.Is(err, a.ctx.Err()) {
		a.logger.Error("stream-monitor-error", zap.Error(err))
		a.cancel()
	}
}

// watchStreamHealth mirrors the monitor's connection state into the
// readiness probe so /ready reflects whether trades are flowing.
func (a *App) watchStreamHealth() {
	defer a.wg.Done()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-a.ctx.Done():
			return
		case <-ticker.C:
			state := a.monitor.State()
			a.healthChecker.SetDetail("stream", string(state))
			a.healthChecker.SetReady(state == monitor.StateStreaming)
		}
	}
}

func (a *App) waitForShutdown() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		a.logger.Info("shutdown-signal-received", zap.String("signal", sig.String()))
	case <-a.ctx.Done():
		a.logger.Info("context-cancelled")
	}

	return a.Shutdown()
}
