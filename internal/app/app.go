// Package app wires the copy-trading bot together: stream monitor,
// reconciler, execution loop, storage, background pollers and the HTTP
// surface.
package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/polycopy/copytrader/internal/autoclaim"
	"github.com/polycopy/copytrader/internal/gateway"
	"github.com/polycopy/copytrader/internal/monitor"
	"github.com/polycopy/copytrader/internal/reconcile"
	"github.com/polycopy/copytrader/internal/storage"
	"github.com/polycopy/copytrader/internal/tpsl"
	"github.com/polycopy/copytrader/pkg/config"
	"github.com/polycopy/copytrader/pkg/healthprobe"
	"github.com/polycopy/copytrader/pkg/httpserver"
)

// App is the main application orchestrator.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	gateway       *gateway.Client
	store         storage.Store
	reconciler    *reconcile.Reconciler
	monitor       *monitor.Monitor
	autoClaim     *autoclaim.Poller
	tpslPoller    *tpsl.Poller
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}
