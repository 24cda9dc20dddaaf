package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/polycopy/copytrader/internal/autoclaim"
	"github.com/polycopy/copytrader/internal/execution"
	"github.com/polycopy/copytrader/internal/gateway"
	"github.com/polycopy/copytrader/internal/markets"
	"github.com/polycopy/copytrader/internal/monitor"
	"github.com/polycopy/copytrader/internal/reconcile"
	"github.com/polycopy/copytrader/internal/storage"
	"github.com/polycopy/copytrader/internal/tpsl"
	"github.com/polycopy/copytrader/pkg/cache"
	"github.com/polycopy/copytrader/pkg/config"
	"github.com/polycopy/copytrader/pkg/healthprobe"
	"github.com/polycopy/copytrader/pkg/httpserver"
	"github.com/polycopy/copytrader/pkg/wallet"
)

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	healthChecker := healthprobe.New()

	gatewayClient := gateway.NewClient(gateway.Config{
		DataAPIURL: cfg.DataAPIURL,
		CLOBURL:    cfg.CLOBHTTPURL,
		Timeout:    cfg.HTTPTimeout,
		RetryLimit: cfg.HTTPRetryLimit,
		Logger:     logger,
	})

	walletClient, err := wallet.NewClient(wallet.Config{
		RPCURL:       cfg.PolygonRPC,
		USDCContract: cfg.USDCContract,
		Logger:       logger,
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup wallet client: %w", err)
	}

	metadata, err := setupMetadata(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup metadata cache: %w", err)
	}

	store, err := setupStorage(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	submitter, err := setupSubmitter(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup order submitter: %w", err)
	}

	executor := execution.New(&execution.Config{
		Books:       gatewayClient,
		Submitter:   submitter,
		Metadata:    metadata,
		RetryLimit:  cfg.RetryLimit,
		RetryDelay:  cfg.ExecutionBackoff,
		OrderExpiry: cfg.OrderExpiry,
		Logger:      logger,
	})

	reconciler := reconcile.New(&reconcile.Config{
		ProxyWallet: cfg.ProxyWallet,
		Strategy:    cfg.Strategy,
		Positions:   gatewayClient,
		Balance:     walletClient,
		Trader:      executor,
		Store:       store,
		Logger:      logger,
	})

	streamMonitor := monitor.New(monitor.Config{
		URL:                  cfg.RTDSWSURL,
		TrackedAddresses:     cfg.TrackedAddresses,
		MaxTradeAge:          cfg.MaxTradeAge,
		ReconnectBaseDelay:   cfg.ReconnectBaseDelay,
		ReconnectCounterCap:  cfg.ReconnectCounterCap,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		RefreshInterval:      cfg.PositionRefreshInterval,
		Handler:              reconciler,
		Positions:            gatewayClient,
		Store:                store,
		Logger:               logger,
	})

	httpServer := httpserver.New(&httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Positions:     gatewayClient,
		ProxyWallet:   cfg.ProxyWallet,
	})

	app := &App{
		cfg:           cfg,
		logger:        logger,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		gateway:       gatewayClient,
		store:         store,
		reconciler:    reconciler,
		monitor:       streamMonitor,
		ctx:           ctx,
		cancel:        cancel,
	}

	if cfg.AutoClaimEnabled {
		app.autoClaim = autoclaim.New(autoclaim.Config{
			ProxyWallet: cfg.ProxyWallet,
			Interval:    cfg.AutoClaimInterval,
			Positions:   gatewayClient,
			Logger:      logger,
		})
	}

	if cfg.TakeProfitPercent > 0 || cfg.StopLossPercent > 0 {
		app.tpslPoller = tpsl.New(tpsl.Config{
			ProxyWallet:       cfg.ProxyWallet,
			Interval:          cfg.TPSLCheckInterval,
			TakeProfitPercent: cfg.TakeProfitPercent,
			StopLossPercent:   cfg.StopLossPercent,
			Positions:         gatewayClient,
			Seller:            executor,
			Store:             store,
			Logger:            logger,
		})
	}

	return app, nil
}

func setupMetadata(cfg *config.Config, logger *zap.Logger) (*markets.CachedMetadataClient, error) {
	metadataCache, err := cache.NewRistrettoCache(&cache.RistrettoConfig{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	client := markets.NewMetadataClient(cfg.CLOBHTTPURL, logger)
	return markets.NewCachedMetadataClient(client, metadataCache), nil
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Store, error) {
	if cfg.StorageMode == "postgres" {
		store, err := storage.NewPostgresStore(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create postgres store: %w", err)
		}
		return store, nil
	}

	return storage.NewConsoleStore(logger), nil
}

func setupSubmitter(cfg *config.Config, logger *zap.Logger) (execution.OrderSubmitter, error) {
	if cfg.ExecutionMode == "paper" {
		logger.Info("paper-execution-enabled",
			zap.String("note", "orders are logged and assumed filled, nothing is sent"))
		return execution.NewPaperSubmitter(logger), nil
	}

	client, err := execution.NewOrderClient(&execution.OrderClientConfig{
		BaseURL:       cfg.CLOBHTTPURL,
		APIKey:        cfg.APIKey,
		Secret:        cfg.APISecret,
		Passphrase:    cfg.APIPassphrase,
		PrivateKey:    cfg.PrivateKey,
		ProxyAddress:  cfg.ProxyWallet,
		SignatureType: cfg.SignatureType,
		Timeout:       cfg.HTTPTimeout,
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create order client: %w", err)
	}
	return client, nil
}
