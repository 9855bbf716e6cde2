package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/PxPatel/trading-system/config"
	"github.com/PxPatel/trading-system/internal/api/handlers"
	"github.com/PxPatel/trading-system/internal/api/logger"
	"github.com/PxPatel/trading-system/internal/api/routes"
	"github.com/PxPatel/trading-system/internal/api/ws"
	"github.com/PxPatel/trading-system/internal/eventbus"
	"github.com/PxPatel/trading-system/internal/ledger"
	"github.com/PxPatel/trading-system/internal/registry"
	"github.com/PxPatel/trading-system/internal/router"
	"github.com/PxPatel/trading-system/internal/storage"
	"github.com/PxPatel/trading-system/internal/storage/file"
	"github.com/PxPatel/trading-system/internal/storage/memory"
	"github.com/PxPatel/trading-system/internal/storage/postgres"
	"github.com/PxPatel/trading-system/internal/storage/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logLevel := logger.INFO
	switch cfg.Logger.Level {
	case "DEBUG":
		logLevel = logger.DEBUG
	case "WARN":
		logLevel = logger.WARN
	case "ERROR":
		logLevel = logger.ERROR
	}
	logger.SetMinLevel(logLevel)

	logger.Info("starting exchange kernel API server", map[string]interface{}{
		"version": "1.0.0",
	})

	orderStore, tradeStore, balanceStore := buildStorageLayers(cfg)

	bus := eventbus.New()
	ledgerInstance := ledger.New(balanceStore)
	reg := registry.New()
	r := router.New(reg, ledgerInstance, bus, orderStore, tradeStore)
	defer r.Close()

	h := handlers.New(r, reg, ledgerInstance, bus, tradeStore, balanceStore)
	hub := ws.NewHub(bus)
	handler := routes.SetupRoutes(h, hub)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", map[string]interface{}{
			"port":    cfg.Server.Port,
			"address": fmt.Sprintf("http://localhost:%s", cfg.Server.Port),
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed to start", map[string]interface{}{
				"error": err.Error(),
			})
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	logger.Info("server exited successfully", nil)
}

// buildStorageLayers constructs the storage layers based on configuration.
// Returns composite stores that layer memory, Redis, Postgres, and (for
// trades) a file audit log.
func buildStorageLayers(cfg *config.Config) (storage.OrderStore, storage.TradeStore, storage.BalanceStore) {
	var orderStores []storage.OrderStore
	var tradeStores []storage.TradeStore
	var balanceStores []storage.BalanceStore

	if cfg.Memory.Enabled {
		memOrderStore := memory.NewInMemoryOrderStore(cfg.Memory.MaxOrders)
		memTradeStore := memory.NewInMemoryTradeStore(cfg.Memory.MaxTrades)
		memBalanceStore := memory.NewInMemoryBalanceStore()

		orderStores = append(orderStores, memOrderStore)
		tradeStores = append(tradeStores, memTradeStore)
		balanceStores = append(balanceStores, memBalanceStore)

		logger.Info("in-memory storage layer enabled", map[string]interface{}{
			"max_orders": cfg.Memory.MaxOrders,
			"max_trades": cfg.Memory.MaxTrades,
		})
	}

	if cfg.Redis.Enabled {
		redisCfg := redis.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxRetries:   cfg.Redis.MaxRetries,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			OrderTTL:     cfg.Redis.OrderTTL,
			MaxOrders:    cfg.Redis.MaxOrders,
			MaxTrades:    cfg.Redis.MaxTrades,
		}

		redisOrderStore, err := redis.NewRedisOrderStore(redisCfg)
		if err != nil {
			logger.Warn("failed to connect to Redis, continuing without distributed cache", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			logger.Info("Redis cache connected successfully", map[string]interface{}{
				"host": cfg.Redis.Host,
				"port": cfg.Redis.Port,
			})
			orderStores = append(orderStores, redisOrderStore)

			if redisTradeStore, err := redis.NewRedisTradeStore(redisCfg); err == nil {
				tradeStores = append(tradeStores, redisTradeStore)
			}
			if redisBalanceStore, err := redis.NewRedisBalanceStore(redisCfg); err == nil {
				balanceStores = append(balanceStores, redisBalanceStore)
			}
		}
	}

	if cfg.Database.Enabled {
		pgCfg := postgres.PostgresConfig{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			Database:        cfg.Database.Name,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			MaxConns:        cfg.Database.MaxConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			SSLMode:         cfg.Database.SSLMode,
		}

		pgOrderStore, err := postgres.NewPostgresOrderStore(pgCfg)
		if err != nil {
			logger.Warn("failed to connect to PostgreSQL, continuing without persistent storage", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			logger.Info("PostgreSQL connected successfully", map[string]interface{}{
				"host":     cfg.Database.Host,
				"database": cfg.Database.Name,
			})
			orderStores = append(orderStores, pgOrderStore)

			if pgTradeStore, err := postgres.NewPostgresTradeStore(pgCfg); err == nil {
				tradeStores = append(tradeStores, pgTradeStore)
			}
			if pgBalanceStore, err := postgres.NewPostgresBalanceStore(pgCfg); err == nil {
				balanceStores = append(balanceStores, pgBalanceStore)
			}
		}
	}

	if fileTradeStore, err := file.NewTradeStore(cfg.Engine.TradeLogPath); err == nil {
		tradeStores = append(tradeStores, fileTradeStore)
		logger.Info("trade file log enabled", map[string]interface{}{
			"path": cfg.Engine.TradeLogPath,
		})
	}

	var orderStore storage.OrderStore
	var tradeStore storage.TradeStore
	var balanceStore storage.BalanceStore

	switch len(orderStores) {
	case 0:
		orderStore = memory.NewInMemoryOrderStore(cfg.Memory.MaxOrders)
	case 1:
		orderStore = orderStores[0]
	default:
		orderStore = storage.NewCompositeOrderStore(orderStores...)
	}

	switch len(tradeStores) {
	case 0:
		tradeStore = memory.NewInMemoryTradeStore(cfg.Memory.MaxTrades)
	case 1:
		tradeStore = tradeStores[0]
	default:
		tradeStore = storage.NewCompositeTradeStore(tradeStores...)
	}

	switch len(balanceStores) {
	case 0:
		balanceStore = memory.NewInMemoryBalanceStore()
	case 1:
		balanceStore = balanceStores[0]
	default:
		balanceStore = storage.NewCompositeBalanceStore(balanceStores...)
	}

	logger.Info("storage layers initialized", map[string]interface{}{
		"order_layers":   len(orderStores),
		"trade_layers":   len(tradeStores),
		"balance_layers": len(balanceStores),
	})

	return orderStore, tradeStore, balanceStore
}
