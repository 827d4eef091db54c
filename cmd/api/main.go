package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/clothify-orders/internal/checkout"
	"github.com/ariefcatur/clothify-orders/internal/config"
	"github.com/ariefcatur/clothify-orders/internal/httpx"
	"github.com/ariefcatur/clothify-orders/internal/inventory"
	kafkax "github.com/ariefcatur/clothify-orders/internal/kafka"
	"github.com/ariefcatur/clothify-orders/internal/logx"
	"github.com/ariefcatur/clothify-orders/internal/orders"
	"github.com/ariefcatur/clothify-orders/internal/payment"
	"github.com/ariefcatur/clothify-orders/internal/postgres"
	"github.com/ariefcatur/clothify-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logx.New(cfg.LogLevel, cfg.ServiceName)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sim := payment.NewSimulator()
	sim.MinDelay, sim.MaxDelay, sim.SuccessRate = cfg.Settlement.MinDelay, cfg.Settlement.MaxDelay, cfg.Settlement.SuccessRate

	svc := &checkout.Service{
		Settler:          sim,
		Log:              log.Named("checkout"),
		ServiceName:      cfg.ServiceName,
		SettleTimeout:    cfg.Settlement.Timeout,
		RestockOnFailure: cfg.Settlement.RestockOnFailure,
	}
	var catalog inventory.Catalog
	oh := &httpx.OrdersHandler{Service: svc, Log: log.Named("http")}

	var prod *kafkax.Producer
	switch cfg.StoreDriver {
	case config.DriverMemory:
		// self-contained: no Postgres, Redis or Kafka
		ledger := inventory.NewMemoryLedger()
		svc.Ledger, svc.Orders, catalog = ledger, orders.NewMemoryStore(), ledger
		log.Info("using in-memory store")

	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatal("db migrate", zap.Error(err))
		}
		repo := &inventory.Repo{DB: db}
		svc.Ledger, svc.Orders, catalog = repo, &orders.Repo{DB: db}, repo

		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		if err := redisx.Ping(ctx, rdb); err != nil {
			log.Warn("redis unavailable, running without cache and idempotency", zap.Error(err))
		} else {
			cache := &redisx.OrderCache{Client: rdb}
			svc.Cache = cache
			oh.Cache = cache
			oh.Idem = &redisx.Idempotency{Client: rdb}
			oh.Stats = &redisx.Stats{Client: rdb}
		}

		prod = kafkax.NewProducer(cfg.KafkaBrokers, 1024, log.Named("kafka"))
		prod.Start(ctx)
		svc.Events = prod
	}

	if n, err := inventory.SeedIfEmpty(ctx, catalog, inventory.DefaultCatalog); err != nil {
		log.Warn("catalog seed failed", zap.Error(err))
	} else if n > 0 {
		log.Info("catalog seeded", zap.Int("products", n))
	}

	oh.Catalog = catalog
	router := httpx.NewRouter(log.Named("http"))
	oh.Register(router)
	(&httpx.ProductsHandler{Catalog: catalog, Log: log.Named("http")}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Settlement.Timeout+5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)

	// let in-flight payments record their outcome before the stores go away
	if err := svc.Wait(shutdownCtx); err != nil {
		log.Warn("settlements still in flight at exit", zap.Error(err))
	}
	if prod != nil {
		prod.Close()
		prod.WaitClosed()
	}
	cancel()
}
