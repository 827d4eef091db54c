package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/clothify-orders/internal/config"
	kafkax "github.com/ariefcatur/clothify-orders/internal/kafka"
	"github.com/ariefcatur/clothify-orders/internal/logx"
	"github.com/ariefcatur/clothify-orders/internal/orders"
	"github.com/ariefcatur/clothify-orders/internal/postgres"
	"github.com/ariefcatur/clothify-orders/internal/projector"
	"github.com/ariefcatur/clothify-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logx.New(cfg.LogLevel, cfg.ServiceName+"-projector")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()
	if err := redisx.Ping(ctx, rdb); err != nil {
		log.Fatal("redis", zap.Error(err))
	}

	svc := &projector.Service{
		Redis:       rdb,
		Stats:       &redisx.Stats{Client: rdb},
		Cache:       &redisx.OrderCache{Client: rdb},
		Orders:      &orders.Repo{DB: db},
		ServiceName: "projector",
		Log:         log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ProjectorGroup, projector.Topics, cfg.ProjectorWorkers, log.Named("kafka"))
	done := make(chan struct{})
	go func() {
		defer close(done)
		log.Info("projector started",
			zap.String("group", cfg.ProjectorGroup),
			zap.Strings("topics", projector.Topics),
			zap.Int("workers", cfg.ProjectorWorkers))
		if err := cons.Start(ctx, svc.HandleOrderEvent); err != nil {
			log.Error("consumer exit", zap.Error(err))
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
		log.Info("shutting down projector")
	case <-ctx.Done():
	}
	cancel()
	<-done
}
