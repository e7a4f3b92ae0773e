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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/preloved/marketplace/internal/config"
	"github.com/preloved/marketplace/internal/httpx"
	kafkax "github.com/preloved/marketplace/internal/kafka"
	"github.com/preloved/marketplace/internal/logging"
	"github.com/preloved/marketplace/internal/market"
	"github.com/preloved/marketplace/internal/postgres"
	"github.com/preloved/marketplace/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logging.New(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("db connect", zap.Error(err))
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer for lifecycle events
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start(ctx)

	store := postgres.NewStore(db)
	engine := market.NewEngine(store, kafkax.NewEventPublisher(prod), log, cfg.ServiceName)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := httpx.NewMetrics(registry)

	router := httpx.NewRouter(log, metrics, registry)
	(&httpx.OrdersHandler{Engine: engine, Redis: rdb, Log: log}).Register(router)
	(&httpx.CatalogHandler{Store: store, Log: log}).Register(router)
	(&httpx.AccountsHandler{Store: store, Log: log}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	_ = srv.Shutdown(shutdownCtx)

	cancel()          // stop the producer loop
	prod.WaitClosed() // drain pending events
}
