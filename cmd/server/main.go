package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/config"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/api/rest"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/diagnostics"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/events"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/metrics"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/pagarme"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/pending"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/repository"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/service"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/tokens"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.ParseLevel(cfg.Logging.Level))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Основная база подключается сразу: без неё сервис не имеет смысла.
	primaryClient, err := repository.Connect(ctx, cfg.Mongo.PrimaryURI)
	if err != nil {
		log.Fatal("Failed to connect to primary store: %v", err)
	}
	defer primaryClient.Disconnect(context.Background())
	primary := repository.NewMongoUserStore(primaryClient, cfg.Mongo.Database, "primary", log)

	// Вторичная база подключается лениво и переподключается после сбоев.
	secondary := repository.NewLazyUserStore("secondary", func(ctx context.Context) (repository.UserStore, error) {
		client, err := repository.Connect(ctx, cfg.Mongo.SecondaryURI)
		if err != nil {
			return nil, err
		}
		return repository.NewMongoUserStore(client, cfg.Mongo.Database, "secondary", log), nil
	}, log)

	store := repository.NewReconciliationStore(primary, secondary, cfg.Reconciliation.AllowSingleUserFallback, log)

	// Prometheus
	promRegistry := prometheus.NewRegistry()
	billingMetrics := metrics.NewBillingMetrics(promRegistry, log)
	systemMetrics := metrics.NewSystemMetrics(promRegistry, log)
	systemMetrics.StartRecording(15 * time.Second)
	defer systemMetrics.Stop()

	// Платёжный шлюз
	gateway := pagarme.NewClient(pagarme.Config{
		APIKey:           cfg.Pagarme.APIKey,
		BaseURL:          cfg.Pagarme.BaseURL,
		DeclineCVVPrefix: cfg.Pagarme.DeclineCVVPrefix,
		ValidationBINs:   cfg.Pagarme.ValidationBINs,
	}, log)

	// Токены планов: Redis при наличии адреса, иначе память процесса.
	var tokenStore tokens.Store
	if cfg.Redis.Addr != "" {
		redisStore, err := tokens.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, tokens.DefaultTTL, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis: %v", err)
		}
		defer redisStore.Close()
		tokenStore = redisStore
	} else {
		memoryStore := tokens.NewMemoryStore(tokens.DefaultTTL, log)
		defer memoryStore.Close()
		tokenStore = memoryStore
	}

	// События подписок: Kafka опциональна.
	var producer events.Producer = events.NopProducer{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaProducer, err := events.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Fatal("Failed to create Kafka producer: %v", err)
		}
		defer kafkaProducer.Close()
		producer = kafkaProducer
	}

	pendingStore, err := pending.NewFileStore(cfg.Storage.DataDir, log)
	if err != nil {
		log.Fatal("Failed to initialize pending subscription store: %v", err)
	}
	recorder, err := diagnostics.NewRecorder(cfg.Storage.DataDir, log)
	if err != nil {
		log.Fatal("Failed to initialize diagnostics recorder: %v", err)
	}

	checkout := service.NewCheckoutService(gateway, store, tokenStore, billingMetrics, log)
	webhooks := service.NewWebhookService(store, gateway, pendingStore, producer, billingMetrics, log)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := rest.SetupRouter(rest.Deps{
		Checkout: checkout,
		Webhooks: webhooks,
		Recorder: recorder,
		Registry: promRegistry,
	}, cfg, log)

	server := rest.NewServer(router, cfg, log)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
