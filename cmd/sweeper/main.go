package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/config"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/metrics"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/repository"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/service"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
)

// Команда одного прохода по истёкшим подпискам. Рассчитана на внешний
// планировщик (cron), поэтому завершается после первого прохода.
func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.ParseLevel(cfg.Logging.Level))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	primaryClient, err := repository.Connect(ctx, cfg.Mongo.PrimaryURI)
	if err != nil {
		log.Fatal("Failed to connect to primary store: %v", err)
	}
	defer primaryClient.Disconnect(context.Background())
	primary := repository.NewMongoUserStore(primaryClient, cfg.Mongo.Database, "primary", log)

	secondaryClient, err := repository.Connect(ctx, cfg.Mongo.SecondaryURI)
	if err != nil {
		log.Fatal("Failed to connect to secondary store: %v", err)
	}
	defer secondaryClient.Disconnect(context.Background())
	secondary := repository.NewMongoUserStore(secondaryClient, cfg.Mongo.Database, "secondary", log)

	store := repository.NewReconciliationStore(primary, secondary, cfg.Reconciliation.AllowSingleUserFallback, log)
	sweeper := service.NewSweeperService(store, metrics.NopBillingMetrics{}, log)

	stats, err := sweeper.Run(ctx)
	if err != nil {
		log.Fatal("Sweep failed: %v", err)
	}

	json.NewEncoder(os.Stdout).Encode(stats)
}
