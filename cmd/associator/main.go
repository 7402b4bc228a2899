package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/config"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/pending"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/repository"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/service"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
)

// Команда привязки отложенных подписок к пользователям. Запускается
// планировщиком; обработанные заявки архивируются, так что повторный
// запуск безопасен.
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

	pendingStore, err := pending.NewFileStore(cfg.Storage.DataDir, log)
	if err != nil {
		log.Fatal("Failed to initialize pending subscription store: %v", err)
	}

	associator := service.NewAssociatorService(store, pendingStore, log)

	stats, err := associator.Run(ctx)
	if err != nil {
		log.Fatal("Association pass failed: %v", err)
	}

	json.NewEncoder(os.Stdout).Encode(stats)
}
