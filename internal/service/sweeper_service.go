package service

import (
	"context"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/metrics"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/repository"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
)

// SweeperService периодический проход по истёкшим подпискам.
// Запускается внешним планировщиком, например раз в сутки.
type SweeperService struct {
	store   *repository.ReconciliationStore
	metrics metrics.BillingMetrics
	log     *logger.Logger
}

// NewSweeperService создает сервис истечения подписок.
func NewSweeperService(store *repository.ReconciliationStore, billingMetrics metrics.BillingMetrics, log *logger.Logger) *SweeperService {
	return &SweeperService{
		store:   store,
		metrics: billingMetrics,
		log:     log,
	}
}

// Run выполняет один проход и возвращает его итоги.
func (s *SweeperService) Run(ctx context.Context) (repository.SweepStats, error) {
	stats, err := s.store.ProcessExpiredSubscriptions(ctx)
	if err != nil {
		s.metrics.IncSweeperRun("error")
		s.log.Errorw("Expiry sweep failed", "error", err)
		return stats, err
	}

	outcome := "ok"
	if stats.Errors > 0 {
		outcome = "partial"
	}
	s.metrics.IncSweeperRun(outcome)
	s.metrics.ObserveSweptExpired(float64(stats.Expired))

	s.log.Infow("Expiry sweep finished", "processed", stats.Processed, "expired", stats.Expired, "errors", stats.Errors)
	return stats, nil
}
