package service

import (
	"context"
	"errors"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/pending"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/repository"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
)

// AssociateStats итоги одного прохода ассоциатора.
type AssociateStats struct {
	Scanned    int `json:"scanned"`
	Associated int `json:"associated"`
	Skipped    int `json:"skipped"`
	Errors     int `json:"errors"`
}

// AssociatorService связывает сохранённые намерения подписок с пользователями.
// Запускается как отдельная команда; обработанные намерения архивируются,
// поэтому повторные запуски идемпотентны.
type AssociatorService struct {
	store   *repository.ReconciliationStore
	pending *pending.FileStore
	log     *logger.Logger
}

// NewAssociatorService создает сервис ассоциации подписок.
func NewAssociatorService(store *repository.ReconciliationStore, pendingStore *pending.FileStore, log *logger.Logger) *AssociatorService {
	return &AssociatorService{
		store:   store,
		pending: pendingStore,
		log:     log,
	}
}

// Run обрабатывает все ожидающие намерения. Намерение без email или без
// подходящего пользователя пропускается и остаётся на следующий запуск.
func (s *AssociatorService) Run(ctx context.Context) (AssociateStats, error) {
	var stats AssociateStats

	intents, err := s.pending.List(ctx)
	if err != nil {
		return stats, err
	}
	stats.Scanned = len(intents)

	for _, intent := range intents {
		switch done, err := s.associate(ctx, intent); {
		case err != nil:
			s.log.Errorw("Failed to associate pending subscription", "subscriptionID", intent.SubscriptionID, "error", err)
			stats.Errors++
		case done:
			stats.Associated++
		default:
			stats.Skipped++
		}
	}

	s.log.Infow("Pending subscription pass finished", "scanned", stats.Scanned, "associated", stats.Associated, "skipped", stats.Skipped, "errors", stats.Errors)
	return stats, nil
}

// associate связывает одно намерение с пользователем по email.
func (s *AssociatorService) associate(ctx context.Context, intent domain.PendingSubscription) (bool, error) {
	if intent.SubscriptionID == "" || intent.PlanID == "" {
		s.log.Warnw("Pending subscription record is incomplete", "subscriptionID", intent.SubscriptionID)
		return false, nil
	}
	if intent.CustomerEmail == "" {
		s.log.Warnw("Pending subscription record has no customer email", "subscriptionID", intent.SubscriptionID)
		return false, nil
	}

	if _, err := s.store.FindByEmailPrimary(ctx, intent.CustomerEmail); err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			s.log.Infow("No user found for pending subscription", "email", intent.CustomerEmail, "subscriptionID", intent.SubscriptionID)
			return false, nil
		}
		return false, err
	}

	planName := intent.PlanName
	if planName == "" {
		planName = "Plano desconhecido"
	}

	interval := domain.PlanIntervalMonth
	expiresAt := time.Now().AddDate(0, 1, 0)
	if domain.IsAnnualPlanName(planName) {
		interval = domain.PlanIntervalYear
		expiresAt = time.Now().AddDate(1, 0, 0)
	}

	status := domain.SubscriptionStatusPaid
	plan := domain.MapPlanNameToNumber(planName)
	update := domain.SubscriptionUpdate{
		SubscriptionID:  &intent.SubscriptionID,
		Status:          &status,
		Plan:            &plan,
		PlanID:          &intent.PlanID,
		PlanName:        &planName,
		PlanInterval:    &interval,
		PlanDescription: &planName,
		ExpiresAt:       &expiresAt,
	}

	if err := s.store.UpdateUserPlan(ctx, intent.CustomerEmail, update); err != nil {
		return false, err
	}

	if err := s.pending.Archive(ctx, intent.SubscriptionID); err != nil {
		return false, err
	}

	s.log.Infow("Pending subscription associated", "subscriptionID", intent.SubscriptionID, "email", intent.CustomerEmail, "plan", planName)
	return true, nil
}
