package service

import (
	"context"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/metrics"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/pagarme"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/repository"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/tokens"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
)

// CheckoutService сценарии оформления подписки: планы, клиенты, карты,
// списания и сама подписка с привязкой к пользователю.
type CheckoutService struct {
	gateway pagarme.Client
	store   *repository.ReconciliationStore
	tokens  tokens.Store
	metrics metrics.BillingMetrics
	log     *logger.Logger
}

// NewCheckoutService создает сервис оформления подписки.
func NewCheckoutService(gateway pagarme.Client, store *repository.ReconciliationStore, tokenStore tokens.Store, billingMetrics metrics.BillingMetrics, log *logger.Logger) *CheckoutService {
	return &CheckoutService{
		gateway: gateway,
		store:   store,
		tokens:  tokenStore,
		metrics: billingMetrics,
		log:     log,
	}
}

// CreatePlanResult план шлюза вместе с токеном для прохождения оплаты.
type CreatePlanResult struct {
	Plan      *pagarme.Plan `json:"plan"`
	PlanToken string        `json:"plan_token"`
}

// CreatePlan создает план в шлюзе и выдает токен плана для фронтенда.
func (s *CheckoutService) CreatePlan(ctx context.Context, name string, amount int64, interval string, intervalCount int) (*CreatePlanResult, error) {
	plan, err := s.gateway.CreatePlan(ctx, name, amount, interval, intervalCount)
	if err != nil {
		return nil, err
	}

	tokenID, err := s.tokens.Put(ctx, tokens.PlanToken{
		PlanID:   plan.ID,
		Name:     plan.Name,
		Amount:   amount,
		Interval: plan.Interval,
	})
	if err != nil {
		// План уже создан; токен вспомогательный, сбой не фатален.
		s.log.Warnw("Failed to store plan token", "planID", plan.ID, "error", err)
	}

	return &CreatePlanResult{Plan: plan, PlanToken: tokenID}, nil
}

// GetPlans возвращает список планов шлюза.
func (s *CheckoutService) GetPlans(ctx context.Context) (*pagarme.PlanList, error) {
	return s.gateway.GetPlans(ctx)
}

// ResolvePlanToken возвращает данные плана по токену.
func (s *CheckoutService) ResolvePlanToken(ctx context.Context, tokenID string) (*tokens.PlanToken, error) {
	return s.tokens.Get(ctx, tokenID)
}

// CreateCustomer создает клиента в шлюзе.
func (s *CheckoutService) CreateCustomer(ctx context.Context, req pagarme.CustomerRequest) (*pagarme.Customer, error) {
	return s.gateway.CreateCustomer(ctx, req)
}

// CreateCard создает и валидирует карту клиента.
func (s *CheckoutService) CreateCard(ctx context.Context, customerID string, card pagarme.CardRequest) (*pagarme.MaskedCard, error) {
	return s.gateway.CreateCard(ctx, customerID, card)
}

// GetActivePlan возвращает активную подписку клиента в шлюзе или nil.
func (s *CheckoutService) GetActivePlan(ctx context.Context, customerID string) (*pagarme.Subscription, error) {
	return s.gateway.GetActivePlan(ctx, customerID)
}

// CreateCharge создает разовое списание с описанием по имени плательщика.
func (s *CheckoutService) CreateCharge(ctx context.Context, customerID, cardID string, amount int64, payerName string) (*pagarme.Charge, error) {
	s.metrics.IncChargeCreated()
	charge, err := s.gateway.CreatePaymentTransaction(ctx, customerID, cardID, amount, payerName)
	if charge != nil {
		s.metrics.IncChargeStatus(charge.Status)
	}
	return charge, err
}

// SubscriptionRequest параметры оформления подписки.
type SubscriptionRequest struct {
	CustomerID  string
	PlanID      string
	CardID      string
	FinalAmount int64
	PlanName    string

	// UserID и AuthToken позволяют сразу привязать подписку к пользователю.
	UserID    string
	AuthToken string
}

// SubscriptionResult итог оформления подписки.
type SubscriptionResult struct {
	Subscription *pagarme.Subscription       `json:"subscription"`
	User         *domain.SubscriptionDetails `json:"user,omitempty"`
}

// CreateSubscription оформляет подписку в шлюзе и, если известен пользователь,
// привязывает её в хранилище согласования. Сбой привязки не откатывает
// подписку: привязку доделает вебхук или ассоциатор.
func (s *CheckoutService) CreateSubscription(ctx context.Context, req SubscriptionRequest) (*SubscriptionResult, error) {
	subscription, err := s.gateway.CreateSubscription(ctx, req.CustomerID, req.PlanID, req.CardID, req.FinalAmount, req.PlanName)
	if err != nil {
		return nil, err
	}

	interval := domain.PlanIntervalMonth
	if domain.IsAnnualPlanName(req.PlanName) {
		interval = domain.PlanIntervalYear
	}
	s.metrics.IncSubscriptionCreated(string(interval))

	result := &SubscriptionResult{Subscription: subscription}
	if req.UserID == "" {
		return result, nil
	}

	now := time.Now()
	status := domain.MapGatewayStatus(subscription.Status)
	plan := domain.MapPlanNameToNumber(req.PlanName)
	update := domain.SubscriptionUpdate{
		Status:       &status,
		Plan:         &plan,
		PlanID:       &req.PlanID,
		PlanName:     &req.PlanName,
		PlanInterval: &interval,
		Price:        &subscription.TotalAmount,
		CreatedAt:    &now,
	}

	user, err := s.store.SaveSubscription(ctx, req.UserID, subscription.ID, req.AuthToken, update)
	if err != nil {
		s.log.Errorw("Failed to associate subscription with user", "userID", req.UserID, "subscriptionID", subscription.ID, "error", err)
		return result, nil
	}

	details := user.Details()
	result.User = &details
	return result, nil
}

// GetSubscriptionDetails возвращает детали подписки пользователя.
func (s *CheckoutService) GetSubscriptionDetails(ctx context.Context, userID string) (*domain.SubscriptionDetails, error) {
	return s.store.GetUserSubscriptionDetails(ctx, userID)
}

// CheckSubscription сообщает, активна ли подписка пользователя.
func (s *CheckoutService) CheckSubscription(ctx context.Context, userID string) (bool, error) {
	return s.store.CheckUserSubscription(ctx, userID)
}
