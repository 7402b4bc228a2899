package service

import (
	"context"
	"testing"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/metrics"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/pagarme"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/repository"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/tokens"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	service   *CheckoutService
	primary   *repository.InMemoryUserStore
	secondary *repository.InMemoryUserStore
	gateway   *fakeGateway
	tokens    *tokens.MemoryStore
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	log := logger.New(logger.ERROR)

	primary := repository.NewInMemoryUserStore(log)
	secondary := repository.NewInMemoryUserStore(log)
	store := repository.NewReconciliationStore(primary, secondary, false, log)

	tokenStore := tokens.NewMemoryStore(tokens.DefaultTTL, log)
	t.Cleanup(tokenStore.Close)

	gateway := &fakeGateway{}
	svc := NewCheckoutService(gateway, store, tokenStore, metrics.NopBillingMetrics{}, log)

	return &checkoutFixture{
		service:   svc,
		primary:   primary,
		secondary: secondary,
		gateway:   gateway,
		tokens:    tokenStore,
	}
}

func TestCreatePlanIssuesToken(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	f.gateway.createPlanFn = func(ctx context.Context, name string, amount int64, interval string, intervalCount int) (*pagarme.Plan, error) {
		return &pagarme.Plan{ID: "plan_1", Name: name, Interval: interval, IntervalCount: intervalCount}, nil
	}

	result, err := f.service.CreatePlan(ctx, "Plano Pro", 9900, "month", 1)
	require.NoError(t, err)
	assert.Equal(t, "plan_1", result.Plan.ID)
	require.NotEmpty(t, result.PlanToken)

	token, err := f.service.ResolvePlanToken(ctx, result.PlanToken)
	require.NoError(t, err)
	assert.Equal(t, "plan_1", token.PlanID)
	assert.Equal(t, int64(9900), token.Amount)
}

func TestCreateSubscriptionAssociatesUser(t *testing.T) {
	f := newCheckoutFixture(t)
	ctx := context.Background()

	userID, err := f.primary.Insert(ctx, &domain.User{Email: "maria@e.com", Name: "Maria"})
	require.NoError(t, err)

	f.gateway.createSubscriptionFn = func(ctx context.Context, customerID, planID, cardID string, finalAmount int64, planName string) (*pagarme.Subscription, error) {
		return &pagarme.Subscription{ID: "sub_1", Status: "paid", TotalAmount: 59400, CreatedAt: time.Now()}, nil
	}

	result, err := f.service.CreateSubscription(ctx, SubscriptionRequest{
		CustomerID:  "cus_1",
		PlanID:      "plan_1",
		CardID:      "card_1",
		FinalAmount: 59400,
		PlanName:    "Plano Pro Anual",
		UserID:      userID,
		AuthToken:   "tok_secret",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_1", result.Subscription.ID)
	require.NotNil(t, result.User)
	assert.Equal(t, domain.SubscriptionStatusPaid, result.User.SubscriptionStatus)

	stored, err := f.secondary.FindBySubscriptionID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, domain.PlanIntervalYear, stored.PlanInterval)
	assert.Equal(t, 3, stored.Plan)
	assert.Equal(t, int64(59400), stored.SubscriptionPrice)

	// Токен авторизации не зеркалится в основную базу
	mirrored, err := f.primary.FindByID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", mirrored.SubscriptionID)
	assert.Empty(t, mirrored.AuthToken)
}

func TestCreateSubscriptionWithoutUser(t *testing.T) {
	f := newCheckoutFixture(t)

	f.gateway.createSubscriptionFn = func(ctx context.Context, customerID, planID, cardID string, finalAmount int64, planName string) (*pagarme.Subscription, error) {
		return &pagarme.Subscription{ID: "sub_1", Status: "paid"}, nil
	}

	result, err := f.service.CreateSubscription(context.Background(), SubscriptionRequest{
		CustomerID: "cus_1",
		PlanID:     "plan_1",
		CardID:     "card_1",
		PlanName:   "Plano Iniciante",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_1", result.Subscription.ID)
	assert.Nil(t, result.User)
}

func TestCreateSubscriptionAssociationFailureNotFatal(t *testing.T) {
	f := newCheckoutFixture(t)

	f.gateway.createSubscriptionFn = func(ctx context.Context, customerID, planID, cardID string, finalAmount int64, planName string) (*pagarme.Subscription, error) {
		return &pagarme.Subscription{ID: "sub_1", Status: "paid"}, nil
	}

	// Пользователя u_ghost нет ни в одной базе: подписка всё равно оформлена
	result, err := f.service.CreateSubscription(context.Background(), SubscriptionRequest{
		CustomerID: "cus_1",
		PlanID:     "plan_1",
		CardID:     "card_1",
		PlanName:   "Plano Pro",
		UserID:     "u_ghost",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub_1", result.Subscription.ID)
	assert.Nil(t, result.User)
}
