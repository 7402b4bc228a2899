package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/events"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/metrics"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/pagarme"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/pending"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/repository"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway заглушка платёжного шлюза для тестов сервисов.
type fakeGateway struct {
	pagarme.Client
	activateFn           func(ctx context.Context, customerID string) (*pagarme.Subscription, error)
	createPlanFn         func(ctx context.Context, name string, amount int64, interval string, intervalCount int) (*pagarme.Plan, error)
	createSubscriptionFn func(ctx context.Context, customerID, planID, cardID string, finalAmount int64, planName string) (*pagarme.Subscription, error)
}

func (f *fakeGateway) ActivateSubscription(ctx context.Context, customerID string) (*pagarme.Subscription, error) {
	return f.activateFn(ctx, customerID)
}

func (f *fakeGateway) CreatePlan(ctx context.Context, name string, amount int64, interval string, intervalCount int) (*pagarme.Plan, error) {
	return f.createPlanFn(ctx, name, amount, interval, intervalCount)
}

func (f *fakeGateway) CreateSubscription(ctx context.Context, customerID, planID, cardID string, finalAmount int64, planName string) (*pagarme.Subscription, error) {
	return f.createSubscriptionFn(ctx, customerID, planID, cardID, finalAmount, planName)
}

type webhookFixture struct {
	service   *WebhookService
	primary   *repository.InMemoryUserStore
	secondary *repository.InMemoryUserStore
	pending   *pending.FileStore
	gateway   *fakeGateway
}

func newWebhookFixture(t *testing.T) *webhookFixture {
	t.Helper()
	log := logger.New(logger.ERROR)

	primary := repository.NewInMemoryUserStore(log)
	secondary := repository.NewInMemoryUserStore(log)
	store := repository.NewReconciliationStore(primary, secondary, false, log)

	pendingStore, err := pending.NewFileStore(t.TempDir(), log)
	require.NoError(t, err)

	gateway := &fakeGateway{}
	svc := NewWebhookService(store, gateway, pendingStore, events.NopProducer{}, metrics.NopBillingMetrics{}, log)

	return &webhookFixture{
		service:   svc,
		primary:   primary,
		secondary: secondary,
		pending:   pendingStore,
		gateway:   gateway,
	}
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"subscription.paid","data":{"id":"sub_1"}}`)
	// HMAC-SHA256("secret", body) в hex
	valid := "fb1c7ad54b5235525adfdcbfb17111f3a1fbdda838f5edf483db8568549e0f68"

	assert.True(t, VerifySignature("secret", body, valid))
	assert.False(t, VerifySignature("secret", body, "deadbeef"))
	assert.False(t, VerifySignature("", body, valid))
	assert.False(t, VerifySignature("secret", body, ""))
}

func TestProcessInvoicePaid(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	_, err := f.secondary.Insert(ctx, &domain.User{ID: "u1", Email: "u@e.com", SubscriptionID: "sub_1"})
	require.NoError(t, err)

	dueAt := int64(1700000000)
	body := []byte(fmt.Sprintf(`{"event":"invoice.paid","data":{"id":"inv_1","subscription_id":"sub_1","due_at":%d}}`, dueAt))

	eventType, err := f.service.Process(ctx, body)
	require.NoError(t, err)
	assert.Equal(t, "invoice.paid", eventType)

	user, err := f.secondary.FindBySubscriptionID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusPaid, user.SubscriptionStatus)
	require.NotNil(t, user.LastPaymentDate)
	require.NotNil(t, user.SubscriptionExpiresAt)
	assert.True(t, user.SubscriptionExpiresAt.Equal(time.Unix(dueAt, 0)))

	// Повторная доставка того же события идемпотентна
	_, err = f.service.Process(ctx, body)
	require.NoError(t, err)
	user, err = f.secondary.FindBySubscriptionID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusPaid, user.SubscriptionStatus)
	assert.True(t, user.SubscriptionExpiresAt.Equal(time.Unix(dueAt, 0)))
}

func TestProcessSubscriptionPaidAddsGraceDay(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	_, err := f.secondary.Insert(ctx, &domain.User{ID: "u1", Email: "u@e.com", SubscriptionID: "sub_1"})
	require.NoError(t, err)

	periodEnd := time.Now().AddDate(0, 1, 0).Unix()
	body := []byte(fmt.Sprintf(`{"event":"subscription.paid","data":{"id":"sub_1","current_period_end":%d}}`, periodEnd))

	_, err = f.service.Process(ctx, body)
	require.NoError(t, err)

	user, err := f.secondary.FindBySubscriptionID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusPaid, user.SubscriptionStatus)
	require.NotNil(t, user.SubscriptionExpiresAt)
	assert.True(t, user.SubscriptionExpiresAt.Equal(time.Unix(periodEnd, 0).Add(24*time.Hour)))
}

func TestProcessPaymentFailed(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	_, err := f.secondary.Insert(ctx, &domain.User{ID: "u1", Email: "u@e.com", SubscriptionID: "sub_1"})
	require.NoError(t, err)

	_, err = f.service.Process(ctx, []byte(`{"event":"subscription.payment_failed","data":{"id":"sub_1"}}`))
	require.NoError(t, err)

	user, err := f.secondary.FindBySubscriptionID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusUnpaid, user.SubscriptionStatus)
}

func TestProcessSubscriptionCanceled(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	_, err := f.secondary.Insert(ctx, &domain.User{ID: "u1", Email: "u@e.com", SubscriptionID: "sub_1"})
	require.NoError(t, err)

	_, err = f.service.Process(ctx, []byte(`{"event":"subscription.canceled","data":{"id":"sub_1"}}`))
	require.NoError(t, err)

	user, err := f.secondary.FindBySubscriptionID(ctx, "sub_1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusCanceled, user.SubscriptionStatus)
}

func TestProcessSubscriptionCreatedSavesIntent(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	body := []byte(`{"event":"subscription.created","data":{"id":"sub_new","plan":{"id":"plan_1","name":"Plano Pro Anual"},"customer":{"email":"novo@e.com","name":"Novo"}}}`)
	_, err := f.service.Process(ctx, body)
	require.NoError(t, err)

	intents, err := f.pending.List(ctx)
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, "sub_new", intents[0].SubscriptionID)
	assert.Equal(t, "novo@e.com", intents[0].CustomerEmail)
}

func TestProcessSubscriptionCreatedAlreadyAssociated(t *testing.T) {
	f := newWebhookFixture(t)
	ctx := context.Background()

	_, err := f.secondary.Insert(ctx, &domain.User{ID: "u1", Email: "u@e.com", SubscriptionID: "sub_1"})
	require.NoError(t, err)

	_, err = f.service.Process(ctx, []byte(`{"event":"subscription.created","data":{"id":"sub_1"}}`))
	require.NoError(t, err)

	intents, err := f.pending.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, intents)
}

func TestProcessChargePaidActivates(t *testing.T) {
	f := newWebhookFixture(t)
	activated := ""
	f.gateway.activateFn = func(ctx context.Context, customerID string) (*pagarme.Subscription, error) {
		activated = customerID
		return &pagarme.Subscription{ID: "sub_1", Status: "active"}, nil
	}

	_, err := f.service.Process(context.Background(), []byte(`{"event":"charge.paid","data":{"id":"ch_1","customer":{"id":"cus_1"}}}`))
	require.NoError(t, err)
	assert.Equal(t, "cus_1", activated)
}

func TestProcessUnknownEventIgnored(t *testing.T) {
	f := newWebhookFixture(t)

	eventType, err := f.service.Process(context.Background(), []byte(`{"event":"order.closed","data":{"id":"or_1"}}`))
	require.NoError(t, err)
	assert.Equal(t, "order.closed", eventType)
}

func TestProcessMalformedPayload(t *testing.T) {
	f := newWebhookFixture(t)

	_, err := f.service.Process(context.Background(), []byte(`not json`))
	assert.ErrorIs(t, err, ErrInvalidWebhookPayload)

	_, err = f.service.Process(context.Background(), []byte(`{"data":{"id":"x"}}`))
	assert.ErrorIs(t, err, ErrInvalidWebhookPayload)
}
