package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/events"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/metrics"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/pagarme"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/pending"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/repository"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
)

// expiryGrace запас к дате истечения, чтобы не отключать пользователя
// раньше, чем шлюз проведёт продление.
const expiryGrace = 24 * time.Hour

// webhookEnvelope внешний конверт события вебхука.
type webhookEnvelope struct {
	Event string           `json:"event"`
	Data  webhookEventData `json:"data"`
}

// webhookEventData объединённые поля данных всех обрабатываемых событий.
type webhookEventData struct {
	ID               string `json:"id"`
	SubscriptionID   string `json:"subscription_id"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
	DueAt            int64  `json:"due_at"`
	Plan             struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"plan"`
	Customer struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer"`
}

// ErrInvalidWebhookPayload тело вебхука не распознано.
var ErrInvalidWebhookPayload = errors.New("invalid webhook payload")

// WebhookService обрабатывает события платёжного шлюза.
type WebhookService struct {
	store    *repository.ReconciliationStore
	gateway  pagarme.Client
	pending  *pending.FileStore
	producer events.Producer
	metrics  metrics.BillingMetrics
	log      *logger.Logger
}

// NewWebhookService создает обработчик вебхуков.
func NewWebhookService(store *repository.ReconciliationStore, gateway pagarme.Client, pendingStore *pending.FileStore, producer events.Producer, billingMetrics metrics.BillingMetrics, log *logger.Logger) *WebhookService {
	return &WebhookService{
		store:    store,
		gateway:  gateway,
		pending:  pendingStore,
		producer: producer,
		metrics:  billingMetrics,
		log:      log,
	}
}

// VerifySignature проверяет HMAC-SHA256 подпись сырого тела вебхука.
// Сравнение выполняется за постоянное время.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

// PeekEventType достает тип события из сырого тела, не валидируя остальное.
// Нужен транспортному слою, чтобы именовать диагностический дамп до обработки.
func PeekEventType(body []byte) string {
	var envelope struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Event
}

// Process разбирает тело вебхука и выполняет обработчик события.
// Возвращает тип события и ошибку обработки; решение об HTTP-статусе
// остаётся за транспортным слоем.
func (s *WebhookService) Process(ctx context.Context, body []byte) (string, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidWebhookPayload, err)
	}
	if envelope.Event == "" {
		return "", ErrInvalidWebhookPayload
	}

	s.log.Infow("Webhook event received", "event", envelope.Event, "id", envelope.Data.ID)

	var err error
	switch envelope.Event {
	case "subscription.created":
		err = s.handleSubscriptionCreated(ctx, envelope.Data)
	case "subscription.paid":
		err = s.handleSubscriptionPaid(ctx, envelope.Data)
	case "subscription.payment_failed":
		err = s.handlePaymentFailed(ctx, envelope.Data.ID)
	case "subscription.canceled":
		err = s.handleSubscriptionCanceled(ctx, envelope.Data)
	case "invoice.paid":
		err = s.handleInvoicePaid(ctx, envelope.Data)
	case "invoice.payment_failed":
		err = s.handlePaymentFailed(ctx, envelope.Data.SubscriptionID)
	case "charge.paid":
		err = s.handleChargePaid(ctx, envelope.Data)
	default:
		s.log.Infow("Unhandled webhook event", "event", envelope.Event)
		s.metrics.IncWebhookEvent(envelope.Event, "ignored")
		return envelope.Event, nil
	}

	if err != nil {
		s.metrics.IncWebhookEvent(envelope.Event, "error")
	} else {
		s.metrics.IncWebhookEvent(envelope.Event, "ok")
	}
	return envelope.Event, err
}

// handleSubscriptionCreated сохраняет намерение привязки, если подписка ещё
// не связана ни с одним пользователем.
func (s *WebhookService) handleSubscriptionCreated(ctx context.Context, data webhookEventData) error {
	if data.ID == "" {
		return fmt.Errorf("%w: subscription id is missing", ErrInvalidWebhookPayload)
	}

	if user, err := s.store.FindBySubscriptionID(ctx, data.ID); err == nil {
		s.log.Infow("Subscription already associated", "subscriptionID", data.ID, "userID", user.ID)
		return nil
	} else if !errors.Is(err, domain.ErrRecordNotFound) {
		return err
	}

	intent := domain.PendingSubscription{
		SubscriptionID: data.ID,
		PlanID:         data.Plan.ID,
		PlanName:       data.Plan.Name,
		CustomerEmail:  data.Customer.Email,
		CustomerName:   data.Customer.Name,
		Timestamp:      time.Now(),
	}
	if err := s.pending.Save(ctx, intent); err != nil {
		return err
	}

	s.publish(ctx, events.SubscriptionEvent{
		Type:           events.EventSubscriptionCreated,
		SubscriptionID: data.ID,
		PlanID:         data.Plan.ID,
	})
	return nil
}

// handleSubscriptionPaid помечает подписку оплаченной и продлевает срок
// действия до конца периода с суточным запасом.
func (s *WebhookService) handleSubscriptionPaid(ctx context.Context, data webhookEventData) error {
	if data.ID == "" {
		return fmt.Errorf("%w: subscription id is missing", ErrInvalidWebhookPayload)
	}

	user, err := s.store.UpdateStatus(ctx, data.ID, "paid")
	if err != nil {
		return err
	}

	if data.CurrentPeriodEnd > 0 {
		expiresAt := time.Unix(data.CurrentPeriodEnd, 0).Add(expiryGrace)
		if err := s.store.UpdateExpiry(ctx, data.ID, expiresAt); err != nil {
			s.log.Errorw("Failed to update subscription expiry", "subscriptionID", data.ID, "error", err)
		}
	}

	s.publish(ctx, events.SubscriptionEvent{
		Type:           events.EventSubscriptionPaid,
		SubscriptionID: data.ID,
		UserID:         user.ID,
		Status:         string(domain.SubscriptionStatusPaid),
	})
	return nil
}

// handleInvoicePaid обрабатывает оплату счёта продления: статус paid, дата
// последнего платежа и новый срок действия из данных счёта.
func (s *WebhookService) handleInvoicePaid(ctx context.Context, data webhookEventData) error {
	if data.SubscriptionID == "" {
		return fmt.Errorf("%w: subscription id is missing in invoice data", ErrInvalidWebhookPayload)
	}

	user, err := s.store.UpdateStatus(ctx, data.SubscriptionID, "paid")
	if err != nil {
		return err
	}

	if err := s.store.UpdateLastPaymentDate(ctx, data.SubscriptionID, time.Now()); err != nil {
		s.log.Errorw("Failed to update last payment date", "subscriptionID", data.SubscriptionID, "error", err)
	}

	if data.DueAt > 0 {
		// Срок следующего счёта уже является границей действия, запас не нужен.
		expiresAt := time.Unix(data.DueAt, 0)
		if err := s.store.UpdateExpiry(ctx, data.SubscriptionID, expiresAt); err != nil {
			s.log.Errorw("Failed to update subscription expiry", "subscriptionID", data.SubscriptionID, "error", err)
		}
	}

	s.publish(ctx, events.SubscriptionEvent{
		Type:           events.EventSubscriptionPaid,
		SubscriptionID: data.SubscriptionID,
		UserID:         user.ID,
		Status:         string(domain.SubscriptionStatusPaid),
	})
	return nil
}

// handlePaymentFailed помечает подписку неоплаченной.
func (s *WebhookService) handlePaymentFailed(ctx context.Context, subscriptionID string) error {
	if subscriptionID == "" {
		return fmt.Errorf("%w: subscription id is missing", ErrInvalidWebhookPayload)
	}

	user, err := s.store.UpdateStatus(ctx, subscriptionID, "unpaid")
	if err != nil {
		return err
	}

	s.publish(ctx, events.SubscriptionEvent{
		Type:           events.EventSubscriptionUnpaid,
		SubscriptionID: subscriptionID,
		UserID:         user.ID,
		Status:         string(domain.SubscriptionStatusUnpaid),
	})
	return nil
}

// handleSubscriptionCanceled помечает подписку отменённой.
func (s *WebhookService) handleSubscriptionCanceled(ctx context.Context, data webhookEventData) error {
	if data.ID == "" {
		return fmt.Errorf("%w: subscription id is missing", ErrInvalidWebhookPayload)
	}

	user, err := s.store.UpdateStatus(ctx, data.ID, "canceled")
	if err != nil {
		return err
	}

	s.publish(ctx, events.SubscriptionEvent{
		Type:           events.EventSubscriptionCanceled,
		SubscriptionID: data.ID,
		UserID:         user.ID,
		Status:         string(domain.SubscriptionStatusCanceled),
	})
	return nil
}

// handleChargePaid по оплате разового списания пытается активировать
// последнюю неотменённую подписку клиента в шлюзе.
func (s *WebhookService) handleChargePaid(ctx context.Context, data webhookEventData) error {
	customerID := data.Customer.ID
	if customerID == "" {
		return fmt.Errorf("%w: customer id is missing in charge data", ErrInvalidWebhookPayload)
	}

	subscription, err := s.gateway.ActivateSubscription(ctx, customerID)
	if err != nil {
		return err
	}

	s.log.Infow("Subscription activated after charge", "customerID", customerID, "subscriptionID", subscription.ID, "status", subscription.Status)
	return nil
}

// publish отправляет событие, не прерывая обработку вебхука при сбое.
func (s *WebhookService) publish(ctx context.Context, event events.SubscriptionEvent) {
	if err := s.producer.PublishSubscriptionEvent(ctx, event); err != nil {
		s.log.Warnw("Failed to publish subscription event", "type", event.Type, "error", err)
	}
}
