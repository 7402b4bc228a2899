package metrics

import (
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BillingMetrics интерфейс для метрик биллинга
type BillingMetrics interface {
	IncChargeCreated()
	IncChargeStatus(status string)
	IncSubscriptionCreated(interval string)
	IncWebhookEvent(eventType, outcome string)
	IncSweeperRun(outcome string)
	ObserveSweptExpired(count float64)
}

type billingMetrics struct {
	log                  *logger.Logger
	chargesCreated       prometheus.Counter
	chargesStatus        *prometheus.CounterVec
	subscriptionsCreated *prometheus.CounterVec
	webhookEvents        *prometheus.CounterVec
	sweeperRuns          *prometheus.CounterVec
	sweptExpired         prometheus.Histogram
}

// NewBillingMetrics создает новые метрики биллинга
func NewBillingMetrics(registry *prometheus.Registry, log *logger.Logger) BillingMetrics {
	chargesCreated := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "billing_charges_created_total",
			Help: "The total number of created charges",
		},
	)

	chargesStatus := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_charges_status_total",
			Help: "The total number of charges by gateway status",
		},
		[]string{"status"},
	)

	subscriptionsCreated := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_subscriptions_created_total",
			Help: "The total number of created subscriptions",
		},
		[]string{"interval"},
	)

	webhookEvents := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_webhook_events_total",
			Help: "The total number of processed webhook events",
		},
		[]string{"event", "outcome"},
	)

	sweeperRuns := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "billing_sweeper_runs_total",
			Help: "The total number of expiry sweeper runs",
		},
		[]string{"outcome"},
	)

	sweptExpired := promauto.With(registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "billing_sweeper_expired",
			Help:    "Distribution of subscriptions expired per sweeper run",
			Buckets: prometheus.ExponentialBuckets(1, 4, 5), // 1, 4, 16, 64, 256
		},
	)

	return &billingMetrics{
		log:                  log,
		chargesCreated:       chargesCreated,
		chargesStatus:        chargesStatus,
		subscriptionsCreated: subscriptionsCreated,
		webhookEvents:        webhookEvents,
		sweeperRuns:          sweeperRuns,
		sweptExpired:         sweptExpired,
	}
}

// IncChargeCreated увеличивает счетчик созданных списаний
func (m *billingMetrics) IncChargeCreated() {
	m.chargesCreated.Inc()
}

// IncChargeStatus увеличивает счетчик списаний по статусу шлюза
func (m *billingMetrics) IncChargeStatus(status string) {
	m.chargesStatus.WithLabelValues(status).Inc()
}

// IncSubscriptionCreated увеличивает счетчик созданных подписок
func (m *billingMetrics) IncSubscriptionCreated(interval string) {
	m.subscriptionsCreated.WithLabelValues(interval).Inc()
}

// IncWebhookEvent увеличивает счетчик обработанных событий вебхуков
func (m *billingMetrics) IncWebhookEvent(eventType, outcome string) {
	m.webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

// IncSweeperRun увеличивает счетчик проходов свипера
func (m *billingMetrics) IncSweeperRun(outcome string) {
	m.sweeperRuns.WithLabelValues(outcome).Inc()
}

// ObserveSweptExpired записывает количество истёкших подписок за проход
func (m *billingMetrics) ObserveSweptExpired(count float64) {
	m.sweptExpired.Observe(count)
}

// NopBillingMetrics метрики-заглушка для тестов и вспомогательных команд.
type NopBillingMetrics struct{}

func (NopBillingMetrics) IncChargeCreated()                       {}
func (NopBillingMetrics) IncChargeStatus(status string)           {}
func (NopBillingMetrics) IncSubscriptionCreated(interval string)  {}
func (NopBillingMetrics) IncWebhookEvent(eventType, outcome string) {}
func (NopBillingMetrics) IncSweeperRun(outcome string)            {}
func (NopBillingMetrics) ObserveSweptExpired(count float64)       {}
