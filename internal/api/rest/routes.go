package rest

import (
	"github.com/matheusiack20/BackEndAutenticaTeste/config"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/api/rest/handlers"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/diagnostics"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/middleware"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/service"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps зависимости HTTP-маршрутов.
type Deps struct {
	Checkout *service.CheckoutService
	Webhooks *service.WebhookService
	Recorder *diagnostics.Recorder
	Registry *prometheus.Registry
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(deps Deps, cfg *config.Config, log *logger.Logger) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestLogger(log))
	r.Use(gin.Recovery())

	// Endpoint для проверки работоспособности сервиса
	r.GET("/health", handlers.HealthCheck)

	// Prometheus метрики
	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))
	}

	auth := middleware.NewJWTMiddleware(&middleware.DefaultTokenValidator{Secret: []byte(cfg.Auth.JWTSecret)}, log)

	planHandler := handlers.NewPlanHandler(deps.Checkout, log)
	customerHandler := handlers.NewCustomerHandler(deps.Checkout, log)
	subscriptionHandler := handlers.NewSubscriptionHandler(deps.Checkout, log)
	webhookHandler := handlers.NewWebhookHandler(deps.Webhooks, deps.Recorder, cfg.Pagarme.WebhookSecret, log)

	// Планы
	plans := r.Group("/plans")
	{
		plans.POST("/create", planHandler.CreatePlan)
		plans.GET("", planHandler.GetPlans)
		plans.GET("/token/:token", planHandler.GetPlanToken)
	}

	// Клиенты и карты
	customers := r.Group("/customers")
	{
		customers.POST("/create", customerHandler.CreateCustomer)
		customers.POST("/:id/cards/create", customerHandler.CreateCard)
		customers.GET("/:id/subscriptions/active", customerHandler.GetActivePlan)
	}

	// Подписки
	subscriptions := r.Group("/subscriptions")
	{
		subscriptions.POST("/create", auth.OptionalAuth(), subscriptionHandler.CreateSubscription)
		subscriptions.GET("/me", auth.RequireAuth(), subscriptionHandler.GetMySubscription)
		subscriptions.GET("/status", auth.RequireAuth(), subscriptionHandler.GetSubscriptionStatus)
	}

	// Вебхуки на корневом уровне роутера
	webhooks := r.Group("/webhook")
	{
		webhooks.POST("/pagarme", webhookHandler.HandlePagarmeWebhook)
	}

	return r
}
