package handlers

import (
	"io"
	"net/http"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/diagnostics"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/service"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/res"
	"github.com/gin-gonic/gin"
)

// WebhookHandler обработчик вебхуков платёжного шлюза
type WebhookHandler struct {
	webhooks *service.WebhookService
	recorder *diagnostics.Recorder
	secret   string
	log      *logger.Logger
}

// NewWebhookHandler создает новый обработчик вебхуков
func NewWebhookHandler(webhooks *service.WebhookService, recorder *diagnostics.Recorder, secret string, log *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhooks: webhooks,
		recorder: recorder,
		secret:   secret,
		log:      log,
	}
}

// HandlePagarmeWebhook принимает событие шлюза. После успешной проверки
// подписи ответ всегда 200: шлюз не должен ретраить доставку из-за наших
// внутренних сбоев, они уходят в диагностические файлы.
func (h *WebhookHandler) HandlePagarmeWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		h.log.Errorw("Failed to read webhook body", "error", err)
		res.JsonResponse(c.Writer, gin.H{"success": true, "processed": false}, http.StatusOK)
		return
	}

	if h.secret != "" {
		signature := c.GetHeader("X-Signature")
		if !service.VerifySignature(h.secret, body, signature) {
			h.log.Errorw("Invalid webhook signature", "remote", c.ClientIP())
			res.JsonResponse(c.Writer, res.ErrorResponse{
				Error:     "invalid signature",
				ErrorCode: http.StatusUnauthorized,
			}, http.StatusUnauthorized)
			return
		}
	}

	// Каждая доставка сбрасывается в диагностику до обработки
	eventType := service.PeekEventType(body)
	h.recorder.RecordPayload(eventType, body)

	eventType, err = h.webhooks.Process(c.Request.Context(), body)
	if err != nil {
		h.log.Errorw("Webhook processing failed", "event", eventType, "error", err)
		h.recorder.RecordError(eventType, body, err)
		res.JsonResponse(c.Writer, gin.H{"success": true, "processed": false}, http.StatusOK)
		return
	}

	res.JsonResponse(c.Writer, gin.H{"success": true}, http.StatusOK)
}
