package handlers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/diagnostics"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/events"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/metrics"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/pending"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/repository"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/service"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWebhookRouter(t *testing.T, secret string) (*gin.Engine, *repository.InMemoryUserStore, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logger.New(logger.ERROR)

	primary := repository.NewInMemoryUserStore(log)
	secondary := repository.NewInMemoryUserStore(log)
	store := repository.NewReconciliationStore(primary, secondary, false, log)

	pendingStore, err := pending.NewFileStore(t.TempDir(), log)
	require.NoError(t, err)
	diagDir := t.TempDir()
	recorder, err := diagnostics.NewRecorder(diagDir, log)
	require.NoError(t, err)

	webhooks := service.NewWebhookService(store, nil, pendingStore, events.NopProducer{}, metrics.NopBillingMetrics{}, log)
	handler := NewWebhookHandler(webhooks, recorder, secret, log)

	router := gin.New()
	router.POST("/webhook/pagarme", handler.HandlePagarmeWebhook)
	return router, secondary, diagDir
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestWebhookAlways200OnProcessingFailure(t *testing.T) {
	router, _, diagDir := newWebhookRouter(t, "")

	// Подписки sub_ghost нет ни в одной базе: обработка падает, ответ 200
	body := []byte(`{"event":"subscription.paid","data":{"id":"sub_ghost"}}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/pagarme", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"processed":false`)

	// Доставка сброшена в диагностику несмотря на сбой обработки
	dumps, err := filepath.Glob(filepath.Join(diagDir, "webhooks", "subscription.paid_*.json"))
	require.NoError(t, err)
	assert.Len(t, dumps, 1)
}

func TestWebhookRejectsInvalidSignature(t *testing.T) {
	router, _, _ := newWebhookRouter(t, "whsec")

	body := []byte(`{"event":"subscription.paid","data":{"id":"sub_1"}}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/pagarme", bytes.NewReader(body))
	req.Header.Set("X-Signature", "deadbeef")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestWebhookAcceptsValidSignature(t *testing.T) {
	router, secondary, _ := newWebhookRouter(t, "whsec")

	_, err := secondary.Insert(context.Background(), &domain.User{ID: "u1", Email: "u@e.com", SubscriptionID: "sub_1"})
	require.NoError(t, err)

	body := []byte(`{"event":"subscription.canceled","data":{"id":"sub_1"}}`)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/pagarme", bytes.NewReader(body))
	req.Header.Set("X-Signature", sign("whsec", body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	user, err := secondary.FindBySubscriptionID(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubscriptionStatusCanceled, user.SubscriptionStatus)
}

func TestWebhookMalformedBodyStill200(t *testing.T) {
	router, _, _ := newWebhookRouter(t, "")

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/webhook/pagarme", bytes.NewReader([]byte("not json")))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"processed":false`)
}
