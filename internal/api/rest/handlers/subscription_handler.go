package handlers

import (
	"net/http"
	"strings"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/middleware"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/service"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/req"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/res"
	"github.com/gin-gonic/gin"
)

// SubscriptionHandler обработчик оформления и чтения подписок
type SubscriptionHandler struct {
	checkout *service.CheckoutService
	log      *logger.Logger
}

// NewSubscriptionHandler создает новый обработчик подписок
func NewSubscriptionHandler(checkout *service.CheckoutService, log *logger.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{checkout: checkout, log: log}
}

// CreateSubscriptionRequest тело запроса оформления подписки.
type CreateSubscriptionRequest struct {
	CustomerID  string `json:"customerId" validate:"required"`
	PlanID      string `json:"planId" validate:"required"`
	CardID      string `json:"cardId" validate:"required"`
	FinalAmount int64  `json:"finalAmount" validate:"required,gt=0"`
	PlanName    string `json:"planName" validate:"required"`
	UserID      string `json:"userId"`
}

// CreateSubscription оформляет подписку в шлюзе. Если запрос пришёл с
// токеном авторизации, подписка сразу привязывается к пользователю.
func (h *SubscriptionHandler) CreateSubscription(c *gin.Context) {
	body, err := req.HandleBody[CreateSubscriptionRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	request := service.SubscriptionRequest{
		CustomerID:  body.CustomerID,
		PlanID:      body.PlanID,
		CardID:      body.CardID,
		FinalAmount: body.FinalAmount,
		PlanName:    body.PlanName,
		UserID:      body.UserID,
	}

	// Пользователь из токена имеет приоритет над телом запроса.
	if userID := c.GetString(string(middleware.ContextUserIDKey)); userID != "" {
		request.UserID = userID
		request.AuthToken = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	}

	result, err := h.checkout.CreateSubscription(c.Request.Context(), request)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	status := http.StatusCreated
	if result.Subscription.AlreadyExisted {
		status = http.StatusOK
	}
	res.JsonResponse(c.Writer, result, status)
}

// GetMySubscription возвращает детали подписки аутентифицированного
// пользователя
func (h *SubscriptionHandler) GetMySubscription(c *gin.Context) {
	userID := c.GetString(string(middleware.ContextUserIDKey))
	if userID == "" {
		res.JsonResponse(c.Writer, res.ErrorResponse{
			Error:     "unauthenticated",
			ErrorCode: http.StatusUnauthorized,
		}, http.StatusUnauthorized)
		return
	}

	details, err := h.checkout.GetSubscriptionDetails(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	res.JsonResponse(c.Writer, details, http.StatusOK)
}

// GetSubscriptionStatus возвращает признак активной подписки.
// Недоступность хранилища деградирует в "нет подписки", а не в ошибку.
func (h *SubscriptionHandler) GetSubscriptionStatus(c *gin.Context) {
	userID := c.GetString(string(middleware.ContextUserIDKey))
	if userID == "" {
		res.JsonResponse(c.Writer, res.ErrorResponse{
			Error:     "unauthenticated",
			ErrorCode: http.StatusUnauthorized,
		}, http.StatusUnauthorized)
		return
	}

	active, err := h.checkout.CheckSubscription(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	res.JsonResponse(c.Writer, gin.H{"active": active}, http.StatusOK)
}
