package handlers

import (
	"net/http"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/service"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/req"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/res"
	"github.com/gin-gonic/gin"
)

// PlanHandler обработчик операций с тарифными планами
type PlanHandler struct {
	checkout *service.CheckoutService
	log      *logger.Logger
}

// NewPlanHandler создает новый обработчик планов
func NewPlanHandler(checkout *service.CheckoutService, log *logger.Logger) *PlanHandler {
	return &PlanHandler{checkout: checkout, log: log}
}

// CreatePlanRequest тело запроса создания плана.
type CreatePlanRequest struct {
	Name          string `json:"name" validate:"required"`
	Amount        int64  `json:"amount" validate:"required,gt=0"`
	Interval      string `json:"interval" validate:"required,oneof=day week month year"`
	IntervalCount int    `json:"intervalCount" validate:"required,gt=0"`
}

// CreatePlan создает тарифный план в шлюзе
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	body, err := req.HandleBody[CreatePlanRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	result, err := h.checkout.CreatePlan(c.Request.Context(), body.Name, body.Amount, body.Interval, body.IntervalCount)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	res.JsonResponse(c.Writer, result, http.StatusCreated)
}

// GetPlans возвращает список планов шлюза
func (h *PlanHandler) GetPlans(c *gin.Context) {
	plans, err := h.checkout.GetPlans(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	res.JsonResponse(c.Writer, plans, http.StatusOK)
}

// GetPlanToken возвращает данные плана по выданному ранее токену
func (h *PlanHandler) GetPlanToken(c *gin.Context) {
	token, err := h.checkout.ResolvePlanToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		res.JsonResponse(c.Writer, res.ErrorResponse{
			Error:     "plan token not found or expired",
			ErrorCode: http.StatusNotFound,
		}, http.StatusNotFound)
		return
	}

	res.JsonResponse(c.Writer, token, http.StatusOK)
}
