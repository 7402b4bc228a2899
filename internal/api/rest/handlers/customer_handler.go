package handlers

import (
	"net/http"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/pagarme"
	"github.com/matheusiack20/BackEndAutenticaTeste/internal/service"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/req"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/res"
	"github.com/gin-gonic/gin"
)

// CustomerHandler обработчик операций с клиентами и их картами
type CustomerHandler struct {
	checkout *service.CheckoutService
	log      *logger.Logger
}

// NewCustomerHandler создает новый обработчик клиентов
func NewCustomerHandler(checkout *service.CheckoutService, log *logger.Logger) *CustomerHandler {
	return &CustomerHandler{checkout: checkout, log: log}
}

// CreateCustomerRequest тело запроса создания клиента.
type CreateCustomerRequest struct {
	Name           string                 `json:"name" validate:"required"`
	Email          string                 `json:"email" validate:"required,email"`
	Document       string                 `json:"document" validate:"required"`
	Phone          string                 `json:"phone" validate:"required"`
	BillingAddress pagarme.BillingAddress `json:"billing_address"`
}

// CreateCustomer создает клиента в платёжном шлюзе
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	body, err := req.HandleBody[CreateCustomerRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	customer, err := h.checkout.CreateCustomer(c.Request.Context(), pagarme.CustomerRequest{
		Name:           body.Name,
		Email:          body.Email,
		Document:       body.Document,
		Phone:          body.Phone,
		BillingAddress: body.BillingAddress,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	res.JsonResponse(c.Writer, customer, http.StatusCreated)
}

// CreateCardRequest тело запроса создания карты.
// Сырые данные карты дальше шлюза не уходят и в логи не попадают.
type CreateCardRequest struct {
	Number         string                 `json:"number" validate:"required"`
	HolderName     string                 `json:"holder_name" validate:"required"`
	ExpMonth       int                    `json:"exp_month" validate:"required,min=1,max=12"`
	ExpYear        int                    `json:"exp_year" validate:"required"`
	CVV            string                 `json:"cvv" validate:"required"`
	BillingAddress pagarme.BillingAddress `json:"billing_address"`
}

// CreateCard создает и валидирует карту клиента, возвращая только
// маскированные метаданные
func (h *CustomerHandler) CreateCard(c *gin.Context) {
	body, err := req.HandleBody[CreateCardRequest](c.Writer, c.Request, h.log)
	if err != nil {
		return
	}

	card, err := h.checkout.CreateCard(c.Request.Context(), c.Param("id"), pagarme.CardRequest{
		Number:         body.Number,
		HolderName:     body.HolderName,
		ExpMonth:       body.ExpMonth,
		ExpYear:        body.ExpYear,
		CVV:            body.CVV,
		BillingAddress: body.BillingAddress,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	res.JsonResponse(c.Writer, card, http.StatusCreated)
}

// GetActivePlan возвращает активную подписку клиента в шлюзе
func (h *CustomerHandler) GetActivePlan(c *gin.Context) {
	subscription, err := h.checkout.GetActivePlan(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	if subscription == nil {
		res.JsonErrorResponse(c.Writer, res.ErrorResponse{
			Error:     "no active subscription",
			ErrorCode: http.StatusNotFound,
		}, http.StatusNotFound, h.log)
		return
	}

	res.JsonResponse(c.Writer, subscription, http.StatusOK)
}
