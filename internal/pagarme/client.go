package pagarme

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
)

const (
	// DefaultBaseURL базовый URL API Pagar.me
	DefaultBaseURL = "https://api.pagar.me/core/v5"

	// Сумма валидационной транзакции: 1 сентаво
	validationChargeAmount = 1

	statementDescriptor = "Anuncia.AI"
)

// Config конфигурация клиента Pagar.me.
type Config struct {
	APIKey  string
	BaseURL string
	// DeclineCVVPrefix — CVV с этим префиксом отклоняется без похода в шлюз
	// (детерминированное тестирование против песочницы)
	DeclineCVVPrefix string
	// ValidationBINs — BIN-префиксы карт, проходящих валидационную транзакцию.
	// Элемент "*" включает валидацию для всех карт.
	ValidationBINs []string
}

// Client определяет методы для взаимодействия с API платёжного шлюза.
type Client interface {
	// CreatePlan создает тарифный план. Для годового интервала применяется
	// ценовая политика годовой скидки.
	CreatePlan(ctx context.Context, name string, amount int64, interval string, intervalCount int) (*Plan, error)

	// GetPlans возвращает список планов.
	GetPlans(ctx context.Context) (*PlanList, error)

	// CreateCustomer создает клиента в шлюзе.
	CreateCustomer(ctx context.Context, req CustomerRequest) (*Customer, error)

	// CreateCard создает карту и прогоняет её через валидационный подпроцесс.
	// Возвращает только маскированные метаданные карты.
	CreateCard(ctx context.Context, customerID string, card CardRequest) (*MaskedCard, error)

	// DeleteCard удаляет токен карты из шлюза.
	DeleteCard(ctx context.Context, customerID, cardID string) error

	// ValidateCard выполняет валидационную транзакцию в 1 сентаво с последующим
	// возвратом. Ошибка возврата логируется и не фатальна.
	ValidateCard(ctx context.Context, customerID, cardID string) error

	// CreatePaymentTransaction создает синхронное списание.
	CreatePaymentTransaction(ctx context.Context, customerID, cardID string, amount int64, description string) (*Charge, error)

	// CreateSubscription создает подписку. Ответ шлюза "у клиента уже есть
	// подписка" трактуется как успех с существующим ресурсом.
	CreateSubscription(ctx context.Context, customerID, planID, cardID string, finalAmount int64, planName string) (*Subscription, error)

	// ActivateSubscription активирует последнюю неотменённую подписку клиента.
	ActivateSubscription(ctx context.Context, customerID string) (*Subscription, error)

	// GetActivePlan возвращает активную подписку клиента или nil.
	GetActivePlan(ctx context.Context, customerID string) (*Subscription, error)
}

// pagarmeClient реализует интерфейс Client поверх REST API.
type pagarmeClient struct {
	cfg        Config
	httpClient *http.Client
	log        *logger.Logger
}

// NewClient создает новый экземпляр клиента Pagar.me.
func NewClient(cfg Config, log *logger.Logger) Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &pagarmeClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// do выполняет запрос к шлюзу с Basic-авторизацией и разбирает ответ.
// Любая транспортная ошибка оборачивается в доменную таксономию.
func (c *pagarmeClient) do(ctx context.Context, operation, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return domain.NewGatewayTransient("failed to encode request", 0, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reqBody)
	if err != nil {
		return domain.NewGatewayTransient("failed to build request", 0, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+basicAuth(c.cfg.APIKey))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logGatewayError(c.log, operation, 0, nil, err)
		return domain.NewGatewayTransient("gateway request failed", 0, err)
	}
	defer resp.Body.Close()

	respData, err := io.ReadAll(resp.Body)
	if err != nil {
		logGatewayError(c.log, operation, resp.StatusCode, nil, err)
		return domain.NewGatewayTransient("failed to read gateway response", resp.StatusCode, err)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if jsonErr := json.Unmarshal(respData, &apiErr); jsonErr != nil {
			logGatewayError(c.log, operation, resp.StatusCode, nil, jsonErr)
			return domain.NewGatewayTransient("unreadable gateway error", resp.StatusCode, jsonErr)
		}
		logGatewayError(c.log, operation, resp.StatusCode, &apiErr, nil)
		return classifyHTTPError(resp.StatusCode, &apiErr, nil)
	}

	if out != nil {
		if err := json.Unmarshal(respData, out); err != nil {
			return domain.NewGatewayTransient("failed to decode gateway response", resp.StatusCode, err)
		}
	}
	return nil
}

func basicAuth(apiKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(apiKey + ":"))
}

// ComputeSubscriptionTotal применяет ценовую политику: годовой план продаётся
// со скидкой 0.5 от месячной ставки, умноженной на 12 месяцев.
func ComputeSubscriptionTotal(monthlyAmount int64, annual bool) int64 {
	if annual {
		return monthlyAmount * 12 / 2
	}
	return monthlyAmount
}

// CreatePlan создает тарифный план в шлюзе.
func (c *pagarmeClient) CreatePlan(ctx context.Context, name string, amount int64, interval string, intervalCount int) (*Plan, error) {
	isAnnual := strings.EqualFold(interval, "year")
	adjustedAmount := ComputeSubscriptionTotal(amount, isAnnual)

	installments := []int{1}
	count := intervalCount
	if isAnnual {
		installments = []int{12}
		count = 12
	}

	payload := map[string]any{
		"name":            name,
		"payment_methods": []string{"credit_card"},
		"installments":    installments,
		"interval":        "month",
		"interval_count":  count,
		"billing_type":    "prepaid",
		"pricing_scheme": map[string]any{
			"price":       adjustedAmount,
			"scheme_type": "unit",
		},
		"quantity": 1,
	}

	var plan Plan
	if err := c.do(ctx, "CreatePlan", http.MethodPost, "/plans", payload, &plan); err != nil {
		return nil, err
	}

	c.log.Infow("Plan created", "planID", plan.ID, "name", name, "annual", isAnnual)
	return &plan, nil
}

// GetPlans возвращает список планов.
func (c *pagarmeClient) GetPlans(ctx context.Context) (*PlanList, error) {
	var plans PlanList
	if err := c.do(ctx, "GetPlans", http.MethodGet, "/plans", nil, &plans); err != nil {
		return nil, err
	}
	return &plans, nil
}

// CreateCustomer создает клиента в шлюзе.
func (c *pagarmeClient) CreateCustomer(ctx context.Context, req CustomerRequest) (*Customer, error) {
	var verrs domain.ValidationErrors
	if req.Name == "" {
		verrs.Add("name", "name is required")
	}
	if req.Email == "" {
		verrs.Add("email", "email is required")
	}
	if req.Document == "" {
		verrs.Add("document", "document is required")
	}
	if len(req.Phone) < 3 {
		verrs.Add("phone", "phone is required")
	}
	if verrs.HasErrors() {
		return nil, verrs
	}

	payload := map[string]any{
		"name":     req.Name,
		"email":    req.Email,
		"type":     "individual",
		"document": req.Document,
		"phones": map[string]any{
			"mobile_phone": map[string]any{
				"country_code": "55",
				"area_code":    req.Phone[:2],
				"number":       req.Phone[2:],
			},
		},
		"billing_address": req.BillingAddress,
	}

	var customer Customer
	if err := c.do(ctx, "CreateCustomer", http.MethodPost, "/customers", payload, &customer); err != nil {
		return nil, err
	}

	c.log.Infow("Gateway customer created", "customerID", customer.ID)
	return &customer, nil
}

// shouldValidate решает, нужна ли карте валидационная транзакция.
func (c *pagarmeClient) shouldValidate(cardNumber string) bool {
	for _, bin := range c.cfg.ValidationBINs {
		if bin == "*" || strings.HasPrefix(cardNumber, bin) {
			return true
		}
	}
	return false
}

// CreateCard создает карту, валидирует её и возвращает маскированные метаданные.
// Компенсация: при провале валидации только что созданный токен карты удаляется
// из шлюза до того, как ошибка уйдёт вызывающему.
func (c *pagarmeClient) CreateCard(ctx context.Context, customerID string, card CardRequest) (*MaskedCard, error) {
	c.log.Debugw("Creating card",
		"customerID", customerID,
		"number", maskCardNumber(card.Number),
		"holder", card.HolderName,
	)

	// Детерминированная имитация отказа эмитента для песочницы
	if c.cfg.DeclineCVVPrefix != "" && strings.HasPrefix(card.CVV, c.cfg.DeclineCVVPrefix) {
		c.log.Infow("Simulating issuer decline by CVV prefix", "customerID", customerID)
		return nil, domain.NewGatewayDeclined("payment declined by card issuer", 0, nil)
	}

	var created MaskedCard
	payload := map[string]any{
		"number":          card.Number,
		"holder_name":     card.HolderName,
		"exp_month":       card.ExpMonth,
		"exp_year":        card.ExpYear,
		"cvv":             card.CVV,
		"billing_address": card.BillingAddress,
	}
	if err := c.do(ctx, "CreateCard", http.MethodPost, "/customers/"+customerID+"/cards", payload, &created); err != nil {
		return nil, err
	}

	if c.shouldValidate(card.Number) {
		if err := c.ValidateCard(ctx, customerID, created.ID); err != nil {
			c.log.Warnw("Card validation failed, deleting card token", "cardID", created.ID, "error", err)
			if delErr := c.DeleteCard(ctx, customerID, created.ID); delErr != nil {
				c.log.Errorw("Failed to delete invalid card token", "cardID", created.ID, "error", delErr)
			}
			return nil, err
		}
		c.log.Debugw("Card validation passed", "cardID", created.ID)
	}

	c.log.Infow("Card created", "cardID", created.ID, "brand", created.Brand, "last4", created.LastFourDigits)
	return &created, nil
}

// DeleteCard удаляет токен карты из шлюза.
func (c *pagarmeClient) DeleteCard(ctx context.Context, customerID, cardID string) error {
	return c.do(ctx, "DeleteCard", http.MethodDelete, "/customers/"+customerID+"/cards/"+cardID, nil, nil)
}

// ValidateCard выполняет списание в 1 сентаво и возвращает его обратно.
func (c *pagarmeClient) ValidateCard(ctx context.Context, customerID, cardID string) error {
	payload := map[string]any{
		"customer_id":          customerID,
		"payment_method":       "credit_card",
		"card_id":              cardID,
		"amount":               validationChargeAmount,
		"description":          "Card validation",
		"capture":              true,
		"statement_descriptor": statementDescriptor,
	}

	var charge Charge
	if err := c.do(ctx, "ValidateCard", http.MethodPost, "/charges", payload, &charge); err != nil {
		return err
	}

	switch charge.Status {
	case "refused":
		reason := "unknown reason"
		if charge.LastTransaction != nil && charge.LastTransaction.AcquirerMessage != "" {
			reason = charge.LastTransaction.AcquirerMessage
		}
		return domain.NewGatewayDeclined("card refused: "+reason, 0, nil)
	case "paid":
		// Возврат валидационного списания. Провал возврата не фатален:
		// шлюз доведёт его при ручном повторе.
		if err := c.do(ctx, "RefundValidationCharge", http.MethodPost, "/charges/"+charge.ID+"/refunds", map[string]any{}, nil); err != nil {
			c.log.Errorw("Failed to refund validation charge (non-critical)", "chargeID", charge.ID, "error", err)
		}
		return nil
	default:
		return domain.NewGatewayTransient("card validation returned status "+charge.Status, 0, nil)
	}
}

// CreatePaymentTransaction создает синхронное списание.
func (c *pagarmeClient) CreatePaymentTransaction(ctx context.Context, customerID, cardID string, amount int64, description string) (*Charge, error) {
	payload := map[string]any{
		"customer_id":          customerID,
		"payment_method":       "credit_card",
		"card_id":              cardID,
		"amount":               amount,
		"description":          "Pagamento para " + description,
		"capture":              true,
		"statement_descriptor": statementDescriptor,
	}

	var charge Charge
	if err := c.do(ctx, "CreatePaymentTransaction", http.MethodPost, "/charges", payload, &charge); err != nil {
		return nil, err
	}

	c.log.Infow("Charge created", "chargeID", charge.ID, "status", charge.Status, "amount", charge.Amount)

	switch charge.Status {
	case "paid":
		return &charge, nil
	case "refused":
		reason := "unknown reason"
		if charge.LastTransaction != nil && charge.LastTransaction.AcquirerMessage != "" {
			reason = charge.LastTransaction.AcquirerMessage
		}
		return nil, domain.NewGatewayDeclined("payment refused: "+reason, 0, nil)
	case "pending", "processing", "analyzing":
		return nil, domain.NewGatewayTransient("payment is still being processed, status "+charge.Status, 0, nil)
	default:
		return nil, domain.NewGatewayDeclined("payment not approved, status "+charge.Status, 0, nil)
	}
}

// CreateSubscription создает подписку в шлюзе.
func (c *pagarmeClient) CreateSubscription(ctx context.Context, customerID, planID, cardID string, finalAmount int64, planName string) (*Subscription, error) {
	var verrs domain.ValidationErrors
	if planID == "" {
		verrs.Add("planId", "planId is required")
	}
	if finalAmount <= 0 {
		verrs.Add("finalAmount", "finalAmount must be positive")
	}
	if verrs.HasErrors() {
		return nil, verrs
	}

	isAnnual := domain.IsAnnualPlanName(planName)
	totalAmount := ComputeSubscriptionTotal(finalAmount, isAnnual)

	intervalLabel := "Mensal"
	intervalCount := 1
	if isAnnual {
		intervalLabel = "Anual"
		intervalCount = 12
	}

	payload := map[string]any{
		"customer_id":    customerID,
		"plan_id":        planID,
		"payment_method": "credit_card",
		"card_id":        cardID,
		"metadata": map[string]string{
			"plan_name":     planName,
			"plan_interval": intervalLabel,
		},
		"interval":       "month",
		"interval_count": intervalCount,
	}

	var sub Subscription
	if err := c.do(ctx, "CreateSubscription", http.MethodPost, "/subscriptions", payload, &sub); err != nil {
		// "У клиента уже есть подписка" — успех с существующим ресурсом
		if isAlreadySubscribedError(err) {
			c.log.Infow("Customer already has a subscription, returning existing one", "customerID", customerID)
			existing, lookupErr := c.newestNonCanceledSubscription(ctx, customerID)
			if lookupErr != nil {
				return nil, lookupErr
			}
			existing.AlreadyExisted = true
			existing.TotalAmount = totalAmount
			return existing, nil
		}
		return nil, err
	}

	switch sub.Status {
	case "paid", "active", "trialing":
		sub.TotalAmount = totalAmount
		c.log.Infow("Subscription created", "subscriptionID", sub.ID, "status", sub.Status, "total", totalAmount)
		return &sub, nil
	default:
		return nil, domain.NewGatewayTransient("subscription created but not active, status "+sub.Status, 0, nil)
	}
}

// isAlreadySubscribedError распознаёт ответ-конфликт шлюза.
func isAlreadySubscribedError(err error) bool {
	return errors.Is(err, domain.ErrGatewayConflict)
}

// newestNonCanceledSubscription находит последнюю неотменённую подписку клиента.
func (c *pagarmeClient) newestNonCanceledSubscription(ctx context.Context, customerID string) (*Subscription, error) {
	var list SubscriptionList
	if err := c.do(ctx, "ListSubscriptions", http.MethodGet, "/customers/"+customerID+"/subscriptions", nil, &list); err != nil {
		return nil, err
	}

	candidates := make([]Subscription, 0, len(list.Data))
	for _, sub := range list.Data {
		if sub.Status != "canceled" {
			candidates = append(candidates, sub)
		}
	}
	if len(candidates) == 0 {
		return nil, domain.NewNotFoundError("subscription", customerID)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CreatedAt.After(candidates[j].CreatedAt)
	})
	return &candidates[0], nil
}

// ActivateSubscription активирует последнюю неотменённую подписку клиента.
func (c *pagarmeClient) ActivateSubscription(ctx context.Context, customerID string) (*Subscription, error) {
	pending, err := c.newestNonCanceledSubscription(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if pending.Status == "active" {
		c.log.Infow("Subscription already active", "subscriptionID", pending.ID)
		return pending, nil
	}

	var activated Subscription
	path := fmt.Sprintf("/subscriptions/%s/activate", pending.ID)
	if err := c.do(ctx, "ActivateSubscription", http.MethodPost, path, map[string]any{}, &activated); err != nil {
		return nil, err
	}

	c.log.Infow("Subscription activated", "subscriptionID", activated.ID)
	return &activated, nil
}

// GetActivePlan возвращает активную подписку клиента или nil.
func (c *pagarmeClient) GetActivePlan(ctx context.Context, customerID string) (*Subscription, error) {
	var list SubscriptionList
	if err := c.do(ctx, "GetActivePlan", http.MethodGet, "/customers/"+customerID+"/subscriptions", nil, &list); err != nil {
		return nil, err
	}

	for i := range list.Data {
		if list.Data[i].Status == "active" {
			return &list.Data[i], nil
		}
	}
	return nil, nil
}

// maskCardNumber маскирует номер карты для логов.
func maskCardNumber(number string) string {
	if len(number) < 10 {
		return "******"
	}
	return number[:6] + "******" + number[len(number)-4:]
}
