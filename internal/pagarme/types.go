package pagarme

import "time"

// BillingAddress платёжный адрес в формате Pagar.me.
type BillingAddress struct {
	Line1   string `json:"line_1,omitempty"`
	Line2   string `json:"line_2,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// CustomerRequest данные для создания клиента в шлюзе.
type CustomerRequest struct {
	Name           string         `json:"name"`
	Email          string         `json:"email"`
	Document       string         `json:"document"`
	Phone          string         `json:"phone"`
	BillingAddress BillingAddress `json:"billing_address"`
}

// Customer клиент платёжного шлюза.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CardRequest данные карты. Никогда не логируются целиком.
type CardRequest struct {
	Number         string         `json:"number"`
	HolderName     string         `json:"holder_name"`
	ExpMonth       int            `json:"exp_month"`
	ExpYear        int            `json:"exp_year"`
	CVV            string         `json:"cvv"`
	BillingAddress BillingAddress `json:"billing_address"`
}

// MaskedCard метаданные созданной карты. Сырые данные карты не возвращаются.
type MaskedCard struct {
	ID             string `json:"id"`
	Brand          string `json:"brand"`
	LastFourDigits string `json:"last_four_digits"`
}

// Plan тарифный план в шлюзе.
type Plan struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Interval      string    `json:"interval"`
	IntervalCount int       `json:"interval_count"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
}

// PlanList ответ шлюза на список планов.
type PlanList struct {
	Data []Plan `json:"data"`
}

// LastTransaction детали последней транзакции внутри charge.
type LastTransaction struct {
	AcquirerMessage string `json:"acquirer_message,omitempty"`
	Message         string `json:"message,omitempty"`
}

// Charge синхронная транзакция (списание) в шлюзе.
type Charge struct {
	ID              string           `json:"id"`
	Status          string           `json:"status"`
	Amount          int64            `json:"amount"`
	CreatedAt       time.Time        `json:"created_at"`
	LastTransaction *LastTransaction `json:"last_transaction,omitempty"`
}

// Subscription подписка в шлюзе.
type Subscription struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	PlanID    string    `json:"plan_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// TotalAmount итоговая цена, рассчитанная нашей ценовой политикой
	TotalAmount int64 `json:"total_amount,omitempty"`
	// AlreadyExisted true, если шлюз ответил "у клиента уже есть подписка"
	AlreadyExisted bool `json:"already_existed,omitempty"`
}

// SubscriptionList ответ шлюза на список подписок клиента.
type SubscriptionList struct {
	Data []Subscription `json:"data"`
}

// apiError тело ошибки Pagar.me.
type apiError struct {
	Message         string           `json:"message,omitempty"`
	RefuseReason    string           `json:"refuse_reason,omitempty"`
	LastTransaction *LastTransaction `json:"last_transaction,omitempty"`
	Errors          []struct {
		Message string `json:"message"`
	} `json:"errors,omitempty"`
}
