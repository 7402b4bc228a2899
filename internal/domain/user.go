package domain

import (
	"strings"
	"time"
)

// SubscriptionStatus статус подписки во внутренней системе
type SubscriptionStatus string

const (
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
	SubscriptionStatusPaid     SubscriptionStatus = "paid"
	SubscriptionStatusUnpaid   SubscriptionStatus = "unpaid"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
	SubscriptionStatusExpired  SubscriptionStatus = "expired"
)

// PlanInterval период тарифного плана
type PlanInterval string

const (
	PlanIntervalMonth PlanInterval = "month"
	PlanIntervalYear  PlanInterval = "year"
)

// User представляет собой запись пользователя с полями подписки.
// Запись дублируется в основной и вторичной базах; вторичная авторитетна
// для биллинговых полей.
type User struct {
	ID    string `bson:"_id,omitempty" json:"id"`
	Name  string `bson:"name,omitempty" json:"name,omitempty"`
	Email string `bson:"email" json:"email"`

	// AuthToken никогда не возвращается наружу
	AuthToken string `bson:"auth_token,omitempty" json:"-"`

	SubscriptionID     string             `bson:"subscription_id,omitempty" json:"subscription_id,omitempty"`
	SubscriptionStatus SubscriptionStatus `bson:"subscription_status,omitempty" json:"subscription_status,omitempty"`
	Plan               int                `bson:"plan,omitempty" json:"plan,omitempty"`
	PlanID             string             `bson:"plan_id,omitempty" json:"plan_id,omitempty"`
	PlanName           string             `bson:"plan_name,omitempty" json:"plan_name,omitempty"`
	PlanInterval       PlanInterval       `bson:"plan_interval,omitempty" json:"plan_interval,omitempty"`
	PlanDescription    string             `bson:"plan_description,omitempty" json:"plan_description,omitempty"`
	SubscriptionPrice  int64              `bson:"subscription_price,omitempty" json:"subscription_price,omitempty"`

	SubscriptionCreatedAt *time.Time `bson:"subscription_created_at,omitempty" json:"subscription_created_at,omitempty"`
	SubscriptionExpiresAt *time.Time `bson:"subscription_expires_at,omitempty" json:"subscription_expires_at,omitempty"`
	LastPaymentDate       *time.Time `bson:"last_payment_date,omitempty" json:"last_payment_date,omitempty"`
	NextPaymentDate       *time.Time `bson:"next_payment_date,omitempty" json:"next_payment_date,omitempty"`

	CreatedAt time.Time `bson:"created_at,omitempty" json:"created_at,omitempty"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updated_at,omitempty"`
}

// SubscriptionDetails детали подписки пользователя, отдаваемые наружу.
type SubscriptionDetails struct {
	SubscriptionID     string             `json:"subscription_id,omitempty"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status,omitempty"`
	Plan               int                `json:"plan,omitempty"`
	PlanID             string             `json:"plan_id,omitempty"`
	PlanName           string             `json:"plan_name,omitempty"`
	PlanInterval       PlanInterval       `json:"plan_interval,omitempty"`
	SubscriptionPrice  int64              `json:"subscription_price,omitempty"`
	CreatedAt          *time.Time         `json:"created_at,omitempty"`
	ExpiresAt          *time.Time         `json:"expires_at,omitempty"`
	LastPaymentDate    *time.Time         `json:"last_payment_date,omitempty"`
	NextPaymentDate    *time.Time         `json:"next_payment_date,omitempty"`
}

// Details извлекает детали подписки из записи пользователя.
func (u *User) Details() SubscriptionDetails {
	return SubscriptionDetails{
		SubscriptionID:     u.SubscriptionID,
		SubscriptionStatus: u.SubscriptionStatus,
		Plan:               u.Plan,
		PlanID:             u.PlanID,
		PlanName:           u.PlanName,
		PlanInterval:       u.PlanInterval,
		SubscriptionPrice:  u.SubscriptionPrice,
		CreatedAt:          u.SubscriptionCreatedAt,
		ExpiresAt:          u.SubscriptionExpiresAt,
		LastPaymentDate:    u.LastPaymentDate,
		NextPaymentDate:    u.NextPaymentDate,
	}
}

// SubscriptionUpdate набор полей подписки для частичного обновления записи.
// Нулевые указатели означают "поле не трогать" (семантика $set).
type SubscriptionUpdate struct {
	SubscriptionID  *string
	AuthToken       *string
	Status          *SubscriptionStatus
	Plan            *int
	PlanID          *string
	PlanName        *string
	PlanInterval    *PlanInterval
	PlanDescription *string
	Price           *int64
	CreatedAt       *time.Time
	ExpiresAt       *time.Time
	LastPaymentDate *time.Time
	NextPaymentDate *time.Time
	UpdatedAt       time.Time
}

// Apply накладывает обновление на запись пользователя.
func (su *SubscriptionUpdate) Apply(u *User) {
	if su.SubscriptionID != nil {
		u.SubscriptionID = *su.SubscriptionID
	}
	if su.AuthToken != nil {
		u.AuthToken = *su.AuthToken
	}
	if su.Status != nil {
		u.SubscriptionStatus = *su.Status
	}
	if su.Plan != nil {
		u.Plan = *su.Plan
	}
	if su.PlanID != nil {
		u.PlanID = *su.PlanID
	}
	if su.PlanName != nil {
		u.PlanName = *su.PlanName
	}
	if su.PlanInterval != nil {
		u.PlanInterval = *su.PlanInterval
	}
	if su.PlanDescription != nil {
		u.PlanDescription = *su.PlanDescription
	}
	if su.Price != nil {
		u.SubscriptionPrice = *su.Price
	}
	if su.CreatedAt != nil {
		u.SubscriptionCreatedAt = su.CreatedAt
	}
	if su.ExpiresAt != nil {
		u.SubscriptionExpiresAt = su.ExpiresAt
	}
	if su.LastPaymentDate != nil {
		u.LastPaymentDate = su.LastPaymentDate
	}
	if su.NextPaymentDate != nil {
		u.NextPaymentDate = su.NextPaymentDate
	}
	if !su.UpdatedAt.IsZero() {
		u.UpdatedAt = su.UpdatedAt
	}
}

// MapGatewayStatus отображает словарь статусов платёжного шлюза на внутренний.
func MapGatewayStatus(gatewayStatus string) SubscriptionStatus {
	switch strings.ToLower(gatewayStatus) {
	case "paid", "active":
		return SubscriptionStatusPaid
	case "unpaid", "pending":
		return SubscriptionStatusUnpaid
	case "canceled":
		return SubscriptionStatusCanceled
	case "ended", "expired":
		return SubscriptionStatusExpired
	default:
		return SubscriptionStatusInactive
	}
}

// IsAnnualPlanName определяет годовой тариф по названию плана.
func IsAnnualPlanName(planName string) bool {
	return strings.Contains(strings.ToLower(planName), "anual")
}

// MapPlanNameToNumber отображает название плана на внутренний номер тарифа.
// Возвращает 0, если название не распознано.
func MapPlanNameToNumber(planName string) int {
	name := strings.ToLower(planName)
	switch {
	case strings.Contains(name, "iniciante"):
		return 1
	case strings.Contains(name, "especialista"):
		return 2
	case strings.Contains(name, "pro"):
		return 3
	default:
		return 0
	}
}
