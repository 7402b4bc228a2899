package domain

import "time"

// PendingSubscription представляет подписку, созданную шлюзом до появления
// локального пользователя (checkout начат до регистрации). Хранится как
// долговременная запись и позже связывается с пользователем по email.
type PendingSubscription struct {
	SubscriptionID string    `json:"subscriptionId"`
	PlanID         string    `json:"planId"`
	PlanName       string    `json:"planName"`
	CustomerEmail  string    `json:"customerEmail"`
	CustomerName   string    `json:"customerName"`
	Timestamp      time.Time `json:"timestamp"`
}
