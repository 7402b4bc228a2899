package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL срок жизни токена плана.
const DefaultTTL = 24 * time.Hour

// PlanToken одноразовая ссылка на данные тарифного плана, создаваемая на
// время прохождения пользователем оплаты.
type PlanToken struct {
	ID        string    `json:"id"`
	PlanID    string    `json:"plan_id"`
	Name      string    `json:"name"`
	Amount    int64     `json:"amount"`
	Interval  string    `json:"interval"`
	CreatedAt time.Time `json:"created_at"`
}

// Store хранилище токенов планов с ограниченным сроком жизни.
type Store interface {
	// Put сохраняет данные плана и возвращает идентификатор токена.
	Put(ctx context.Context, token PlanToken) (string, error)

	// Get возвращает токен по идентификатору или ErrTokenNotFound.
	Get(ctx context.Context, id string) (*PlanToken, error)

	// Delete удаляет токен.
	Delete(ctx context.Context, id string) error
}

// ErrTokenNotFound токен не найден или истёк.
var ErrTokenNotFound = fmt.Errorf("plan token not found")

// newTokenID собирает идентификатор токена из идентификатора плана и
// случайного суффикса.
func newTokenID(planID string) string {
	return fmt.Sprintf("%s-%s", planID, uuid.NewString())
}
