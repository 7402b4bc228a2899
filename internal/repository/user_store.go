package repository

import (
	"context"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
)

// UserStore определяет операции над записями пользователей в одной базе.
// Реализации: MongoDB (основная и вторичная базы) и in-memory (тесты).
type UserStore interface {
	// FindByID ищет пользователя по идентификатору.
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// FindByEmail ищет пользователя по email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindBySubscriptionID ищет пользователя по идентификатору подписки шлюза.
	// Это ключ связывания для всех обновлений, инициированных вебхуками.
	FindBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.User, error)

	// Count возвращает количество пользователей в базе.
	Count(ctx context.Context) (int64, error)

	// FindAny возвращает произвольного пользователя (fallback-стратегия поиска).
	FindAny(ctx context.Context) (*domain.User, error)

	// Insert вставляет нового пользователя, возвращая назначенный идентификатор.
	Insert(ctx context.Context, user *domain.User) (string, error)

	// UpdateByID применяет частичное обновление по идентификатору пользователя
	// и возвращает обновлённую запись.
	UpdateByID(ctx context.Context, id string, update domain.SubscriptionUpdate) (*domain.User, error)

	// UpdateBySubscriptionID применяет частичное обновление по идентификатору
	// подписки и возвращает обновлённую запись.
	UpdateBySubscriptionID(ctx context.Context, subscriptionID string, update domain.SubscriptionUpdate) (*domain.User, error)

	// FindExpired возвращает пользователей со статусом paid и датой истечения
	// раньше переданного момента.
	FindExpired(ctx context.Context, now time.Time) ([]domain.User, error)
}
