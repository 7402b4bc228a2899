package repository

import (
	"context"
	"sync"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/google/uuid"
)

// InMemoryUserStore реализация хранилища пользователей в памяти.
// Используется в тестах и при локальной разработке без MongoDB.
type InMemoryUserStore struct {
	users map[string]domain.User
	mutex sync.RWMutex
	log   *logger.Logger
}

// NewInMemoryUserStore создает новое хранилище пользователей в памяти.
func NewInMemoryUserStore(log *logger.Logger) *InMemoryUserStore {
	return &InMemoryUserStore{
		users: make(map[string]domain.User),
		log:   log,
	}
}

// FindByID ищет пользователя по идентификатору.
func (s *InMemoryUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, domain.NewNotFoundError("user", id)
	}
	copied := user
	return &copied, nil
}

// FindByEmail ищет пользователя по email.
func (s *InMemoryUserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			copied := user
			return &copied, nil
		}
	}
	return nil, domain.NewNotFoundError("user", email)
}

// FindBySubscriptionID ищет пользователя по идентификатору подписки.
func (s *InMemoryUserStore) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, user := range s.users {
		if user.SubscriptionID == subscriptionID {
			copied := user
			return &copied, nil
		}
	}
	return nil, domain.NewNotFoundError("user", subscriptionID)
}

// Count возвращает количество пользователей.
func (s *InMemoryUserStore) Count(ctx context.Context) (int64, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return int64(len(s.users)), nil
}

// FindAny возвращает произвольного пользователя.
func (s *InMemoryUserStore) FindAny(ctx context.Context) (*domain.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for _, user := range s.users {
		copied := user
		return &copied, nil
	}
	return nil, domain.ErrRecordNotFound
}

// Insert вставляет нового пользователя.
func (s *InMemoryUserStore) Insert(ctx context.Context, user *domain.User) (string, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	s.users[user.ID] = *user
	return user.ID, nil
}

// UpdateByID применяет частичное обновление по идентификатору пользователя.
func (s *InMemoryUserStore) UpdateByID(ctx context.Context, id string, update domain.SubscriptionUpdate) (*domain.User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	user, exists := s.users[id]
	if !exists {
		return nil, domain.NewNotFoundError("user", id)
	}
	update.Apply(&user)
	s.users[id] = user
	copied := user
	return &copied, nil
}

// UpdateBySubscriptionID применяет частичное обновление по идентификатору подписки.
func (s *InMemoryUserStore) UpdateBySubscriptionID(ctx context.Context, subscriptionID string, update domain.SubscriptionUpdate) (*domain.User, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for id, user := range s.users {
		if user.SubscriptionID == subscriptionID {
			update.Apply(&user)
			s.users[id] = user
			copied := user
			return &copied, nil
		}
	}
	return nil, domain.NewNotFoundError("user", subscriptionID)
}

// FindExpired возвращает пользователей с оплаченной, но истёкшей подпиской.
func (s *InMemoryUserStore) FindExpired(ctx context.Context, now time.Time) ([]domain.User, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var expired []domain.User
	for _, user := range s.users {
		if user.SubscriptionStatus == domain.SubscriptionStatusPaid &&
			user.SubscriptionExpiresAt != nil &&
			user.SubscriptionExpiresAt.Before(now) {
			expired = append(expired, user)
		}
	}
	return expired, nil
}
