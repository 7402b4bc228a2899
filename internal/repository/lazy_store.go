package repository

import (
	"context"
	"sync"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewRecordID генерирует новый идентификатор записи пользователя.
func NewRecordID() string {
	return primitive.NewObjectID().Hex()
}

// LazyUserStore откладывает подключение к базе до первого обращения и
// переподключается при следующем вызове после сбоя. Между неудачными
// попытками выдерживается минимальный интервал, чтобы не молотить
// недоступную базу на каждом запросе.
type LazyUserStore struct {
	connect func(ctx context.Context) (UserStore, error)
	name    string
	log     *logger.Logger

	mu          sync.Mutex
	store       UserStore
	lastAttempt time.Time
	retryEvery  time.Duration
}

// NewLazyUserStore создает ленивое хранилище поверх функции подключения.
func NewLazyUserStore(name string, connect func(ctx context.Context) (UserStore, error), log *logger.Logger) *LazyUserStore {
	return &LazyUserStore{
		connect:    connect,
		name:       name,
		log:        log,
		retryEvery: 15 * time.Second,
	}
}

// get возвращает подключённое хранилище, подключаясь при необходимости.
func (l *LazyUserStore) get(ctx context.Context) (UserStore, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		return l.store, nil
	}
	if !l.lastAttempt.IsZero() && time.Since(l.lastAttempt) < l.retryEvery {
		return nil, domain.NewStoreError(l.name, "connect", domain.ErrStoreUnavailable)
	}

	l.lastAttempt = time.Now()
	store, err := l.connect(ctx)
	if err != nil {
		l.log.Errorw("Failed to connect to store", "store", l.name, "error", err)
		return nil, domain.NewStoreError(l.name, "connect", err)
	}

	l.log.Infow("Store connection established", "store", l.name)
	l.store = store
	return store, nil
}

// FindByID ищет пользователя по идентификатору.
func (l *LazyUserStore) FindByID(ctx context.Context, id string) (*domain.User, error) {
	store, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return store.FindByID(ctx, id)
}

// FindByEmail ищет пользователя по email.
func (l *LazyUserStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	store, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return store.FindByEmail(ctx, email)
}

// FindBySubscriptionID ищет пользователя по идентификатору подписки.
func (l *LazyUserStore) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.User, error) {
	store, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return store.FindBySubscriptionID(ctx, subscriptionID)
}

// Count возвращает количество пользователей.
func (l *LazyUserStore) Count(ctx context.Context) (int64, error) {
	store, err := l.get(ctx)
	if err != nil {
		return 0, err
	}
	return store.Count(ctx)
}

// FindAny возвращает произвольного пользователя.
func (l *LazyUserStore) FindAny(ctx context.Context) (*domain.User, error) {
	store, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return store.FindAny(ctx)
}

// Insert вставляет нового пользователя.
func (l *LazyUserStore) Insert(ctx context.Context, user *domain.User) (string, error) {
	store, err := l.get(ctx)
	if err != nil {
		return "", err
	}
	return store.Insert(ctx, user)
}

// UpdateByID применяет частичное обновление по идентификатору пользователя.
func (l *LazyUserStore) UpdateByID(ctx context.Context, id string, update domain.SubscriptionUpdate) (*domain.User, error) {
	store, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return store.UpdateByID(ctx, id, update)
}

// UpdateBySubscriptionID применяет частичное обновление по идентификатору подписки.
func (l *LazyUserStore) UpdateBySubscriptionID(ctx context.Context, subscriptionID string, update domain.SubscriptionUpdate) (*domain.User, error) {
	store, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return store.UpdateBySubscriptionID(ctx, subscriptionID, update)
}

// FindExpired возвращает пользователей с оплаченной, но истёкшей подпиской.
func (l *LazyUserStore) FindExpired(ctx context.Context, now time.Time) ([]domain.User, error) {
	store, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return store.FindExpired(ctx, now)
}
