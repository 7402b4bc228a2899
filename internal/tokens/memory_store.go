package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
)

const cleanupInterval = time.Hour

// MemoryStore хранит токены планов в памяти процесса. Истёкшие токены
// вычищаются фоновой горутиной раз в час и лениво при чтении.
type MemoryStore struct {
	ttl    time.Duration
	log    *logger.Logger
	mutex  sync.RWMutex
	tokens map[string]PlanToken
	done   chan struct{}
	once   sync.Once
}

// NewMemoryStore создает хранилище токенов в памяти и запускает фоновую
// очистку.
func NewMemoryStore(ttl time.Duration, log *logger.Logger) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &MemoryStore{
		ttl:    ttl,
		log:    log,
		tokens: make(map[string]PlanToken),
		done:   make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

// Close останавливает фоновую очистку.
func (s *MemoryStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

func (s *MemoryStore) removeExpired() {
	cutoff := time.Now().Add(-s.ttl)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	removed := 0
	for id, token := range s.tokens {
		if token.CreatedAt.Before(cutoff) {
			delete(s.tokens, id)
			removed++
		}
	}
	if removed > 0 {
		s.log.Debugw("Expired plan tokens removed", "count", removed)
	}
}

// Put сохраняет данные плана и возвращает идентификатор токена.
func (s *MemoryStore) Put(ctx context.Context, token PlanToken) (string, error) {
	if token.ID == "" {
		token.ID = newTokenID(token.PlanID)
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	s.mutex.Lock()
	s.tokens[token.ID] = token
	s.mutex.Unlock()

	return token.ID, nil
}

// Get возвращает токен по идентификатору. Истёкший токен считается
// отсутствующим.
func (s *MemoryStore) Get(ctx context.Context, id string) (*PlanToken, error) {
	s.mutex.RLock()
	token, exists := s.tokens[id]
	s.mutex.RUnlock()

	if !exists {
		return nil, ErrTokenNotFound
	}
	if time.Since(token.CreatedAt) > s.ttl {
		s.mutex.Lock()
		delete(s.tokens, id)
		s.mutex.Unlock()
		return nil, ErrTokenNotFound
	}
	return &token, nil
}

// Delete удаляет токен.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mutex.Lock()
	delete(s.tokens, id)
	s.mutex.Unlock()
	return nil
}
