package tokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const tokenKeyPrefix = "plan_token:"

// RedisStore хранит токены планов в Redis с TTL на уровне ключа.
// Используется при нескольких экземплярах сервиса, когда токен должен
// переживать рестарт процесса.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisStore создает хранилище токенов поверх Redis и проверяет соединение.
func NewRedisStore(addr, password string, db int, ttl time.Duration, log *logger.Logger) (*RedisStore, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", addr)
	return &RedisStore{client: client, ttl: ttl, log: log}, nil
}

// Close закрывает соединение с Redis.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Put сохраняет данные плана и возвращает идентификатор токена.
func (s *RedisStore) Put(ctx context.Context, token PlanToken) (string, error) {
	if token.ID == "" {
		token.ID = newTokenID(token.PlanID)
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	data, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("failed to marshal plan token: %w", err)
	}

	key := tokenKeyPrefix + token.ID
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.log.Errorw("Failed to store plan token in Redis", "error", err, "tokenID", token.ID)
		return "", fmt.Errorf("failed to store plan token: %w", err)
	}

	s.log.Debugw("Plan token stored", "tokenID", token.ID)
	return token.ID, nil
}

// Get возвращает токен по идентификатору или ErrTokenNotFound.
func (s *RedisStore) Get(ctx context.Context, id string) (*PlanToken, error) {
	data, err := s.client.Get(ctx, tokenKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenNotFound
		}
		s.log.Errorw("Error getting plan token from Redis", "error", err, "tokenID", id)
		return nil, fmt.Errorf("failed to get plan token: %w", err)
	}

	var token PlanToken
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan token: %w", err)
	}
	return &token, nil
}

// Delete удаляет токен.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, tokenKeyPrefix+id).Err(); err != nil {
		s.log.Errorw("Failed to delete plan token from Redis", "error", err, "tokenID", id)
		return fmt.Errorf("failed to delete plan token: %w", err)
	}
	return nil
}
