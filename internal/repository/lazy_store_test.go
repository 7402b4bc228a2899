package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLazyUserStoreConnectsOnce(t *testing.T) {
	log := logger.New(logger.ERROR)
	backend := NewInMemoryUserStore(log)
	connects := 0

	lazy := NewLazyUserStore("secondary", func(ctx context.Context) (UserStore, error) {
		connects++
		return backend, nil
	}, log)

	ctx := context.Background()
	_, err := lazy.Insert(ctx, &domain.User{Email: "a@e.com"})
	require.NoError(t, err)
	_, err = lazy.Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, connects)
}

func TestLazyUserStoreThrottlesReconnects(t *testing.T) {
	log := logger.New(logger.ERROR)
	connects := 0

	lazy := NewLazyUserStore("secondary", func(ctx context.Context) (UserStore, error) {
		connects++
		return nil, errors.New("connection refused")
	}, log)

	ctx := context.Background()
	_, err := lazy.Count(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)

	// Повторный вызов внутри минимального интервала не дёргает базу
	_, err = lazy.Count(ctx)
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Equal(t, 1, connects)
}

func TestLazyUserStoreRetriesAfterInterval(t *testing.T) {
	log := logger.New(logger.ERROR)
	backend := NewInMemoryUserStore(log)
	connects := 0

	lazy := NewLazyUserStore("secondary", func(ctx context.Context) (UserStore, error) {
		connects++
		if connects == 1 {
			return nil, errors.New("connection refused")
		}
		return backend, nil
	}, log)
	lazy.retryEvery = 0

	ctx := context.Background()
	_, err := lazy.Count(ctx)
	require.Error(t, err)

	count, err := lazy.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Equal(t, 2, connects)
}
