package tokens

import (
	"context"
	"testing"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, ttl time.Duration) *MemoryStore {
	t.Helper()
	store := NewMemoryStore(ttl, logger.New(logger.ERROR))
	t.Cleanup(store.Close)
	return store
}

func TestMemoryStorePutGet(t *testing.T) {
	store := newTestStore(t, time.Hour)
	ctx := context.Background()

	id, err := store.Put(ctx, PlanToken{PlanID: "plan_1", Name: "Plano Pro", Amount: 9900, Interval: "month"})
	require.NoError(t, err)
	assert.Contains(t, id, "plan_1-")

	token, err := store.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "plan_1", token.PlanID)
	assert.Equal(t, int64(9900), token.Amount)
}

func TestMemoryStoreExpiredTokenIsGone(t *testing.T) {
	store := newTestStore(t, time.Hour)
	ctx := context.Background()

	id, err := store.Put(ctx, PlanToken{
		PlanID:    "plan_1",
		CreatedAt: time.Now().Add(-2 * time.Hour),
	})
	require.NoError(t, err)

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMemoryStoreDelete(t *testing.T) {
	store := newTestStore(t, time.Hour)
	ctx := context.Background()

	id, err := store.Put(ctx, PlanToken{PlanID: "plan_1"})
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, id))

	_, err = store.Get(ctx, id)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMemoryStoreRemoveExpired(t *testing.T) {
	store := newTestStore(t, time.Hour)
	ctx := context.Background()

	stale, err := store.Put(ctx, PlanToken{PlanID: "old", CreatedAt: time.Now().Add(-2 * time.Hour)})
	require.NoError(t, err)
	fresh, err := store.Put(ctx, PlanToken{PlanID: "new"})
	require.NoError(t, err)

	store.removeExpired()

	_, err = store.Get(ctx, stale)
	assert.ErrorIs(t, err, ErrTokenNotFound)
	_, err = store.Get(ctx, fresh)
	assert.NoError(t, err)
}
