package pending

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) (*FileStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewFileStore(dir, logger.New(logger.ERROR))
	require.NoError(t, err)
	return store, dir
}

func TestFileStoreSaveAndList(t *testing.T) {
	store, _ := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.PendingSubscription{
		SubscriptionID: "sub_1",
		PlanID:         "plan_1",
		PlanName:       "Plano Pro",
		CustomerEmail:  "u@e.com",
	}))

	intents, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, intents, 1)
	assert.Equal(t, "sub_1", intents[0].SubscriptionID)
	assert.False(t, intents[0].Timestamp.IsZero())
}

func TestFileStoreArchiveMovesFile(t *testing.T) {
	store, dir := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.PendingSubscription{SubscriptionID: "sub_1", PlanID: "plan_1"}))
	require.NoError(t, store.Archive(ctx, "sub_1"))

	intents, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, intents)

	// Файл перенесён, а не удалён
	_, err = os.Stat(filepath.Join(dir, processedDirName, "sub_1.json"))
	assert.NoError(t, err)
}

func TestFileStoreListSkipsCorruptFiles(t *testing.T) {
	store, dir := newTestFileStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.PendingSubscription{SubscriptionID: "sub_1", PlanID: "plan_1"}))
	require.NoError(t, os.WriteFile(filepath.Join(dir, pendingDirName, "broken.json"), []byte("{"), 0o644))

	intents, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, intents, 1)
}

func TestFileStoreArchiveMissing(t *testing.T) {
	store, _ := newTestFileStore(t)

	err := store.Archive(context.Background(), "sub_ghost")
	assert.Error(t, err)
}
