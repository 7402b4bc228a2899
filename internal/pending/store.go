package pending

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
)

const (
	pendingDirName   = "pending_subscriptions"
	processedDirName = "processed_subscriptions"
)

// FileStore хранит намерения привязки подписок в JSON-файлах на диске.
// Обработанные намерения не удаляются, а переносятся в отдельный каталог.
type FileStore struct {
	pendingDir   string
	processedDir string
	log          *logger.Logger
}

// NewFileStore создает файловое хранилище намерений под каталогом dataDir.
func NewFileStore(dataDir string, log *logger.Logger) (*FileStore, error) {
	s := &FileStore{
		pendingDir:   filepath.Join(dataDir, pendingDirName),
		processedDir: filepath.Join(dataDir, processedDirName),
		log:          log,
	}
	for _, dir := range []string{s.pendingDir, s.processedDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return s, nil
}

// fileName собирает имя файла намерения из идентификатора подписки.
func (s *FileStore) fileName(subscriptionID string) string {
	return fmt.Sprintf("%s.json", subscriptionID)
}

// Save записывает намерение в каталог ожидающих.
func (s *FileStore) Save(ctx context.Context, intent domain.PendingSubscription) error {
	if intent.Timestamp.IsZero() {
		intent.Timestamp = time.Now()
	}

	data, err := json.MarshalIndent(intent, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal pending subscription: %w", err)
	}

	path := filepath.Join(s.pendingDir, s.fileName(intent.SubscriptionID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		s.log.Errorw("Failed to save pending subscription", "subscriptionID", intent.SubscriptionID, "error", err)
		return fmt.Errorf("failed to save pending subscription: %w", err)
	}

	s.log.Infow("Pending subscription saved", "subscriptionID", intent.SubscriptionID, "email", intent.CustomerEmail)
	return nil
}

// List возвращает все ожидающие намерения. Нечитаемые файлы пропускаются
// с предупреждением в логе.
func (s *FileStore) List(ctx context.Context) ([]domain.PendingSubscription, error) {
	entries, err := os.ReadDir(s.pendingDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read pending directory: %w", err)
	}

	var intents []domain.PendingSubscription
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.pendingDir, entry.Name()))
		if err != nil {
			s.log.Warnw("Failed to read pending subscription file", "file", entry.Name(), "error", err)
			continue
		}
		var intent domain.PendingSubscription
		if err := json.Unmarshal(data, &intent); err != nil {
			s.log.Warnw("Failed to parse pending subscription file", "file", entry.Name(), "error", err)
			continue
		}
		intents = append(intents, intent)
	}
	return intents, nil
}

// Archive переносит намерение в каталог обработанных.
func (s *FileStore) Archive(ctx context.Context, subscriptionID string) error {
	name := s.fileName(subscriptionID)
	src := filepath.Join(s.pendingDir, name)
	dst := filepath.Join(s.processedDir, name)

	if err := os.Rename(src, dst); err != nil {
		s.log.Errorw("Failed to archive pending subscription", "subscriptionID", subscriptionID, "error", err)
		return fmt.Errorf("failed to archive pending subscription: %w", err)
	}

	s.log.Infow("Pending subscription archived", "subscriptionID", subscriptionID)
	return nil
}
