package diagnostics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
)

const (
	webhooksDirName = "webhooks"
	errorsDirName   = "webhook_errors"
)

// Recorder сбрасывает сырые тела вебхуков и сведения об ошибках их обработки
// в файлы для последующего разбора. Сбой записи никогда не влияет на ответ
// вебхуку, поэтому все методы лишь логируют ошибки.
type Recorder struct {
	webhooksDir string
	errorsDir   string
	log         *logger.Logger
}

// NewRecorder создает рекордер диагностики под каталогом dataDir.
func NewRecorder(dataDir string, log *logger.Logger) (*Recorder, error) {
	r := &Recorder{
		webhooksDir: filepath.Join(dataDir, webhooksDirName),
		errorsDir:   filepath.Join(dataDir, errorsDirName),
		log:         log,
	}
	for _, dir := range []string{r.webhooksDir, r.errorsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return r, nil
}

// stamp формирует имя файла из типа события и момента времени.
func stamp(eventType string) string {
	if eventType == "" {
		eventType = "unknown"
	}
	return fmt.Sprintf("%s_%s.json", eventType, time.Now().Format("20060102T150405.000000000"))
}

// RecordPayload сохраняет сырое тело вебхука.
func (r *Recorder) RecordPayload(eventType string, body []byte) {
	path := filepath.Join(r.webhooksDir, stamp(eventType))
	if err := os.WriteFile(path, body, 0o644); err != nil {
		r.log.Warnw("Failed to record webhook payload", "event", eventType, "error", err)
	}
}

// RecordError сохраняет сведения об ошибке обработки вебхука вместе с телом.
func (r *Recorder) RecordError(eventType string, body []byte, procErr error) {
	record := map[string]any{
		"event":       eventType,
		"error":       procErr.Error(),
		"recorded_at": time.Now().Format(time.RFC3339Nano),
		"payload":     json.RawMessage(body),
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		// Тело может оказаться невалидным JSON; сохраняем как строку.
		record["payload"] = string(body)
		data, err = json.MarshalIndent(record, "", "  ")
		if err != nil {
			r.log.Warnw("Failed to marshal webhook error record", "event", eventType, "error", err)
			return
		}
	}

	path := filepath.Join(r.errorsDir, stamp(eventType))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		r.log.Warnw("Failed to record webhook error", "event", eventType, "error", err)
	}
}
