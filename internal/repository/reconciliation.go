package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/matheusiack20/BackEndAutenticaTeste/internal/domain"
	"github.com/matheusiack20/BackEndAutenticaTeste/pkg/logger"
)

const (
	planUpdateAttempts = 3
	planUpdateBackoff  = time.Second
)

// SweepStats итоги одного прохода по истёкшим подпискам.
type SweepStats struct {
	Processed int `json:"processed"`
	Expired   int `json:"expired"`
	Errors    int `json:"errors"`
}

// ReconciliationStore согласует записи подписок между основной и вторичной
// базами. Вторичная база авторитетна для биллинговых полей: запись в неё
// выполняется первой, зеркалирование в основную — best-effort, его сбои
// логируются и не прерывают операцию.
type ReconciliationStore struct {
	primary   UserStore
	secondary UserStore
	log       *logger.Logger

	// allowSingleUserFallback разрешает отдавать единственного пользователя
	// базы, когда поиск по идентификатору ничего не нашёл.
	allowSingleUserFallback bool
}

// NewReconciliationStore создает хранилище согласования поверх двух баз.
func NewReconciliationStore(primary, secondary UserStore, allowSingleUserFallback bool, log *logger.Logger) *ReconciliationStore {
	return &ReconciliationStore{
		primary:                 primary,
		secondary:               secondary,
		allowSingleUserFallback: allowSingleUserFallback,
		log:                     log,
	}
}

// SaveSubscription привязывает подписку шлюза к пользователю. Сначала
// обновляется вторичная база; если пользователя там нет, запись копируется
// из основной с новым идентификатором. Токен авторизации сохраняется, но
// из возвращаемой записи вычищается.
func (r *ReconciliationStore) SaveSubscription(ctx context.Context, userID, subscriptionID, authToken string, extra domain.SubscriptionUpdate) (*domain.User, error) {
	update := extra
	update.SubscriptionID = &subscriptionID
	if authToken != "" {
		update.AuthToken = &authToken
	}
	update.UpdatedAt = time.Now()

	user, err := r.secondary.UpdateByID(ctx, userID, update)
	if err != nil && errors.Is(err, domain.ErrRecordNotFound) {
		user, err = r.copyFromPrimary(ctx, userID, update)
	}
	if err != nil {
		return nil, err
	}

	r.mirrorToPrimary(ctx, userID, update)

	user.AuthToken = ""
	return user, nil
}

// copyFromPrimary переносит запись пользователя из основной базы во вторичную,
// применяя к копии переданное обновление. Идентификатор назначается заново,
// чтобы не конфликтовать с пространством ключей основной базы.
func (r *ReconciliationStore) copyFromPrimary(ctx context.Context, userID string, update domain.SubscriptionUpdate) (*domain.User, error) {
	source, err := r.primary.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	copied := *source
	copied.ID = ""
	update.Apply(&copied)

	if _, err := r.secondary.Insert(ctx, &copied); err != nil {
		return nil, err
	}
	r.log.Infow("Copied user into billing store", "user_id", userID, "billing_id", copied.ID)
	return &copied, nil
}

// mirrorToPrimary зеркалирует обновление в основную базу. Сбой не фатален.
func (r *ReconciliationStore) mirrorToPrimary(ctx context.Context, userID string, update domain.SubscriptionUpdate) {
	update.AuthToken = nil
	if _, err := r.primary.UpdateByID(ctx, userID, update); err != nil {
		r.log.Warnw("Failed to mirror update to primary store", "user_id", userID, "error", err)
	}
}

// UpdateStatus переводит подписку в новый статус по словарю статусов шлюза.
// При переходе в paid также проставляется дата последнего платежа.
func (r *ReconciliationStore) UpdateStatus(ctx context.Context, subscriptionID, gatewayStatus string) (*domain.User, error) {
	status := domain.MapGatewayStatus(gatewayStatus)
	now := time.Now()
	update := domain.SubscriptionUpdate{Status: &status, UpdatedAt: now}
	if status == domain.SubscriptionStatusPaid {
		update.LastPaymentDate = &now
	}
	return r.updateBySubscription(ctx, subscriptionID, update)
}

// UpdateExpiry проставляет дату истечения подписки.
func (r *ReconciliationStore) UpdateExpiry(ctx context.Context, subscriptionID string, expiresAt time.Time) error {
	update := domain.SubscriptionUpdate{ExpiresAt: &expiresAt, UpdatedAt: time.Now()}
	_, err := r.updateBySubscription(ctx, subscriptionID, update)
	return err
}

// UpdateLastPaymentDate проставляет дату последнего платежа.
func (r *ReconciliationStore) UpdateLastPaymentDate(ctx context.Context, subscriptionID string, paidAt time.Time) error {
	status := domain.SubscriptionStatusPaid
	update := domain.SubscriptionUpdate{Status: &status, LastPaymentDate: &paidAt, UpdatedAt: time.Now()}
	_, err := r.updateBySubscription(ctx, subscriptionID, update)
	return err
}

// updateBySubscription применяет обновление по идентификатору подписки.
// Сначала вторичная база с зеркалированием в основную; если записи нет во
// вторичной, обновляется только основная. Промах в обеих базах — not found.
func (r *ReconciliationStore) updateBySubscription(ctx context.Context, subscriptionID string, update domain.SubscriptionUpdate) (*domain.User, error) {
	user, err := r.secondary.UpdateBySubscriptionID(ctx, subscriptionID, update)
	if err == nil {
		if _, mirrorErr := r.primary.UpdateBySubscriptionID(ctx, subscriptionID, update); mirrorErr != nil {
			r.log.Warnw("Failed to mirror update to primary store", "subscription_id", subscriptionID, "error", mirrorErr)
		}
		return user, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		r.log.Warnw("Secondary store update failed, falling back to primary", "subscription_id", subscriptionID, "error", err)
	}

	user, primaryErr := r.primary.UpdateBySubscriptionID(ctx, subscriptionID, update)
	if primaryErr != nil {
		if errors.Is(err, domain.ErrRecordNotFound) && errors.Is(primaryErr, domain.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("subscription", subscriptionID)
		}
		return nil, primaryErr
	}
	return user, nil
}

// FindByEmailPrimary ищет пользователя по email в основной базе.
func (r *ReconciliationStore) FindByEmailPrimary(ctx context.Context, email string) (*domain.User, error) {
	return r.primary.FindByEmail(ctx, email)
}

// FindBySubscriptionID ищет пользователя по идентификатору подписки сначала
// во вторичной базе, затем в основной.
func (r *ReconciliationStore) FindBySubscriptionID(ctx context.Context, subscriptionID string) (*domain.User, error) {
	user, err := r.secondary.FindBySubscriptionID(ctx, subscriptionID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		r.log.Warnw("Secondary store lookup failed, falling back to primary", "subscription_id", subscriptionID, "error", err)
	}
	return r.primary.FindBySubscriptionID(ctx, subscriptionID)
}

// FindUserRobustly ищет пользователя во вторичной базе: сначала по точному
// идентификатору, затем по идентификатору без пробельных символов. Если
// включён режим единственного пользователя, при промахе и ровно одной записи
// в базе возвращается она.
func (r *ReconciliationStore) FindUserRobustly(ctx context.Context, userID string) (*domain.User, error) {
	user, err := r.secondary.FindByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, domain.ErrRecordNotFound) {
		return nil, err
	}

	if trimmed := strings.TrimSpace(userID); trimmed != userID {
		if user, err := r.secondary.FindByID(ctx, trimmed); err == nil {
			return user, nil
		} else if !errors.Is(err, domain.ErrRecordNotFound) {
			return nil, err
		}
	}

	if r.allowSingleUserFallback {
		count, countErr := r.secondary.Count(ctx)
		if countErr == nil && count == 1 {
			r.log.Warnw("User lookup falling back to sole record", "user_id", userID)
			return r.secondary.FindAny(ctx)
		}
	}

	return nil, domain.NewNotFoundError("user", userID)
}

// GetUserSubscriptionDetails возвращает детали подписки пользователя.
func (r *ReconciliationStore) GetUserSubscriptionDetails(ctx context.Context, userID string) (*domain.SubscriptionDetails, error) {
	user, err := r.FindUserRobustly(ctx, userID)
	if err != nil {
		return nil, err
	}
	details := user.Details()
	return &details, nil
}

// CheckUserSubscription сообщает, активна ли подписка пользователя.
// Недоступность базы трактуется как отсутствие подписки, а не как ошибка.
func (r *ReconciliationStore) CheckUserSubscription(ctx context.Context, userID string) (bool, error) {
	user, err := r.FindUserRobustly(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return false, nil
		}
		r.log.Warnw("Subscription check degraded by store error", "user_id", userID, "error", err)
		return false, nil
	}
	return user.SubscriptionStatus == domain.SubscriptionStatusPaid, nil
}

// UpdateUserPlan обновляет тарифные поля пользователя по email с повторными
// попытками и нарастающей паузой. Если пользователя нет во вторичной базе,
// запись копируется из основной.
func (r *ReconciliationStore) UpdateUserPlan(ctx context.Context, email string, update domain.SubscriptionUpdate) error {
	update.UpdatedAt = time.Now()

	var lastErr error
	for attempt := 1; attempt <= planUpdateAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * planUpdateBackoff
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			r.log.Infow("Retrying plan update", "email", email, "attempt", attempt)
		}

		lastErr = r.updatePlanOnce(ctx, email, update)
		if lastErr == nil {
			return nil
		}
		r.log.Warnw("Plan update attempt failed", "email", email, "attempt", attempt, "error", lastErr)
	}
	return lastErr
}

func (r *ReconciliationStore) updatePlanOnce(ctx context.Context, email string, update domain.SubscriptionUpdate) error {
	user, err := r.secondary.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return err
		}
		source, primaryErr := r.primary.FindByEmail(ctx, email)
		if primaryErr != nil {
			return primaryErr
		}
		copied := *source
		copied.ID = ""
		if _, err := r.secondary.Insert(ctx, &copied); err != nil {
			return err
		}
		r.log.Infow("Copied user into billing store", "email", email, "billing_id", copied.ID)
		user = &copied
	}

	if _, err := r.secondary.UpdateByID(ctx, user.ID, update); err != nil {
		return err
	}

	mirror := update
	mirror.AuthToken = nil
	if source, err := r.primary.FindByEmail(ctx, email); err == nil {
		if _, err := r.primary.UpdateByID(ctx, source.ID, mirror); err != nil {
			r.log.Warnw("Failed to mirror plan update to primary store", "email", email, "error", err)
		}
	}
	return nil
}

// ProcessExpiredSubscriptions переводит в expired подписки со статусом paid
// и датой истечения в прошлом. Записи обрабатываются по одной; ошибка на
// одной записи не прерывает проход.
func (r *ReconciliationStore) ProcessExpiredSubscriptions(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	expired, err := r.secondary.FindExpired(ctx, time.Now())
	if err != nil {
		return stats, err
	}

	status := domain.SubscriptionStatusExpired
	for _, user := range expired {
		stats.Processed++
		update := domain.SubscriptionUpdate{Status: &status, UpdatedAt: time.Now()}
		if _, err := r.secondary.UpdateByID(ctx, user.ID, update); err != nil {
			r.log.Errorw("Failed to expire subscription", "user_id", user.ID, "subscription_id", user.SubscriptionID, "error", err)
			stats.Errors++
			continue
		}
		if user.SubscriptionID != "" {
			if _, err := r.primary.UpdateBySubscriptionID(ctx, user.SubscriptionID, update); err != nil {
				r.log.Warnw("Failed to mirror expiry to primary store", "subscription_id", user.SubscriptionID, "error", err)
			}
		}
		stats.Expired++
		r.log.Infow("Subscription expired", "user_id", user.ID, "subscription_id", user.SubscriptionID)
	}
	return stats, nil
}
