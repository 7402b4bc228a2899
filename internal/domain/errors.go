package domain

import (
	"errors"
	"fmt"
)

// Application errors
var (
	// ErrRecordNotFound запись не найдена после исчерпания всех стратегий поиска
	ErrRecordNotFound = errors.New("record not found")

	// ErrStoreUnavailable база данных недоступна
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrGatewayDeclined платёж явно отклонён процессором; пользователь может исправить
	ErrGatewayDeclined = errors.New("payment declined")

	// ErrGatewayTransient временная ошибка шлюза; операцию следует повторить позже
	ErrGatewayTransient = errors.New("gateway temporarily unavailable")

	// ErrGatewayConflict у клиента уже есть подписка; трактуется как успех
	ErrGatewayConflict = errors.New("customer already has a subscription")

	// ErrInvalidInput неверные входные данные
	ErrInvalidInput = errors.New("invalid input data")

	// ErrUnauthenticated пользователь не аутентифицирован
	ErrUnauthenticated = errors.New("unauthenticated")
)

// GatewayError представляет классифицированную ошибку платёжного шлюза.
// Сырые транспортные ошибки никогда не покидают слой шлюза.
type GatewayError struct {
	Kind        error  // Один из ErrGatewayDeclined/ErrGatewayTransient/ErrGatewayConflict
	Reason      string // Человекочитаемая причина (из таблицы отказов эквайера)
	StatusCode  int    // HTTP статус ответа шлюза, если был
	OriginalErr error
}

// Error реализует интерфейс error
func (e *GatewayError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Reason)
	}
	return e.Kind.Error()
}

// Unwrap возвращает оригинальную ошибку
func (e *GatewayError) Unwrap() error {
	return e.OriginalErr
}

// Is сопоставляет ошибку с её видом из таксономии
func (e *GatewayError) Is(target error) bool {
	return target == e.Kind
}

// NewGatewayDeclined создает ошибку отклонённого платежа
func NewGatewayDeclined(reason string, statusCode int, err error) *GatewayError {
	return &GatewayError{Kind: ErrGatewayDeclined, Reason: reason, StatusCode: statusCode, OriginalErr: err}
}

// NewGatewayTransient создает временную ошибку шлюза
func NewGatewayTransient(reason string, statusCode int, err error) *GatewayError {
	return &GatewayError{Kind: ErrGatewayTransient, Reason: reason, StatusCode: statusCode, OriginalErr: err}
}

// NewGatewayConflict создает ошибку-конфликт "подписка уже существует"
func NewGatewayConflict(reason string, statusCode int, err error) *GatewayError {
	return &GatewayError{Kind: ErrGatewayConflict, Reason: reason, StatusCode: statusCode, OriginalErr: err}
}

// ValidationError представляет ошибку валидации
type ValidationError struct {
	Field   string
	Message string
}

// ValidationErrors представляет набор ошибок валидации
type ValidationErrors []ValidationError

// Error реализует интерфейс error
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "validation failed"
	}
	if len(e) == 1 {
		return fmt.Sprintf("validation failed: %s - %s", e[0].Field, e[0].Message)
	}
	return fmt.Sprintf("validation failed: %d errors", len(e))
}

// Add добавляет ошибку валидации
func (e *ValidationErrors) Add(field, message string) {
	*e = append(*e, ValidationError{Field: field, Message: message})
}

// HasErrors проверяет наличие ошибок
func (e ValidationErrors) HasErrors() bool {
	return len(e) > 0
}

// Fields возвращает список полей с ошибками
func (e ValidationErrors) Fields() []string {
	fields := make([]string, len(e))
	for i, err := range e {
		fields[i] = err.Field
	}
	return fields
}

// NotFoundError представляет ошибку "не найдено" с контекстом сущности
type NotFoundError struct {
	Entity string
	ID     string
}

// Error реализует интерфейс error
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Entity, e.ID)
}

// Is проверяет, является ли ошибка ошибкой типа "не найдено"
func (e *NotFoundError) Is(target error) bool {
	return target == ErrRecordNotFound
}

// NewNotFoundError создает новую ошибку "не найдено"
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// StoreError представляет ошибку доступа к базе данных
type StoreError struct {
	Store       string // "primary" или "secondary"
	Op          string
	OriginalErr error
}

// Error реализует интерфейс error
func (e *StoreError) Error() string {
	return fmt.Sprintf("%s store: %s failed: %v", e.Store, e.Op, e.OriginalErr)
}

// Unwrap возвращает оригинальную ошибку
func (e *StoreError) Unwrap() error {
	return e.OriginalErr
}

// Is сопоставляет ошибку с ErrStoreUnavailable
func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

// NewStoreError создает новую ошибку доступа к базе
func NewStoreError(store, op string, err error) *StoreError {
	return &StoreError{Store: store, Op: op, OriginalErr: err}
}
