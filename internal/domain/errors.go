package domain

import (
	"fmt"
)

// Коды ошибок, которые уходят клиенту в поле "code"
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeNotFound            = "NOT_FOUND"
	CodeBlockedByKitchen    = "BLOCKED_BY_KITCHEN"
	CodeComandaNumberExists = "COMANDA_NUMBER_EXISTS"
	CodeComandaNotDeletable = "COMANDA_NOT_DELETABLE"
	CodeComandaHasOrders    = "COMANDA_HAS_ORDERS"
	CodeCategoryReserved    = "CATEGORY_NOT_DELETABLE"
	CodeBackendUnavailable  = "BACKEND_UNAVAILABLE"
	CodePolicyBlocked       = "POLICY_BLOCKED"
	CodeUnauthorized        = "UNAUTHORIZED"
)

// ValidationError - запрос отклонен до любой мутации
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Validationf создает ValidationError с кодом по умолчанию
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError - устаревший или несуществующий id
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s не найден", e.Entity, e.ID)
}

// NotFound создает NotFoundError для любого вида идентификатора
func NotFound(entity string, id interface{}) error {
	return &NotFoundError{Entity: entity, ID: fmt.Sprint(id)}
}

// BlockedByKitchenError - закрытие команды, пока кухня не отдала позиции
type BlockedByKitchenError struct {
	ComandaID int64
	Pending   int // позиций в pending/preparing
}

func (e *BlockedByKitchenError) Error() string {
	return fmt.Sprintf("команда %d: %d позиций еще на кухне", e.ComandaID, e.Pending)
}

// ConflictError - нарушение уникальности или правил удаления
type ConflictError struct {
	Code    string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// UnauthorizedError - нет токена, токен невалиден или неверные учетные данные
type UnauthorizedError struct {
	Message string
}

func (e *UnauthorizedError) Error() string {
	return e.Message
}

// BackendUnavailableError - транспортная ошибка в серверном режиме
type BackendUnavailableError struct {
	Op  string
	Err error
}

func (e *BackendUnavailableError) Error() string {
	return fmt.Sprintf("бэкенд недоступен (%s): %v", e.Op, e.Err)
}

func (e *BackendUnavailableError) Unwrap() error {
	return e.Err
}

// PolicyBlockedError - бэкенд недоступен, а локальный fallback для операции запрещен.
// Ни одной мутации не применено.
type PolicyBlockedError struct {
	Op    string
	Cause error
}

func (e *PolicyBlockedError) Error() string {
	return fmt.Sprintf("операция %s заблокирована: локальный fallback запрещен (%v)", e.Op, e.Cause)
}

func (e *PolicyBlockedError) Unwrap() error {
	return e.Cause
}
