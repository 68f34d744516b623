package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeDatabaseError   ErrorCode = "DATABASE_ERROR"
	ErrCodeProposalExpired ErrorCode = "PROPOSAL_EXPIRED"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
	// Fields содержит ошибки по конкретным полям запроса (только для валидации).
	Fields map[string]string
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду и сообщению, чтобы errors.Is работал с копиями sentinel-ошибок.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Validation создаёт ошибку валидации с привязкой к полю.
func Validation(field, message string) *AppError {
	err := New(ErrCodeValidation, message)
	if field != "" {
		err.Fields = map[string]string{field: message}
	}
	return err
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation, ErrCodeProposalExpired:
		return http.StatusBadRequest
	case ErrCodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeConflict
}

func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

var (
	ErrProposalNotFound      = New(ErrCodeNotFound, "предложение не найдено")
	ErrVersionNotFound       = New(ErrCodeNotFound, "версия предложения не найдена")
	ErrSignatureNotFound     = New(ErrCodeNotFound, "подпись не найдена")
	ErrClientNotFound        = New(ErrCodeNotFound, "клиент не найден")
	ErrCatalogItemNotFound   = New(ErrCodeNotFound, "позиция каталога не найдена")
	ErrPublicLinkNotFound    = New(ErrCodeNotFound, "предложение не найдено или срок его действия истёк")
	ErrProposalExpired       = New(ErrCodeProposalExpired, "срок действия предложения истёк (expired)")
	ErrProposalHasVersions   = New(ErrCodeValidation, "нельзя удалить предложение, у которого есть версии")
	ErrProposalFinalized     = New(ErrCodeValidation, "предложение уже подписано или отклонено")
	ErrProposalRejected      = New(ErrCodeConflict, "отклонённое предложение нельзя подписать")
	ErrAlreadySignedOther    = New(ErrCodeConflict, "предложение уже подписано по другой версии")
	ErrDuplicateVersion      = New(ErrCodeConflict, "конфликт номера версии или публичного токена")
	ErrDuplicateSKU          = New(ErrCodeConflict, "позиция каталога с таким SKU уже существует")
	ErrUnauthorized          = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden             = New(ErrCodeForbidden, "недостаточно прав")
	ErrPublishRetryExhausted = New(ErrCodeInternal, "не удалось опубликовать версию, повторите попытку позже")
)
