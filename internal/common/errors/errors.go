// internal/common/errors/errors.go
package errors

import (
	"fmt"
	"strings"
)

// ErrorCode представляет код ошибки
type ErrorCode string

const (
	// Общие ошибки
	ErrorCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrorCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrorCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrorCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrorCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrorCodeConflict     ErrorCode = "CONFLICT"
	ErrorCodeTimeout      ErrorCode = "TIMEOUT"
	ErrorCodeRateLimit    ErrorCode = "RATE_LIMIT"

	// Ошибки правил
	ErrorCodeRuleInvalid  ErrorCode = "RULE_INVALID"
	ErrorCodeRuleEmpty    ErrorCode = "RULE_EMPTY"
	ErrorCodeRuleNotFound ErrorCode = "RULE_NOT_FOUND"

	// Ошибки валидации правил движком
	ErrorCodeCapturePathInvalid ErrorCode = "CAPTURE_PATH_INVALID"
	ErrorCodeNoCaptureFiles     ErrorCode = "NO_CAPTURE_FILES"
	ErrorCodeEngineNotFound     ErrorCode = "ENGINE_NOT_FOUND"
	ErrorCodeEngineConfig       ErrorCode = "ENGINE_CONFIG_ERROR"
	ErrorCodeEngineExecution    ErrorCode = "ENGINE_EXECUTION_ERROR"
	ErrorCodeEngineTimeout      ErrorCode = "ENGINE_TIMEOUT"

	// Ошибки LLM
	ErrorCodeLLMRequest  ErrorCode = "LLM_REQUEST_FAILED"
	ErrorCodeLLMResponse ErrorCode = "LLM_RESPONSE_INVALID"

	// Ошибки PCAP файлов
	ErrorCodePcapInvalid  ErrorCode = "PCAP_INVALID"
	ErrorCodePcapTooLarge ErrorCode = "PCAP_TOO_LARGE"
	ErrorCodePcapNotFound ErrorCode = "PCAP_NOT_FOUND"

	// Ошибки базы данных
	ErrorCodeDBConnection  ErrorCode = "DB_CONNECTION_ERROR"
	ErrorCodeDBQuery       ErrorCode = "DB_QUERY_ERROR"
	ErrorCodeDBTransaction ErrorCode = "DB_TRANSACTION_ERROR"

	// Ошибки NATS
	ErrorCodeNATSConnection ErrorCode = "NATS_CONNECTION_ERROR"
	ErrorCodeNATSPublish    ErrorCode = "NATS_PUBLISH_ERROR"
)

// AppError представляет ошибку приложения
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Internal   error                  `json:"-"`
	StatusCode int                    `json:"status_code"`
}

// Error возвращает строковое представление ошибки // v1.0
func (e *AppError) Error() string {
	if e.Internal != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Code, e.Message, e.Internal)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap возвращает внутреннюю ошибку // v1.0
func (e *AppError) Unwrap() error {
	return e.Internal
}

// New создает новую ошибку // v1.0
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Details:    make(map[string]interface{}),
		StatusCode: getStatusCode(code),
	}
}

// Wrap оборачивает существующую ошибку // v1.0
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		Internal:   err,
		Details:    make(map[string]interface{}),
		StatusCode: getStatusCode(code),
	}
}

// AddDetail добавляет деталь к ошибке // v1.0
func (e *AppError) AddDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// IsErrorCode проверяет, является ли ошибка определенного кода // v1.0
func IsErrorCode(err error, code ErrorCode) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}

// GetErrorCode возвращает код ошибки // v1.0
func GetErrorCode(err error) ErrorCode {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrorCodeInternal
}

// getStatusCode возвращает HTTP статус код для кода ошибки // v1.0
func getStatusCode(code ErrorCode) int {
	switch code {
	case ErrorCodeValidation, ErrorCodeRuleInvalid, ErrorCodeRuleEmpty,
		ErrorCodeCapturePathInvalid, ErrorCodeNoCaptureFiles, ErrorCodePcapInvalid:
		return 400
	case ErrorCodeUnauthorized:
		return 401
	case ErrorCodeForbidden:
		return 403
	case ErrorCodeNotFound, ErrorCodeRuleNotFound, ErrorCodePcapNotFound:
		return 404
	case ErrorCodeConflict:
		return 409
	case ErrorCodePcapTooLarge:
		return 413
	case ErrorCodeRateLimit:
		return 429
	case ErrorCodeTimeout, ErrorCodeEngineTimeout:
		return 408
	default:
		return 500
	}
}

// ValidationError создает ошибку валидации // v1.0
func ValidationError(field, message string) *AppError {
	return New(ErrorCodeValidation, fmt.Sprintf("validation failed for field '%s': %s", field, message))
}

// NotFoundError создает ошибку "не найдено" // v1.0
func NotFoundError(resource, id string) *AppError {
	return New(ErrorCodeNotFound, fmt.Sprintf("%s with id '%s' not found", resource, id))
}

// UnauthorizedError создает ошибку авторизации // v1.0
func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "authentication required"
	}
	return New(ErrorCodeUnauthorized, message)
}

// TimeoutError создает ошибку таймаута // v1.0
func TimeoutError(operation string, duration string) *AppError {
	return New(ErrorCodeTimeout, fmt.Sprintf("operation '%s' timed out after %s", operation, duration))
}

// InternalError создает внутреннюю ошибку // v1.0
func InternalError(message string) *AppError {
	return New(ErrorCodeInternal, message)
}

// WrapInternal оборачивает внутреннюю ошибку // v1.0
func WrapInternal(err error, message string) *AppError {
	return Wrap(err, ErrorCodeInternal, message)
}

// AggregateErrors объединяет несколько ошибок в одну // v1.0
func AggregateErrors(errors []error) *AppError {
	if len(errors) == 0 {
		return nil
	}

	if len(errors) == 1 {
		if appErr, ok := errors[0].(*AppError); ok {
			return appErr
		}
		return Wrap(errors[0], ErrorCodeInternal, "aggregated error")
	}

	var messages []string
	for _, err := range errors {
		messages = append(messages, err.Error())
	}

	return New(ErrorCodeInternal, fmt.Sprintf("multiple errors occurred: %s", strings.Join(messages, "; ")))
}
