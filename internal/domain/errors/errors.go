package errors

import (
	"net/http"

	"perimeter/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Event-related errors
	ErrEventNotFound = NewBaseError(
		http.StatusNotFound,
		"EVENT_NOT_FOUND",
		"找不到該活動",
		"",
	)

	ErrEventCreationFailed = NewBaseError(
		http.StatusInternalServerError,
		"EVENT_CREATION_FAILED",
		"建立活動失敗",
		"",
	)

	ErrEventUpdateFailed = NewBaseError(
		http.StatusInternalServerError,
		"EVENT_UPDATE_FAILED",
		"更新活動失敗",
		"",
	)

	ErrEventEnded = NewBaseError(
		http.StatusConflict,
		"EVENT_ENDED",
		"活動已結束",
		"",
	)

	ErrGeofenceRadiusInvalid = NewBaseError(
		http.StatusBadRequest,
		"GEOFENCE_RADIUS_INVALID",
		"地理圍欄半徑超出允許範圍",
		"",
	)

	// Participant-related errors
	ErrParticipantNotFound = NewBaseError(
		http.StatusNotFound,
		"PARTICIPANT_NOT_FOUND",
		"找不到該參加者",
		"",
	)

	ErrParticipantAlreadyExists = NewBaseError(
		http.StatusConflict,
		"PARTICIPANT_ALREADY_EXISTS",
		"該參加者已報名此活動",
		"",
	)

	ErrParticipantAlreadyCheckedIn = NewBaseError(
		http.StatusConflict,
		"PARTICIPANT_ALREADY_CHECKED_IN",
		"該參加者已完成報到",
		"",
	)

	ErrParticipantMarkedAbsent = NewBaseError(
		http.StatusConflict,
		"PARTICIPANT_MARKED_ABSENT",
		"該參加者已被標記為缺席",
		"",
	)

	// Presence-related errors
	ErrSnapshotOutOfOrder = NewBaseError(
		http.StatusConflict,
		"SNAPSHOT_OUT_OF_ORDER",
		"位置快照早於已處理的資料",
		"",
	)

	ErrSnapshotInvalid = NewBaseError(
		http.StatusBadRequest,
		"SNAPSHOT_INVALID",
		"無效的位置快照",
		"",
	)

	// Alert-related errors
	ErrAlertNotFound = NewBaseError(
		http.StatusNotFound,
		"ALERT_NOT_FOUND",
		"找不到該警示",
		"",
	)

	ErrAlertAlreadyAcknowledged = NewBaseError(
		http.StatusConflict,
		"ALERT_ALREADY_ACKNOWLEDGED",
		"該警示已被確認",
		"",
	)

	ErrAlertAckFailed = NewBaseError(
		http.StatusInternalServerError,
		"ALERT_ACK_FAILED",
		"確認警示失敗",
		"",
	)

	// Device-related errors
	ErrDeviceNotFound = NewBaseError(
		http.StatusNotFound,
		"DEVICE_NOT_FOUND",
		"找不到該裝置",
		"",
	)

	ErrDeviceTokenInvalid = NewBaseError(
		http.StatusBadRequest,
		"DEVICE_TOKEN_INVALID",
		"無效的裝置推播權杖",
		"",
	)

	// Check-in-related errors
	ErrCheckInCodeInvalid = NewBaseError(
		http.StatusBadRequest,
		"CHECK_IN_CODE_INVALID",
		"無效的報到代碼",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"輸入資料驗證失敗",
		"",
	)

	// Transaction-related errors
	ErrTransactionFailed = NewBaseError(
		http.StatusInternalServerError,
		"TRANSACTION_FAILED",
		"資料庫交易失敗",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"系統內部錯誤",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"存取被拒絕",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"找不到該資源",
		"",
	)

	ErrConflict = NewBaseError(
		http.StatusConflict,
		"CONFLICT",
		"資源衝突",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "資料庫執行失敗"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
