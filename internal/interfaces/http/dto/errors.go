package dto

import (
	"net/http"
	"strings"
)

// Error codes produced by the HTTP layer itself. Domain error codes pass
// through unchanged and are mapped to status codes below.
const (
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeRateLimited  = "RATE_LIMITED"
	ErrCodeTooLarge     = "REQUEST_TOO_LARGE"
	ErrCodeInternal     = "INTERNAL_ERROR"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest:     http.StatusBadRequest,
	ErrCodeRateLimited:    http.StatusTooManyRequests,
	ErrCodeTooLarge:       http.StatusRequestEntityTooLarge,
	ErrCodeInternal:       http.StatusInternalServerError,
	"PASSWORD_HASH_ERROR": http.StatusInternalServerError,
	"TOKEN_ERROR":         http.StatusInternalServerError,

	// Auth
	"UNAUTHORIZED":        http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"TOKEN_EXPIRED":       http.StatusUnauthorized,
	"TOKEN_INVALID":       http.StatusUnauthorized,
	"FORBIDDEN":           http.StatusForbidden,
	"ACCOUNT_INACTIVE":    http.StatusForbidden,
	"ACCOUNT_DEACTIVATED": http.StatusForbidden,
	"ACCOUNT_PENDING":     http.StatusForbidden,
	"ORG_SUSPENDED":       http.StatusForbidden,
	"ACCOUNT_LOCKED":      http.StatusLocked,

	// Resources
	"NOT_FOUND":            http.StatusNotFound,
	"USER_NOT_FOUND":       http.StatusNotFound,
	"STAGE_NOT_FOUND":      http.StatusNotFound,
	"ALREADY_EXISTS":       http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"SCHEDULE_CONFLICT":    http.StatusConflict,

	// Business rules
	"INVALID_STATE":     http.StatusUnprocessableEntity,
	"WIP_LIMIT_REACHED": http.StatusUnprocessableEntity,
	"STAGE_NOT_EMPTY":   http.StatusUnprocessableEntity,
	"UPLOAD_INCOMPLETE": http.StatusUnprocessableEntity,
	"LAST_OWNER":        http.StatusUnprocessableEntity,

	// Upstream
	"AGENT_UNAVAILABLE": http.StatusBadGateway,
}

// GetHTTPStatus returns the HTTP status code for an error code. Validation
// codes all start with INVALID_ and map to 400; anything unknown is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
