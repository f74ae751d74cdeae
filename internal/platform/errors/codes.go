// Package errors provides structured error handling for rankboard services.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// CodeRequestInvalid represents a malformed request body or parameter.
	CodeRequestInvalid Code = "REQUEST_INVALID"

	// Score errors
	CodeScoreDeltaNotFinite Code = "SCORE_DELTA_NOT_FINITE"
	CodeScoreMemberEmpty    Code = "SCORE_MEMBER_EMPTY"
	CodeScoreReasonTooLong  Code = "SCORE_REASON_TOO_LONG"

	// User errors
	CodeUserUsernameEmpty   Code = "USER_USERNAME_EMPTY"
	CodeUserUsernameTooLong Code = "USER_USERNAME_TOO_LONG"
	CodeUserAlreadyExists   Code = "USER_ALREADY_EXISTS"

	// Auth errors
	CodeAuthCredentialsInvalid Code = "AUTH_CREDENTIALS_INVALID"
	CodeAuthTokenMissing       Code = "AUTH_TOKEN_MISSING"
	CodeAuthSessionExpired     Code = "AUTH_SESSION_EXPIRED"

	// Temp cache errors
	CodeTempKeyEmpty   Code = "TEMP_KEY_EMPTY"
	CodeTempTTLInvalid Code = "TEMP_TTL_INVALID"

	// Storage errors
	CodeNotFound Code = "NOT_FOUND"

	// Cache errors
	CodeCacheUnavailable Code = "CACHE_UNAVAILABLE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	// BadRequest - validation failures, bad input
	case CodeRequestInvalid,
		CodeScoreDeltaNotFinite,
		CodeScoreMemberEmpty,
		CodeScoreReasonTooLong,
		CodeUserUsernameEmpty,
		CodeUserUsernameTooLong,
		CodeTempKeyEmpty,
		CodeTempTTLInvalid:
		return http.StatusBadRequest

	// Unauthorized - missing, invalid, or expired credentials
	case CodeAuthCredentialsInvalid,
		CodeAuthTokenMissing,
		CodeAuthSessionExpired:
		return http.StatusUnauthorized

	// NotFound - resource doesn't exist
	case CodeNotFound:
		return http.StatusNotFound

	// Conflict - unique resource constraint
	case CodeUserAlreadyExists:
		return http.StatusConflict

	// ServiceUnavailable - a required backend is unreachable
	case CodeCacheUnavailable:
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}
