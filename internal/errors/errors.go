// Package errors provides the standardized error taxonomy for the shared
// context server.
//
// Every tool operation returns either a success envelope or an AppError,
// which is rendered to clients as:
//
//	{"success": false, "error": "<message>", "code": "<CODE>", "details": "..."}
//
// Codes are machine-readable kinds, not Go types — callers switch on Code,
// not on the concrete error value. Details are optional and must never
// contain secret values (protected tokens, capability tokens, signing or
// encryption keys).
package errors

import "fmt"

// AppError is a structured, client-safe error.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error kinds from the taxonomy (spec §7). These are the only values ever
// placed in AppError.Code.
const (
	CodeInvalidInput         = "INVALID_INPUT"
	CodeNotFound             = "NOT_FOUND"
	CodePermissionDenied     = "PERMISSION_DENIED"
	CodeAuthFailed           = "AUTH_FAILED"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeTokenExpired         = "TOKEN_EXPIRED"
	CodeConflict             = "CONFLICT"
	CodeSessionLocked        = "SESSION_LOCKED"
	CodeRateLimited          = "RATE_LIMITED"
	CodeDatabaseUnavailable  = "DATABASE_UNAVAILABLE"
	CodeInternal             = "INTERNAL"
)

// New creates an AppError with no extra detail.
func New(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates an AppError with a formatted message.
func Newf(code, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetails attaches debugging detail not meant for end users but safe to
// surface to operators (never a secret value).
func (e *AppError) WithDetails(details string) *AppError {
	return &AppError{Code: e.Code, Message: e.Message, Details: details}
}

func InvalidInput(format string, args ...interface{}) *AppError {
	return Newf(CodeInvalidInput, format, args...)
}

func NotFound(resource string) *AppError {
	return Newf(CodeNotFound, "%s not found", resource)
}

func PermissionDenied(format string, args ...interface{}) *AppError {
	return Newf(CodePermissionDenied, format, args...)
}

func AuthFailed(format string, args ...interface{}) *AppError {
	return Newf(CodeAuthFailed, format, args...)
}

func InvalidToken(format string, args ...interface{}) *AppError {
	return Newf(CodeInvalidToken, format, args...)
}

func TokenExpired() *AppError {
	return New(CodeTokenExpired, "token has expired")
}

func Conflict(format string, args ...interface{}) *AppError {
	return Newf(CodeConflict, format, args...)
}

func SessionLocked(sessionID string) *AppError {
	return Newf(CodeSessionLocked, "session %s is locked by another operation", sessionID)
}

func RateLimited() *AppError {
	return New(CodeRateLimited, "rate limit exceeded, retry later")
}

func DatabaseUnavailable(err error) *AppError {
	e := New(CodeDatabaseUnavailable, "database is temporarily unavailable")
	if err != nil {
		return e.WithDetails(err.Error())
	}
	return e
}

// Internal wraps an unexpected error. The wrapped error's text is kept out
// of Details deliberately — internal errors are logged with full detail by
// the caller before this value ever reaches a client.
func Internal(err error) *AppError {
	return New(CodeInternal, "internal server error")
}

// Is reports whether err is an *AppError with the given code.
func Is(err error, code string) bool {
	ae, ok := err.(*AppError)
	return ok && ae.Code == code
}

// StatusCode maps a code to a conventional HTTP status, used only by the
// optional HTTP transport — the tool dispatch surface itself is
// transport-agnostic and never depends on this mapping.
func StatusCode(code string) int {
	switch code {
	case CodeInvalidInput:
		return 400
	case CodeAuthFailed, CodeInvalidToken, CodeTokenExpired:
		return 401
	case CodePermissionDenied:
		return 403
	case CodeNotFound:
		return 404
	case CodeConflict, CodeSessionLocked:
		return 409
	case CodeRateLimited:
		return 429
	case CodeDatabaseUnavailable:
		return 503
	default:
		return 500
	}
}
