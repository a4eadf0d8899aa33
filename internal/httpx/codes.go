package httpx

const (
	CodeValidationError       = "VALIDATION_ERROR"
	CodeEmailExists           = "EMAIL_EXISTS"
	CodeInvalidCredentials    = "INVALID_CREDENTIALS"
	CodeMissingAuthHeader     = "MISSING_AUTH_HEADER"
	CodeTokenExpired          = "TOKEN_EXPIRED"
	CodeTokenInvalidSignature = "TOKEN_INVALID_SIGNATURE"
	CodeTokenInvalid          = "TOKEN_INVALID"
	CodeTokenWrongType        = "TOKEN_WRONG_TYPE"
	CodeTokenRevoked          = "TOKEN_REVOKED"
	CodeTokenContextMismatch  = "TOKEN_CONTEXT_MISMATCH"
	CodeForbidden             = "FORBIDDEN"
	CodeUserNotFound          = "USER_NOT_FOUND"
	CodeNotFound              = "NOT_FOUND"
	CodeVersionConflict       = "VERSION_CONFLICT"
	CodeRateLimited           = "RATE_LIMITED"
	CodeInternalError         = "INTERNAL_ERROR"
)
