// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrDuplicateKey   = errors.New("duplicate key")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenRevoked   = errors.New("token revoked")
	ErrUpstream       = errors.New("upstream service failed")
	ErrBanned         = errors.New("account banned")
	ErrFeatureMissing = errors.New("feature not found")

	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrDeviceNotActivated  = errors.New("device not activated")
	ErrFeatureDisabled     = errors.New("feature disabled")
)

// AppError is an error that knows how it should be rendered to a client.
type AppError struct {
	Err        error          `json:"-"`
	Message    string         `json:"message"`
	StatusCode int            `json:"-"`
	Code       string         `json:"code"`
	Details    map[string]any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(err error, message string, status int, code string) *AppError {
	return &AppError{
		Err:        err,
		Message:    message,
		StatusCode: status,
		Code:       code,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NotFoundError(resource string) *AppError {
	return NewAppError(
		ErrNotFound,
		resource+" not found",
		http.StatusNotFound,
		"NOT_FOUND",
	)
}

func DuplicateError(field string) *AppError {
	return NewAppError(
		ErrDuplicateKey,
		field+" already exists",
		http.StatusConflict,
		"DUPLICATE",
	)
}

func UnauthorizedError(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return NewAppError(
		ErrUnauthorized,
		message,
		http.StatusUnauthorized,
		"UNAUTHORIZED",
	)
}

func ForbiddenError(message string) *AppError {
	if message == "" {
		message = "forbidden"
	}
	return NewAppError(ErrForbidden, message, http.StatusForbidden, "FORBIDDEN")
}

func ValidationError(message string) *AppError {
	return NewAppError(
		ErrInvalidInput,
		message,
		http.StatusBadRequest,
		"VALIDATION_ERROR",
	)
}

func TokenExpiredError() *AppError {
	return NewAppError(
		ErrTokenExpired,
		"token has expired",
		http.StatusUnauthorized,
		"TOKEN_EXPIRED",
	)
}

func TokenInvalidError() *AppError {
	return NewAppError(
		ErrTokenInvalid,
		"token is invalid",
		http.StatusUnauthorized,
		"TOKEN_INVALID",
	)
}

func TokenRevokedError() *AppError {
	return NewAppError(
		ErrTokenRevoked,
		"token has been revoked",
		http.StatusUnauthorized,
		"TOKEN_REVOKED",
	)
}

func InsufficientCreditsError(checkoutURL string) *AppError {
	appErr := NewAppError(
		ErrInsufficientCredits,
		"you have run out of credits, upgrade your plan to keep creating",
		http.StatusPaymentRequired,
		"INSUFFICIENT_CREDITS",
	)
	if checkoutURL != "" {
		appErr.Details = map[string]any{"checkout_url": checkoutURL}
	}
	return appErr
}

func DeviceNotActivatedError() *AppError {
	return NewAppError(
		ErrDeviceNotActivated,
		"this device has not been activated",
		http.StatusForbidden,
		"DEVICE_NOT_ACTIVATED",
	)
}

func FeatureDisabledError() *AppError {
	return NewAppError(
		ErrFeatureDisabled,
		"this tool is temporarily disabled",
		http.StatusForbidden,
		"FEATURE_DISABLED",
	)
}

func BannedError() *AppError {
	return NewAppError(
		ErrBanned,
		"this account has been suspended",
		http.StatusForbidden,
		"ACCOUNT_BANNED",
	)
}

func UpstreamError(err error) *AppError {
	return NewAppError(
		errors.Join(ErrUpstream, err),
		"the generation service is unavailable, try again",
		http.StatusBadGateway,
		"UPSTREAM_ERROR",
	)
}

// ErrorToAppError maps domain sentinels onto their client representation.
func ErrorToAppError(err error) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return NotFoundError("resource")
	case errors.Is(err, ErrDuplicateKey):
		return DuplicateError("resource")
	case errors.Is(err, ErrUnauthorized):
		return UnauthorizedError("")
	case errors.Is(err, ErrForbidden):
		return ForbiddenError("")
	case errors.Is(err, ErrInvalidInput):
		return ValidationError("invalid input")
	case errors.Is(err, ErrTokenExpired):
		return TokenExpiredError()
	case errors.Is(err, ErrTokenRevoked):
		return TokenRevokedError()
	case errors.Is(err, ErrTokenInvalid):
		return TokenInvalidError()
	case errors.Is(err, ErrInsufficientCredits):
		return InsufficientCreditsError("")
	case errors.Is(err, ErrDeviceNotActivated):
		return DeviceNotActivatedError()
	case errors.Is(err, ErrFeatureDisabled):
		return FeatureDisabledError()
	case errors.Is(err, ErrFeatureMissing):
		return NewAppError(err, "tool not found", http.StatusNotFound, "NOT_FOUND")
	case errors.Is(err, ErrBanned):
		return BannedError()
	case errors.Is(err, ErrUpstream):
		return UpstreamError(err)
	default:
		return NewAppError(
			err,
			"internal server error",
			http.StatusInternalServerError,
			"INTERNAL_ERROR",
		)
	}
}
