package autherrors

import (
	"net/http"

	"leave-portal/internal/shared/apperror"
)

var (
	ErrInvalidCredentials = apperror.New(
		"AUTH_FAILED",
		"invalid email or password",
		http.StatusUnauthorized,
	)
	ErrEmailAlreadyRegistered = apperror.New(
		apperror.CodeConflict,
		"email is already registered",
		http.StatusConflict,
	)
	ErrUserNotFound = apperror.New(
		apperror.CodeNotFound,
		"user not found",
		http.StatusNotFound,
	)
	ErrUserInactive = apperror.New(
		apperror.CodeForbidden,
		"user account is inactive",
		http.StatusForbidden,
	)
	ErrInvalidToken = apperror.New(
		"INVALID_TOKEN",
		"invalid token",
		http.StatusUnauthorized,
	)
	ErrTokenExpired = apperror.New(
		"TOKEN_EXPIRED",
		"token has expired",
		http.StatusUnauthorized,
	)
	ErrTokenRevoked = apperror.New(
		"TOKEN_REVOKED",
		"token has been logged out",
		http.StatusUnauthorized,
	)
	ErrTokenGenerationFailed = apperror.New(
		apperror.CodeInternalError,
		"failed to generate token",
		http.StatusInternalServerError,
	)
)
