package leavetypeerrors

import (
	"net/http"

	"leave-portal/internal/shared/apperror"
)

var (
	ErrCatalogUnavailable = apperror.New(
		apperror.CodeServiceUnavailable,
		"leave catalog is unavailable",
		http.StatusServiceUnavailable,
	)
	ErrCatalogEmpty = apperror.New(
		apperror.CodeServiceUnavailable,
		"leave catalog is empty",
		http.StatusServiceUnavailable,
	)
)
