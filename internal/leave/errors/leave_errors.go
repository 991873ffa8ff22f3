package leaveerrors

import (
	"net/http"

	"leave-portal/internal/shared/apperror"
)

var (
	ErrValidation = apperror.New(
		apperror.CodeValidation,
		"leave request is invalid",
		http.StatusBadRequest,
	)
	ErrInvalidLeaveID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid leave id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"from must be on or before to",
		http.StatusBadRequest,
	)
	ErrCalendarWindowTooLarge = apperror.New(
		apperror.CodeInvalidInput,
		"calendar window must not exceed 366 days",
		http.StatusBadRequest,
	)
	ErrLeaveNotFound = apperror.New(
		apperror.CodeNotFound,
		"leave not found",
		http.StatusNotFound,
	)
	ErrUnknownAction = apperror.New(
		apperror.CodeInvalidInput,
		"unknown leave action",
		http.StatusBadRequest,
	)
	ErrRoleNotAllowed = apperror.New(
		apperror.CodeForbidden,
		"your role may not perform this leave action",
		http.StatusForbidden,
	)
	ErrNotOwner = apperror.New(
		apperror.CodeForbidden,
		"only the requester may perform this leave action",
		http.StatusForbidden,
	)
	ErrManagerOnly = apperror.New(
		apperror.CodeForbidden,
		"only managers may view this resource",
		http.StatusForbidden,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"leave is no longer in a state that allows this action, refresh and try again",
		http.StatusConflict,
	)
	ErrAllowanceExceeded = apperror.New(
		apperror.CodeAllowanceExceeded,
		"requested days exceed the annual allowance for this leave type",
		http.StatusBadRequest,
	)
)
