package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/careline/go-careline/internal/messaging"
	"github.com/careline/go-careline/internal/scheduling"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

func NewBadRequestError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Message:    lower(http.StatusText(http.StatusBadRequest)),
	}
}

func NewBadRequestErrorMsg(msg string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusBadRequest,
		Message:    msg,
	}
}

func NewNotFoundError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusNotFound,
		Message:    lower(http.StatusText(http.StatusNotFound)),
	}
}

func NewNotFoundErrorMsg(msg string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusNotFound,
		Message:    msg,
	}
}

func NewConflictError(msg string) *ApiError {
	return &ApiError{
		StatusCode: http.StatusConflict,
		Message:    msg,
	}
}

func NewInternalServerError(err error) *ApiError {
	return &ApiError{
		StatusCode: http.StatusInternalServerError,
		Message:    lower(http.StatusText(http.StatusInternalServerError)),
		Err:        err,
	}
}

func NewUnauthorizedError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusUnauthorized,
		Message:    lower(http.StatusText(http.StatusUnauthorized)),
	}
}

func NewForbiddenError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusForbidden,
		Message:    lower(http.StatusText(http.StatusForbidden)),
	}
}

func NewMethodNotAllowedError() *ApiError {
	return &ApiError{
		StatusCode: http.StatusMethodNotAllowed,
		Message:    lower(http.StatusText(http.StatusMethodNotAllowed)),
	}
}

// mapDomainError translates scheduling and messaging errors into their
// HTTP shape. Unknown errors become opaque 500s.
func mapDomainError(err error) *ApiError {
	var validationErr *scheduling.ValidationError
	var transitionErr *scheduling.InvalidTransitionError

	switch {
	case errors.As(err, &validationErr):
		return NewBadRequestErrorMsg(validationErr.Reason)
	case errors.As(err, &transitionErr):
		return NewConflictError(transitionErr.Error())
	case errors.Is(err, scheduling.ErrNotFound):
		return NewNotFoundError()
	case errors.Is(err, scheduling.ErrOutOfRange):
		return NewBadRequestErrorMsg(scheduling.ErrOutOfRange.Error())
	case errors.Is(err, scheduling.ErrConflict):
		return NewConflictError(scheduling.ErrConflict.Error())
	case errors.Is(err, scheduling.ErrNotOwner):
		return NewForbiddenError()
	case errors.Is(err, messaging.ErrDoctorNotFound):
		return NewNotFoundErrorMsg(messaging.ErrDoctorNotFound.Error())
	case errors.Is(err, messaging.ErrEmptyMessage):
		return NewBadRequestErrorMsg(messaging.ErrEmptyMessage.Error())
	default:
		return NewInternalServerError(err)
	}
}
