package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// errors.Is で判定する種類
var (
	ErrValidation        = errors.New("validation")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")
	ErrEmptyCart         = errors.New("empty cart")
	ErrConflict          = errors.New("conflict")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrOutOfStock        = errors.New("out of stock")
	ErrStoreUnavailable  = errors.New("store unavailable")
	ErrSecurityIncident  = errors.New("security incident")
	ErrInternal          = errors.New("internal")
)

type HTTPError struct {
	Status  int
	Message string
	Kind    error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Kind
}

// Kind はステータスから決める
func NewHTTPError(status int, message string) error {
	return &HTTPError{
		Status:  status,
		Message: message,
		Kind:    kindFromStatus(status),
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func NewValidationError(message string) error {
	return &HTTPError{Status: http.StatusBadRequest, Message: message, Kind: ErrValidation}
}

func NewUnauthorizedError(message string) error {
	return &HTTPError{Status: http.StatusUnauthorized, Message: message, Kind: ErrUnauthorized}
}

// ログイン済みだが権限が足りない
func NewForbiddenError(message string) error {
	return &HTTPError{Status: http.StatusForbidden, Message: message, Kind: ErrUnauthorized}
}

func NewNotFoundError(message string) error {
	return &HTTPError{Status: http.StatusNotFound, Message: message, Kind: ErrNotFound}
}

func NewEmptyCartError() error {
	return &HTTPError{Status: http.StatusBadRequest, Message: "cart is empty", Kind: ErrEmptyCart}
}

func NewConflictError(message string) error {
	return &HTTPError{Status: http.StatusConflict, Message: message, Kind: ErrConflict}
}

func NewInvalidTransitionError(from, to string) error {
	return &HTTPError{
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("cannot change status from %s to %s", from, to),
		Kind:    ErrInvalidTransition,
	}
}

func NewOutOfStockError(productName string) error {
	return &HTTPError{
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("insufficient stock for %s", productName),
		Kind:    ErrOutOfStock,
	}
}

func NewStoreUnavailableError() error {
	return &HTTPError{Status: http.StatusServiceUnavailable, Message: "store unavailable", Kind: ErrStoreUnavailable}
}

// リフレッシュトークンの再利用を検知した
func NewSecurityIncidentError() error {
	return &HTTPError{Status: http.StatusUnauthorized, Message: "security incident", Kind: ErrSecurityIncident}
}

func NewInternalError() error {
	return &HTTPError{Status: http.StatusInternalServerError, Message: "internal error", Kind: ErrInternal}
}

func kindFromStatus(status int) error {
	switch status {
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusServiceUnavailable:
		return ErrStoreUnavailable
	default:
		return ErrInternal
	}
}
