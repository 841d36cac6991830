package domain

import (
	"errors"
	"fmt"

	"github.com/govalues/decimal"
)

var (
	ErrInternal = errors.New("internal error")

	// * Data errors.
	ErrDataNotFound    = errors.New("data not found")
	ErrNoUpdatedData   = errors.New("no data to update")
	ErrConflictingData = errors.New("data conflicts with existing data in unique column")
	ErrVersionConflict = errors.New("row was modified by a concurrent request")

	// * Communication errors.
	ErrBadRequest = errors.New("error parsing request")

	// * Authority errors.
	ErrTokenCreation              = errors.New("error creating token")
	ErrExpiredToken               = errors.New("access token has expired")
	ErrInvalidToken               = errors.New("access token is invalid")
	ErrInvalidCredentials         = errors.New("invalid login or password")
	ErrEmptyAuthorizationHeader   = errors.New("authorization header is not provided")
	ErrInvalidAuthorizationHeader = errors.New("authorization header format is invalid")
	ErrInvalidAuthorizationType   = errors.New("authorization type is not supported")
	ErrUnauthorized               = errors.New("user is unauthorized to access the resource")
	ErrForbidden                  = errors.New("user is forbidden to access the resource")

	// * Business errors.
	ErrInvalidPaymentMethod = errors.New("payment method is not supported")
	ErrOrderNotPayable      = errors.New("order not found or not payable")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrPaymentTerminal      = errors.New("payment already in a terminal status")
	ErrInvalidTransition    = errors.New("order status transition is not allowed")
	ErrOrderNotCancellable  = errors.New("order can no longer be cancelled")
	ErrSimulateDisabled     = errors.New("payment simulation is disabled for configured providers")
	ErrPaymentProvider      = errors.New("payment provider error")
)

// InsufficientBalanceError carries the amounts the buyer needs to see in the
// error response.
type InsufficientBalanceError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %s, available %s", e.Required, e.Available)
}
