package service

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation")          // 400
	ErrNotFound           = errors.New("not found")           // 404
	ErrUserNotFound       = errors.New("user not found")      // 404
	ErrForbidden          = errors.New("forbidden")           // 403
	ErrConflict           = errors.New("conflict")            // 409
	ErrInvalidCredentials = errors.New("invalid credentials") // 401
	ErrInternal           = errors.New("internal error")      // 500

	ErrNoPaymentMethod        = errors.New("user has no payment method")      // 400
	ErrProductNotFound        = errors.New("one or more products not found")  // 400
	ErrNoDefaultPaymentMethod = errors.New("no default payment method found") // 400
	ErrPaymentFailed          = errors.New("payment failed")                  // 400
	ErrPaymentGateway         = errors.New("payment gateway error")           // 400
	ErrPaymentUnknown         = errors.New("payment outcome unknown")         // 502

	// ErrPersistenceFailedAfterCharge means money was captured but no order
	// row exists. Always needs manual reconciliation.
	ErrPersistenceFailedAfterCharge = errors.New("order persistence failed after charge") // 500
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, msg string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: msg})
}

// orNil keeps a typed nil out of an error interface.
func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

type ProductNotFoundError struct {
	Missing []uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("%s: %v", ErrProductNotFound, e.Missing)
}

func (e *ProductNotFoundError) Unwrap() error { return ErrProductNotFound }

type PersistenceFailedError struct {
	PaymentIntentID string
	AmountMinor     int64
	Err             error
}

func (e *PersistenceFailedError) Error() string {
	return fmt.Sprintf("%s: payment intent %s (%d minor units): %v",
		ErrPersistenceFailedAfterCharge, e.PaymentIntentID, e.AmountMinor, e.Err)
}

func (e *PersistenceFailedError) Unwrap() []error {
	return []error{ErrPersistenceFailedAfterCharge, e.Err}
}
