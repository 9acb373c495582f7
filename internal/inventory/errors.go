package inventory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidQuantity is returned for zero, negative or fractional order quantities.
	ErrInvalidQuantity = errors.New("inventory: invalid quantity")
	// ErrDishNotFound is returned when no recipe row matches the dish.
	ErrDishNotFound = errors.New("inventory: dish not found")
	// ErrEmptyRecipe is returned when SettleOrder is called without lines.
	ErrEmptyRecipe = errors.New("inventory: recipe has no lines")
	// ErrInvalidRequest is returned for malformed requests such as an empty
	// subject or an unknown settlement kind.
	ErrInvalidRequest = errors.New("inventory: invalid request")
)

// Shortfall is the quantity of an ingredient missing for a settlement.
type Shortfall struct {
	Ingredient string          `json:"ingredient"`
	Missing    decimal.Decimal `json:"missing"`
}

// InsufficientStockError lists every under-stocked ingredient of a settlement.
type InsufficientStockError struct {
	Missing []Shortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, s := range e.Missing {
		parts[i] = fmt.Sprintf("%s=%s", s.Ingredient, s.Missing.String())
	}
	return "insufficient stock, missing: " + strings.Join(parts, ", ")
}

// MissingMap returns the shortfalls keyed by ingredient.
func (e *InsufficientStockError) MissingMap() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(e.Missing))
	for _, s := range e.Missing {
		out[s.Ingredient] = s.Missing
	}
	return out
}

// StoreFaultError wraps a store failure that happened before any mutation.
type StoreFaultError struct {
	Op    string
	Table string
	Err   error
}

func (e *StoreFaultError) Error() string {
	return fmt.Sprintf("store fault during %s on %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreFaultError) Unwrap() error { return e.Err }

// PartialFailureError reports a commit that left deductions in the store
// without the matching ledger row. Operators must reconcile it.
type PartialFailureError struct {
	Applied []Deduction
	// Failed is the ingredient whose update failed, empty when the ledger
	// append failed after every deduction was applied.
	Failed string
	Err    error
	// Compensated is true when every applied deduction was rolled back by
	// the compensation pass.
	Compensated     bool
	CompensationErr error
}

func (e *PartialFailureError) Error() string {
	applied := make([]string, len(e.Applied))
	for i, d := range e.Applied {
		applied[i] = d.Ingredient
	}
	stage := "ledger append"
	if e.Failed != "" {
		stage = "update of " + e.Failed
	}
	msg := fmt.Sprintf("partial failure at %s after applying [%s]: %v", stage, strings.Join(applied, ", "), e.Err)
	if e.Compensated {
		msg += " (compensated)"
	}
	return msg
}

func (e *PartialFailureError) Unwrap() error { return e.Err }

// Code returns the stable error code exposed to callers.
func Code(err error) string {
	var insufficient *InsufficientStockError
	var partial *PartialFailureError
	var fault *StoreFaultError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidRequest):
		return "invalid_request"
	case errors.Is(err, ErrDishNotFound):
		return "dish_not_found"
	case errors.As(err, &insufficient):
		return "insufficient_stock"
	case errors.As(err, &partial):
		return "partial_failure"
	case errors.As(err, &fault):
		return "store_fault"
	default:
		return "internal"
	}
}
