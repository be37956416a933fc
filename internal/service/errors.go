package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation")          // 400
	ErrNotFound          = errors.New("not found")           // 404
	ErrConflict          = errors.New("conflict")            // 409
	ErrEmptyCart         = errors.New("empty cart")          // 400
	ErrInsufficientStock = errors.New("insufficient stock")  // 409
	ErrStockUnavailable  = errors.New("stock unavailable")   // 409
	ErrPermissionDenied  = errors.New("permission denied")   // 403
	ErrInvalidTransition = errors.New("invalid transition")  // 409
)

// StockIssue describes one cart line that cannot be fulfilled.
type StockIssue struct {
	ProductID uint   `json:"product_id"`
	Name      string `json:"name"`
	Requested uint   `json:"requested"`
	Available uint   `json:"available"`
	Inactive  bool   `json:"inactive,omitempty"`
}

// StockUnavailableError carries every offending line so the caller can fix
// the whole cart in one pass. errors.Is matches ErrStockUnavailable.
type StockUnavailableError struct {
	Issues []StockIssue
}

func (e *StockUnavailableError) Error() string {
	return fmt.Sprintf("stock unavailable for %d item(s)", len(e.Issues))
}

func (e *StockUnavailableError) Unwrap() error {
	return ErrStockUnavailable
}
