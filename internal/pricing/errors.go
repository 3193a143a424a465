package pricing

import (
	"errors"
	"fmt"
)

// ErrProductNotFound is returned when the referenced product cannot be resolved.
var ErrProductNotFound = errors.New("product not found")

// InvalidInputError reports a quantity or commission value that failed validation.
// Field names the offending input so callers can re-prompt precisely.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// InsufficientStockError reports a requested quantity exceeding known stock.
// Available carries the quantity on hand for display.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Only %d bags available", e.Available)
}
