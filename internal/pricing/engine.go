package pricing

import (
	"math"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	// DefaultCommissionPercent applies when a product carries no commission of its own.
	DefaultCommissionPercent = 3.0
	// DealerNotSpecified is the fallback dealer label for blank input.
	DealerNotSpecified = "Not Specified"
	// TotalTolerance bounds acceptable drift when comparing stored and recomputed totals.
	TotalTolerance = 0.01
)

// Product is a point-in-time catalog snapshot consumed by the engine.
// CommissionPercent is nil when the product has no commission configured.
type Product struct {
	ID                uuid.UUID
	Name              string
	Quantity          int
	Rate              float64
	CommissionPercent *float64
}

// LineItem freezes a product's name and rate at the moment it is added so later
// catalog edits never rewrite historical bills.
type LineItem struct {
	ProductID         uuid.UUID
	ProductName       string
	Quantity          int
	Rate              float64
	CommissionPercent float64
	ItemAmount        float64
	CommissionAmount  float64
	DealerName        string
	StockAtAdd        int
}

// Totals aggregates a bill's monetary components.
type Totals struct {
	ItemsTotal      float64
	CommissionTotal float64
	GrandTotal      float64
}

// ParseQuantity converts raw quantity input into a positive integer.
func ParseQuantity(raw string) (int, error) {
	trimmed := strings.TrimSpace(raw)
	qty, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, &InvalidInputError{Field: "quantity", Reason: "must be a number"}
	}
	if qty <= 0 {
		return 0, &InvalidInputError{Field: "quantity", Reason: "must be greater than zero"}
	}
	return qty, nil
}

// ParseCommission converts raw commission input into an optional override.
// Blank input means no override.
func ParseCommission(raw string) (*float64, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	pct, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, &InvalidInputError{Field: "commission", Reason: "must be a number"}
	}
	if pct < 0 || pct > 100 {
		return nil, &InvalidInputError{Field: "commission", Reason: "must be between 0 and 100"}
	}
	return &pct, nil
}

// AddLineItem validates the request against the product snapshot and, on success,
// returns a fully derived line item. Validation is ordered and the first failure
// wins: product resolvable, quantity positive, quantity within stock, commission
// in range. Stock is not mutated here; the persistence layer re-validates and
// decrements inside its transaction.
func AddLineItem(product *Product, quantity int, commissionOverride *float64, dealerName string) (LineItem, error) {
	if product == nil {
		return LineItem{}, ErrProductNotFound
	}
	if quantity <= 0 {
		return LineItem{}, &InvalidInputError{Field: "quantity", Reason: "must be greater than zero"}
	}
	if quantity > product.Quantity {
		return LineItem{}, &InsufficientStockError{Available: product.Quantity}
	}
	commission := EffectiveCommission(product, commissionOverride)
	if commission < 0 || commission > 100 {
		return LineItem{}, &InvalidInputError{Field: "commission", Reason: "must be between 0 and 100"}
	}

	itemAmount := float64(quantity) * product.Rate
	return LineItem{
		ProductID:         product.ID,
		ProductName:       product.Name,
		Quantity:          quantity,
		Rate:              product.Rate,
		CommissionPercent: commission,
		ItemAmount:        itemAmount,
		CommissionAmount:  itemAmount * commission / 100,
		DealerName:        NormalizeDealer(dealerName),
		StockAtAdd:        product.Quantity,
	}, nil
}

// EffectiveCommission resolves the commission percent for a line: explicit
// override first, then the product's own percent, then the default.
func EffectiveCommission(product *Product, override *float64) float64 {
	if override != nil {
		return *override
	}
	if product != nil && product.CommissionPercent != nil {
		return *product.CommissionPercent
	}
	return DefaultCommissionPercent
}

// NormalizeDealer substitutes the sentinel label for blank dealer names.
func NormalizeDealer(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return DealerNotSpecified
	}
	return trimmed
}

// RemoveLineItem drops exactly the entry at index, keyed by position rather
// than field equality so duplicate lines never shadow each other. The input
// slice is left untouched.
func RemoveLineItem(items []LineItem, index int) []LineItem {
	if index < 0 || index >= len(items) {
		return items
	}
	out := make([]LineItem, 0, len(items)-1)
	out = append(out, items[:index]...)
	out = append(out, items[index+1:]...)
	return out
}

// ComputeBillTotals sums item and commission amounts and applies the bill-level
// discount to their combined value.
func ComputeBillTotals(items []LineItem, discountPercent float64) Totals {
	var totals Totals
	for _, it := range items {
		totals.ItemsTotal += it.ItemAmount
		totals.CommissionTotal += it.CommissionAmount
	}
	totals.GrandTotal = (totals.ItemsTotal + totals.CommissionTotal) * (1 - discountPercent/100)
	return totals
}

// VerifyStoredTotal recomputes a bill's total from its items and reports whether
// the stored value agrees within tolerance. The stored value stays authoritative
// either way; a mismatch is an integrity signal for logging, not a failure.
func VerifyStoredTotal(items []LineItem, discountPercent, storedTotal float64) (float64, bool) {
	recomputed := ComputeBillTotals(items, discountPercent).GrandTotal
	return recomputed, math.Abs(recomputed-storedTotal) <= TotalTolerance
}
