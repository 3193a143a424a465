package pricing

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func sampleProduct() *Product {
	pct := 3.0
	return &Product{
		ID:                uuid.New(),
		Name:              "Urea 45kg",
		Quantity:          10,
		Rate:              500,
		CommissionPercent: &pct,
	}
}

func TestAddLineItemDerivesAmounts(t *testing.T) {
	item, err := AddLineItem(sampleProduct(), 4, nil, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.ItemAmount != 2000 {
		t.Fatalf("expected item amount 2000, got %v", item.ItemAmount)
	}
	if item.CommissionAmount != 60 {
		t.Fatalf("expected commission amount 60, got %v", item.CommissionAmount)
	}
	if item.CommissionPercent != 3 {
		t.Fatalf("expected resolved commission 3, got %v", item.CommissionPercent)
	}
	if item.DealerName != DealerNotSpecified {
		t.Fatalf("expected dealer sentinel, got %q", item.DealerName)
	}
	if item.StockAtAdd != 10 {
		t.Fatalf("expected stock at add 10, got %d", item.StockAtAdd)
	}
}

func TestAddLineItemInsufficientStock(t *testing.T) {
	_, err := AddLineItem(sampleProduct(), 11, nil, "")
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Available != 10 {
		t.Fatalf("expected available 10, got %d", stockErr.Available)
	}
}

func TestAddLineItemStockBoundary(t *testing.T) {
	item, err := AddLineItem(sampleProduct(), 10, nil, "Ravi Traders")
	if err != nil {
		t.Fatalf("quantity equal to stock must succeed: %v", err)
	}
	if item.Quantity != 10 {
		t.Fatalf("expected quantity 10, got %d", item.Quantity)
	}
	if item.DealerName != "Ravi Traders" {
		t.Fatalf("expected dealer kept, got %q", item.DealerName)
	}
}

func TestAddLineItemNilProduct(t *testing.T) {
	if _, err := AddLineItem(nil, 1, nil, ""); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestAddLineItemInvalidQuantity(t *testing.T) {
	_, err := AddLineItem(sampleProduct(), 0, nil, "")
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) || invalid.Field != "quantity" {
		t.Fatalf("expected invalid quantity error, got %v", err)
	}
}

func TestAddLineItemCommissionOverride(t *testing.T) {
	override := 5.0
	item, err := AddLineItem(sampleProduct(), 2, &override, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item.CommissionPercent != 5 {
		t.Fatalf("expected override commission 5, got %v", item.CommissionPercent)
	}
	if item.CommissionAmount != 50 {
		t.Fatalf("expected commission amount 50, got %v", item.CommissionAmount)
	}
}

func TestAddLineItemCommissionOutOfRange(t *testing.T) {
	override := 120.0
	_, err := AddLineItem(sampleProduct(), 2, &override, "")
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) || invalid.Field != "commission" {
		t.Fatalf("expected invalid commission error, got %v", err)
	}
}

func TestEffectiveCommissionDefault(t *testing.T) {
	product := sampleProduct()
	product.CommissionPercent = nil
	if got := EffectiveCommission(product, nil); got != DefaultCommissionPercent {
		t.Fatalf("expected default commission %v, got %v", DefaultCommissionPercent, got)
	}
}

func TestParseQuantity(t *testing.T) {
	if qty, err := ParseQuantity(" 4 "); err != nil || qty != 4 {
		t.Fatalf("expected 4, got %d err %v", qty, err)
	}
	var invalid *InvalidInputError
	if _, err := ParseQuantity("abc"); !errors.As(err, &invalid) || invalid.Field != "quantity" {
		t.Fatalf("expected invalid quantity error, got %v", err)
	}
	if _, err := ParseQuantity("-2"); !errors.As(err, &invalid) || invalid.Field != "quantity" {
		t.Fatalf("expected invalid quantity error for negative, got %v", err)
	}
}

func TestParseCommission(t *testing.T) {
	if pct, err := ParseCommission(""); err != nil || pct != nil {
		t.Fatalf("blank commission must mean no override, got %v err %v", pct, err)
	}
	pct, err := ParseCommission("4.5")
	if err != nil || pct == nil || *pct != 4.5 {
		t.Fatalf("expected 4.5, got %v err %v", pct, err)
	}
	var invalid *InvalidInputError
	if _, err := ParseCommission("101"); !errors.As(err, &invalid) || invalid.Field != "commission" {
		t.Fatalf("expected invalid commission error, got %v", err)
	}
}

func TestRemoveLineItemByPosition(t *testing.T) {
	product := sampleProduct()
	first, _ := AddLineItem(product, 2, nil, "")
	second, _ := AddLineItem(product, 2, nil, "")
	items := []LineItem{first, second}

	// Two identical lines: removal must be positional, not value based.
	out := RemoveLineItem(items, 0)
	if len(out) != 1 {
		t.Fatalf("expected one remaining item, got %d", len(out))
	}
	if len(items) != 2 {
		t.Fatalf("input slice must not be mutated, got len %d", len(items))
	}

	if got := RemoveLineItem(items, 5); len(got) != 2 {
		t.Fatalf("out-of-range index must be a no-op, got len %d", len(got))
	}
}

func TestComputeBillTotals(t *testing.T) {
	product := sampleProduct()
	a, _ := AddLineItem(product, 4, nil, "")
	b, _ := AddLineItem(product, 2, nil, "")
	items := []LineItem{a, b}

	totals := ComputeBillTotals(items, 0)
	if totals.ItemsTotal != 3000 {
		t.Fatalf("expected items total 3000, got %v", totals.ItemsTotal)
	}
	if totals.CommissionTotal != 90 {
		t.Fatalf("expected commission total 90, got %v", totals.CommissionTotal)
	}
	if totals.GrandTotal != totals.ItemsTotal+totals.CommissionTotal {
		t.Fatalf("zero discount grand total must equal items+commission, got %v", totals.GrandTotal)
	}

	again := ComputeBillTotals(items, 0)
	if again != totals {
		t.Fatalf("totals must be idempotent: %v vs %v", again, totals)
	}

	discounted := ComputeBillTotals(items, 10)
	if discounted.GrandTotal != 3090*0.9 {
		t.Fatalf("expected discounted grand total %v, got %v", 3090*0.9, discounted.GrandTotal)
	}
}

func TestVerifyStoredTotal(t *testing.T) {
	product := sampleProduct()
	item, _ := AddLineItem(product, 4, nil, "")
	items := []LineItem{item}

	if _, ok := VerifyStoredTotal(items, 0, 2060); !ok {
		t.Fatalf("exact stored total must verify")
	}
	if _, ok := VerifyStoredTotal(items, 0, 2060.009); !ok {
		t.Fatalf("stored total within tolerance must verify")
	}
	recomputed, ok := VerifyStoredTotal(items, 0, 2100)
	if ok {
		t.Fatalf("stored total off by 40 must not verify")
	}
	if recomputed != 2060 {
		t.Fatalf("expected recomputed 2060, got %v", recomputed)
	}
}
