package analytics

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/simdi-agro/billing-api/internal/billing"
	"github.com/simdi-agro/billing-api/internal/catalog"
)

func billWith(customer string, total float64, createdAt time.Time, items ...billing.BillItem) billing.Bill {
	return billing.Bill{
		ID:           uuid.New(),
		CustomerName: customer,
		TotalAmount:  total,
		CreatedAt:    createdAt,
		Items:        items,
	}
}

func TestAggregateByProduct(t *testing.T) {
	ureaID := uuid.New()
	dapID := uuid.New()
	goneID := uuid.New()
	products := []catalog.Product{
		{ID: ureaID, Name: "Urea 45kg"},
		{ID: dapID, Name: "DAP 50kg"},
	}
	now := time.Now()
	bills := []billing.Bill{
		billWith("A", 0, now,
			billing.BillItem{ProductID: ureaID, Quantity: 4},
			billing.BillItem{ProductID: dapID, Quantity: 10},
		),
		billWith("B", 0, now,
			billing.BillItem{ProductID: ureaID, Quantity: 3},
			billing.BillItem{ProductID: goneID, Quantity: 1},
		),
	}

	stats := AggregateByProduct(bills, products, 6)
	if len(stats) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(stats))
	}
	if stats[0].Name != "DAP 50kg" || stats[0].Quantity != 10 {
		t.Fatalf("expected DAP 50kg/10 first, got %+v", stats[0])
	}
	if stats[1].Name != "Urea 45kg" || stats[1].Quantity != 7 {
		t.Fatalf("expected Urea 45kg/7 second, got %+v", stats[1])
	}
	if stats[2].Name != FallbackProductLabel(goneID) {
		t.Fatalf("expected synthetic label for missing product, got %q", stats[2].Name)
	}
}

func TestAggregateByProductTruncatesAndStableTies(t *testing.T) {
	aID, bID, cID := uuid.New(), uuid.New(), uuid.New()
	products := []catalog.Product{
		{ID: aID, Name: "Alpha"},
		{ID: bID, Name: "Beta"},
		{ID: cID, Name: "Gamma"},
	}
	bills := []billing.Bill{
		billWith("x", 0, time.Now(),
			billing.BillItem{ProductID: aID, Quantity: 5},
			billing.BillItem{ProductID: bID, Quantity: 5},
			billing.BillItem{ProductID: cID, Quantity: 5},
		),
	}

	first := AggregateByProduct(bills, products, 2)
	if len(first) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(first))
	}
	// tie order must be first-encountered and reproducible
	for i := 0; i < 5; i++ {
		again := AggregateByProduct(bills, products, 2)
		if again[0].Name != "Alpha" || again[1].Name != "Beta" {
			t.Fatalf("tie order not stable on run %d: %+v", i, again)
		}
	}
}

func TestAggregateByTimeBucketDaily(t *testing.T) {
	day0 := time.Date(2026, 8, 28, 14, 0, 0, 0, time.UTC)
	bills := []billing.Bill{
		billWith("A", 1000, day0),
		billWith("B", 500, day0),
		billWith("old", 9999, day0.AddDate(0, 0, -30)),
	}

	points := AggregateByTimeBucket(bills, 7, BucketDaily, day0)
	if len(points) != 7 {
		t.Fatalf("expected exactly 7 buckets, got %d", len(points))
	}
	if points[6].Revenue != 1500 {
		t.Fatalf("expected last bucket revenue 1500, got %v", points[6].Revenue)
	}
	for i := 0; i < 6; i++ {
		if points[i].Revenue != 0 {
			t.Fatalf("expected bucket %d empty, got %v", i, points[i].Revenue)
		}
	}
}

func TestAggregateByTimeBucketMonthly(t *testing.T) {
	ref := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	bills := []billing.Bill{
		billWith("A", 100, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)),
		billWith("B", 200, time.Date(2026, 7, 31, 23, 59, 0, 0, time.UTC)),
		billWith("C", 400, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)),
	}

	points := AggregateByTimeBucket(bills, 6, BucketMonthly, ref)
	if len(points) != 6 {
		t.Fatalf("expected 6 buckets, got %d", len(points))
	}
	if points[5].Revenue != 100 {
		t.Fatalf("expected current month 100, got %v", points[5].Revenue)
	}
	if points[4].Revenue != 200 {
		t.Fatalf("expected previous month 200, got %v", points[4].Revenue)
	}
	// february is outside the six month window
	var sum float64
	for _, p := range points {
		sum += p.Revenue
	}
	if sum != 300 {
		t.Fatalf("expected out-of-window bill ignored, sum %v", sum)
	}
	if points[0].Label != "Mar 2026" || points[5].Label != "Aug 2026" {
		t.Fatalf("expected chronological labels Mar..Aug, got %q..%q", points[0].Label, points[5].Label)
	}
}

func TestAggregateByTimeBucketMonthlyFromMonthEnd(t *testing.T) {
	// A month-end reference must not skew the window: offsetting Mar 31 by
	// whole months would land on Mar 3 instead of Feb and drop buckets.
	ref := time.Date(2026, 3, 31, 18, 30, 0, 0, time.UTC)
	bills := []billing.Bill{
		billWith("A", 700, time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)),
		billWith("B", 100, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC)),
	}

	points := AggregateByTimeBucket(bills, 6, BucketMonthly, ref)
	if len(points) != 6 {
		t.Fatalf("expected 6 buckets, got %d", len(points))
	}
	wantLabels := []string{"Oct 2025", "Nov 2025", "Dec 2025", "Jan 2026", "Feb 2026", "Mar 2026"}
	for i, want := range wantLabels {
		if points[i].Label != want {
			t.Fatalf("bucket %d: expected label %q, got %q", i, want, points[i].Label)
		}
	}
	if points[4].Revenue != 700 {
		t.Fatalf("expected february revenue 700, got %v", points[4].Revenue)
	}
	if points[5].Revenue != 100 {
		t.Fatalf("expected march revenue 100, got %v", points[5].Revenue)
	}
	var sum float64
	for _, p := range points {
		sum += p.Revenue
	}
	if sum != 800 {
		t.Fatalf("expected total 800 across window, got %v", sum)
	}
}

func TestAggregateByTimeBucketEmptyInput(t *testing.T) {
	points := AggregateByTimeBucket(nil, 7, BucketDaily, time.Now())
	if len(points) != 7 {
		t.Fatalf("expected 7 zero buckets, got %d", len(points))
	}
	for _, p := range points {
		if p.Revenue != 0 {
			t.Fatalf("expected zero revenue, got %v", p.Revenue)
		}
	}
}

func TestAggregateByCustomer(t *testing.T) {
	now := time.Now()
	bills := []billing.Bill{
		billWith("Anand", 1000, now),
		billWith("Anand", 500, now),
		billWith("Bhavesh", 2000, now),
		billWith("", 50, now),
	}

	stats := AggregateByCustomer(bills, 5)
	if len(stats) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(stats))
	}
	if stats[0].Name != "Bhavesh" || stats[0].TotalAmount != 2000 {
		t.Fatalf("expected Bhavesh first, got %+v", stats[0])
	}
	if stats[1].Name != "Anand" || stats[1].TotalAmount != 1500 || stats[1].TransactionCount != 2 {
		t.Fatalf("expected Anand 1500/2, got %+v", stats[1])
	}
	if stats[2].Name != UnknownCustomer {
		t.Fatalf("expected unknown-customer label, got %q", stats[2].Name)
	}
}

func TestAggregateByDealer(t *testing.T) {
	now := time.Now()
	bills := []billing.Bill{
		billWith("A", 0, now,
			billing.BillItem{DealerName: "Sharma Agro", CommissionAmount: 60, Quantity: 4, Rate: 500, CommissionPercent: 3},
			billing.BillItem{DealerName: "", Rate: 100, Quantity: 2, CommissionPercent: 5},
		),
		billWith("B", 0, now,
			billing.BillItem{DealerName: "Sharma Agro", CommissionAmount: 30, Quantity: 2, Rate: 500, CommissionPercent: 3},
		),
	}

	stats := AggregateByDealer(bills, 5)
	if len(stats) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(stats))
	}
	if stats[0].Name != "Sharma Agro" || stats[0].TotalCommission != 90 || stats[0].SalesCount != 2 {
		t.Fatalf("expected Sharma Agro 90/2, got %+v", stats[0])
	}
	// commission missing on the stored row: recomputed as 100*2*5/100 = 10
	if stats[1].Name != UnknownDealer || stats[1].TotalCommission != 10 {
		t.Fatalf("expected unknown dealer with recomputed commission 10, got %+v", stats[1])
	}
}

func TestAggregationIdempotent(t *testing.T) {
	now := time.Now()
	bills := []billing.Bill{
		billWith("Anand", 1000, now, billing.BillItem{ProductID: uuid.New(), Quantity: 2, DealerName: "X", CommissionAmount: 5}),
	}
	c1 := AggregateByCustomer(bills, 5)
	c2 := AggregateByCustomer(bills, 5)
	if len(c1) != len(c2) || c1[0] != c2[0] {
		t.Fatalf("customer aggregation not idempotent: %+v vs %+v", c1, c2)
	}
	d1 := AggregateByDealer(bills, 5)
	d2 := AggregateByDealer(bills, 5)
	if len(d1) != len(d2) || d1[0] != d2[0] {
		t.Fatalf("dealer aggregation not idempotent: %+v vs %+v", d1, d2)
	}
}

func TestLegendColors(t *testing.T) {
	colors := LegendColors(12)
	if len(colors) != 12 {
		t.Fatalf("expected 12 colors, got %d", len(colors))
	}
	for _, c := range colors {
		if len(c) != 7 || c[0] != '#' {
			t.Fatalf("expected hex color, got %q", c)
		}
	}
	if len(LegendColors(0)) != 0 {
		t.Fatalf("expected no colors for zero entries")
	}
}
