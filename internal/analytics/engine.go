package analytics

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/simdi-agro/billing-api/internal/billing"
	"github.com/simdi-agro/billing-api/internal/catalog"
)

// Fallback labels form a closed set so grouping keys stay consistent across
// every aggregation.
const (
	UnknownCustomer = "Unknown Customer"
	UnknownDealer   = "Unknown Dealer"
)

// FallbackProductLabel names a line whose product left the catalog and whose
// frozen name is missing.
func FallbackProductLabel(id uuid.UUID) string {
	return "Product " + id.String()
}

// BucketUnit selects the calendar granularity for revenue bucketing.
type BucketUnit string

const (
	BucketDaily   BucketUnit = "daily"
	BucketMonthly BucketUnit = "monthly"
)

// ProductStat is units sold per product.
type ProductStat struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// CustomerStat is spend per customer.
type CustomerStat struct {
	Name             string  `json:"name"`
	TotalAmount      float64 `json:"totalAmount"`
	TransactionCount int     `json:"transactionCount"`
}

// DealerStat is commission earned per dealer.
type DealerStat struct {
	Name            string  `json:"name"`
	TotalCommission float64 `json:"totalCommission"`
	SalesCount      int     `json:"salesCount"`
}

// RevenuePoint is one chart bucket.
type RevenuePoint struct {
	Label   string  `json:"label"`
	Revenue float64 `json:"revenue"`
}

// AggregateByProduct flattens all line items, groups by resolved product name,
// and returns the topN groups by summed quantity. Resolution prefers the
// current catalog name, then the frozen line name, then a synthetic label.
// Ties keep first-encountered order.
func AggregateByProduct(bills []billing.Bill, products []catalog.Product, topN int) []ProductStat {
	names := make(map[uuid.UUID]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	totals := make(map[string]int)
	var order []string
	for _, bill := range bills {
		for _, item := range bill.Items {
			name := names[item.ProductID]
			if name == "" {
				name = item.ProductName
			}
			if name == "" {
				name = FallbackProductLabel(item.ProductID)
			}
			if _, seen := totals[name]; !seen {
				order = append(order, name)
			}
			totals[name] += item.Quantity
		}
	}

	stats := make([]ProductStat, 0, len(order))
	for _, name := range order {
		stats = append(stats, ProductStat{Name: name, Quantity: totals[name]})
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Quantity > stats[j].Quantity })
	return truncate(stats, topN)
}

// AggregateByTimeBucket builds bucketCount consecutive calendar buckets ending
// at reference (inclusive) and assigns each bill's whole total to the bucket
// matching its creation time. The result always has exactly bucketCount
// entries in chronological order; empty buckets report zero revenue.
func AggregateByTimeBucket(bills []billing.Bill, bucketCount int, unit BucketUnit, reference time.Time) []RevenuePoint {
	if bucketCount <= 0 {
		return []RevenuePoint{}
	}

	points := make([]RevenuePoint, bucketCount)
	index := make(map[string]int, bucketCount)
	for i := 0; i < bucketCount; i++ {
		offset := bucketCount - 1 - i
		var bucket time.Time
		switch unit {
		case BucketMonthly:
			// Offset from the first of the month. Offsetting the reference day
			// directly would normalize month-end dates forward (Mar 31 minus
			// one month is Mar 3) and collide bucket keys.
			first := time.Date(reference.Year(), reference.Month(), 1, 0, 0, 0, 0, reference.Location())
			bucket = first.AddDate(0, -offset, 0)
		default:
			bucket = reference.AddDate(0, 0, -offset)
		}
		key := bucketKey(bucket, unit)
		index[key] = i
		points[i] = RevenuePoint{Label: bucketLabel(bucket, unit)}
	}

	loc := reference.Location()
	for _, bill := range bills {
		if i, ok := index[bucketKey(bill.CreatedAt.In(loc), unit)]; ok {
			points[i].Revenue += bill.TotalAmount
		}
	}
	return points
}

// AggregateByCustomer groups bills by customer name and returns the topN by
// summed total. Blank names collapse into the unknown-customer label.
func AggregateByCustomer(bills []billing.Bill, topN int) []CustomerStat {
	type acc struct {
		total float64
		count int
	}
	totals := make(map[string]*acc)
	var order []string
	for _, bill := range bills {
		name := bill.CustomerName
		if name == "" {
			name = UnknownCustomer
		}
		a, seen := totals[name]
		if !seen {
			a = &acc{}
			totals[name] = a
			order = append(order, name)
		}
		a.total += bill.TotalAmount
		a.count++
	}

	stats := make([]CustomerStat, 0, len(order))
	for _, name := range order {
		stats = append(stats, CustomerStat{Name: name, TotalAmount: totals[name].total, TransactionCount: totals[name].count})
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].TotalAmount > stats[j].TotalAmount })
	return truncate(stats, topN)
}

// AggregateByDealer flattens line items, groups by dealer name, and returns
// the topN by commission earned. Commission falls back to being recomputed
// from rate, quantity, and percent when the stored amount is absent.
func AggregateByDealer(bills []billing.Bill, topN int) []DealerStat {
	type acc struct {
		commission float64
		count      int
	}
	totals := make(map[string]*acc)
	var order []string
	for _, bill := range bills {
		for _, item := range bill.Items {
			name := item.DealerName
			if name == "" {
				name = UnknownDealer
			}
			a, seen := totals[name]
			if !seen {
				a = &acc{}
				totals[name] = a
				order = append(order, name)
			}
			commission := item.CommissionAmount
			if commission == 0 && item.CommissionPercent > 0 {
				commission = item.Rate * float64(item.Quantity) * item.CommissionPercent / 100
			}
			a.commission += commission
			a.count++
		}
	}

	stats := make([]DealerStat, 0, len(order))
	for _, name := range order {
		stats = append(stats, DealerStat{Name: name, TotalCommission: totals[name].commission, SalesCount: totals[name].count})
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].TotalCommission > stats[j].TotalCommission })
	return truncate(stats, topN)
}

func bucketKey(ts time.Time, unit BucketUnit) string {
	if unit == BucketMonthly {
		return ts.Format("2006-01")
	}
	return ts.Format("2006-01-02")
}

func bucketLabel(ts time.Time, unit BucketUnit) string {
	if unit == BucketMonthly {
		return ts.Format("Jan 2006")
	}
	return ts.Format("02 Jan")
}

func truncate[T any](items []T, topN int) []T {
	if topN > 0 && len(items) > topN {
		return items[:topN]
	}
	return items
}
