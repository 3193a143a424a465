package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/simdi-agro/billing-api/internal/billing"
	"github.com/simdi-agro/billing-api/internal/catalog"
	"github.com/simdi-agro/billing-api/internal/obs"
)

// BillSource supplies the full bill set for statistics. Aggregations run over
// every bill, never a single page, so global figures cannot silently truncate.
type BillSource interface {
	ListAllBills(ctx context.Context) ([]billing.Bill, error)
}

// ProductSource supplies the current catalog snapshot.
type ProductSource interface {
	ListProducts(ctx context.Context, search string) ([]catalog.Product, error)
}

const (
	keyTopProducts  = "an:top-products"
	keyRevenue      = "an:revenue"
	keyTopCustomers = "an:top-customers"
	keyTopDealers   = "an:top-dealers"
	keyDashboard    = "an:dashboard"
)

var statKeys = []string{keyTopProducts, keyRevenue, keyTopCustomers, keyTopDealers, keyDashboard}

// Service provides cached statistics computed over the full bill history.
type Service struct {
	Bills    BillSource
	Products ProductSource
	R        *redis.Client
	TTL      time.Duration

	TopProductsLimit  int
	TopCustomersLimit int
	TopDealersLimit   int
	RevenueMonths     int
	DashboardDays     int
	RecentBills       int

	Now func() time.Time
}

// Dashboard is the landing-page summary payload.
type Dashboard struct {
	TotalProducts    int            `json:"totalProducts"`
	InventoryValue   float64        `json:"inventoryValue"`
	TransactionCount int            `json:"transactionCount"`
	TotalRevenue     float64        `json:"totalRevenue"`
	RecentBills      []billing.Bill `json:"recentBills"`
	DailyRevenue     []RevenuePoint `json:"dailyRevenue"`
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// TopProducts returns units sold per product, best sellers first.
func (s *Service) TopProducts(ctx context.Context) ([]ProductStat, error) {
	var stats []ProductStat
	if s.fromCache(ctx, keyTopProducts, &stats) {
		return stats, nil
	}
	bills, products, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	stats = AggregateByProduct(bills, products, s.limit(s.TopProductsLimit, 6))
	s.store(ctx, keyTopProducts, stats)
	return stats, nil
}

// Revenue returns monthly revenue buckets ending in the current month.
func (s *Service) Revenue(ctx context.Context) ([]RevenuePoint, error) {
	var points []RevenuePoint
	if s.fromCache(ctx, keyRevenue, &points) {
		return points, nil
	}
	bills, err := s.loadBills(ctx)
	if err != nil {
		return nil, err
	}
	points = AggregateByTimeBucket(bills, s.limit(s.RevenueMonths, 6), BucketMonthly, s.now())
	s.store(ctx, keyRevenue, points)
	return points, nil
}

// TopCustomers returns spend per customer, biggest spenders first.
func (s *Service) TopCustomers(ctx context.Context) ([]CustomerStat, error) {
	var stats []CustomerStat
	if s.fromCache(ctx, keyTopCustomers, &stats) {
		return stats, nil
	}
	bills, err := s.loadBills(ctx)
	if err != nil {
		return nil, err
	}
	stats = AggregateByCustomer(bills, s.limit(s.TopCustomersLimit, 5))
	s.store(ctx, keyTopCustomers, stats)
	return stats, nil
}

// TopDealers returns commission earned per dealer, highest first.
func (s *Service) TopDealers(ctx context.Context) ([]DealerStat, error) {
	var stats []DealerStat
	if s.fromCache(ctx, keyTopDealers, &stats) {
		return stats, nil
	}
	bills, err := s.loadBills(ctx)
	if err != nil {
		return nil, err
	}
	stats = AggregateByDealer(bills, s.limit(s.TopDealersLimit, 5))
	s.store(ctx, keyTopDealers, stats)
	return stats, nil
}

// Dashboard returns the landing-page summary.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	var dash Dashboard
	if s.fromCache(ctx, keyDashboard, &dash) {
		return dash, nil
	}
	bills, products, err := s.load(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	dash.TotalProducts = len(products)
	for _, p := range products {
		dash.InventoryValue += p.StockValue()
	}
	dash.TransactionCount = len(bills)
	for _, b := range bills {
		dash.TotalRevenue += b.TotalAmount
	}

	recent := s.limit(s.RecentBills, 5)
	dash.RecentBills = []billing.Bill{}
	// bills arrive oldest first; walk backwards for the latest
	for i := len(bills) - 1; i >= 0 && len(dash.RecentBills) < recent; i-- {
		dash.RecentBills = append(dash.RecentBills, bills[i])
	}
	dash.DailyRevenue = AggregateByTimeBucket(bills, s.limit(s.DashboardDays, 7), BucketDaily, s.now())

	s.store(ctx, keyDashboard, dash)
	return dash, nil
}

// InvalidateStats drops every cached statistic. Bill creation calls this so
// dashboards reflect new sales immediately.
func (s *Service) InvalidateStats(ctx context.Context) {
	if s == nil || s.R == nil {
		return
	}
	_ = s.R.Del(ctx, statKeys...).Err()
}

// Warmup precomputes every statistic into cache. The background worker runs it
// on a schedule so interactive requests rarely pay the full-scan cost.
func (s *Service) Warmup(ctx context.Context) error {
	s.InvalidateStats(ctx)
	if _, err := s.TopProducts(ctx); err != nil {
		return fmt.Errorf("warm top products: %w", err)
	}
	if _, err := s.Revenue(ctx); err != nil {
		return fmt.Errorf("warm revenue: %w", err)
	}
	if _, err := s.TopCustomers(ctx); err != nil {
		return fmt.Errorf("warm top customers: %w", err)
	}
	if _, err := s.TopDealers(ctx); err != nil {
		return fmt.Errorf("warm top dealers: %w", err)
	}
	if _, err := s.Dashboard(ctx); err != nil {
		return fmt.Errorf("warm dashboard: %w", err)
	}
	return nil
}

func (s *Service) load(ctx context.Context) ([]billing.Bill, []catalog.Product, error) {
	bills, err := s.loadBills(ctx)
	if err != nil {
		return nil, nil, err
	}
	if s.Products == nil {
		return bills, nil, fmt.Errorf("analytics service not configured")
	}
	products, err := s.Products.ListProducts(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	return bills, products, nil
}

func (s *Service) loadBills(ctx context.Context) ([]billing.Bill, error) {
	if s == nil || s.Bills == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	return s.Bills.ListAllBills(ctx)
}

func (s *Service) fromCache(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		s.countCache("miss")
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.countCache("miss")
		return false
	}
	s.countCache("hit")
	return true
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}

func (s *Service) countCache(result string) {
	if obs.AnalyticsCacheTotal != nil {
		obs.AnalyticsCacheTotal.WithLabelValues(result).Inc()
	}
}

func (s *Service) limit(configured, fallback int) int {
	if configured > 0 {
		return configured
	}
	return fallback
}
