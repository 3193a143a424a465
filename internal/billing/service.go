package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/simdi-agro/billing-api/internal/common"
	"github.com/simdi-agro/billing-api/internal/obs"
	"github.com/simdi-agro/billing-api/internal/pricing"
)

// PDFPrerenderer enqueues background rendering of a bill's invoice so the
// client's immediate download request hits a warm cache.
type PDFPrerenderer interface {
	EnqueuePDFPrerender(ctx context.Context, billID uuid.UUID) error
}

// StatsInvalidator drops cached analytics after bill mutations.
type StatsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

// Service orchestrates bill creation, listing, and integrity checks.
type Service struct {
	repo         Repository
	validate     *validator.Validate
	logger       zerolog.Logger
	prerender    PDFPrerenderer
	stats        StatsInvalidator
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Repo         Repository
	Validate     *validator.Validate
	Logger       zerolog.Logger
	Prerender    PDFPrerenderer
	Stats        StatsInvalidator
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("billing: repository is required")
	}
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 5
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	return &Service{
		repo:         cfg.Repo,
		validate:     v,
		logger:       cfg.Logger,
		prerender:    cfg.Prerender,
		stats:        cfg.Stats,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// CreateBill validates the payload, prices and persists the bill, then kicks
// off cache invalidation and invoice prerendering.
func (s *Service) CreateBill(ctx context.Context, input CreateBillInput) (*Bill, error) {
	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return nil, common.BadRequest(first.Field(), fmt.Sprintf("invalid value for %s", first.Field()), err)
		}
		return nil, common.BadRequest("payload", "invalid payload", err)
	}

	reqs := make([]ItemRequest, 0, len(input.Items))
	for _, item := range input.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, common.BadRequest("productId", "invalid product id", err)
		}
		reqs = append(reqs, ItemRequest{
			ProductID:         productID,
			Quantity:          item.Quantity,
			DealerName:        item.DealerName,
			CommissionPercent: item.CommissionPercent,
		})
	}

	bill, err := s.repo.Create(ctx, input.CustomerName, input.DiscountPercent, reqs)
	if err != nil {
		s.countCreate("error")
		return nil, s.mapPricingErr(err)
	}
	s.countCreate("success")
	if obs.BillTotalAmount != nil {
		obs.BillTotalAmount.Observe(bill.TotalAmount)
	}
	if s.stats != nil {
		s.stats.InvalidateStats(ctx)
	}
	if s.prerender != nil {
		if err := s.prerender.EnqueuePDFPrerender(ctx, bill.ID); err != nil {
			s.logger.Warn().Err(err).Str("bill_id", bill.ID.String()).Msg("enqueue invoice prerender failed")
		}
	}
	return bill, nil
}

// GetBill returns a single bill and verifies its stored total still reproduces
// from its items. A mismatch is logged, never surfaced: the stored value stays
// authoritative for display.
func (s *Service) GetBill(ctx context.Context, id uuid.UUID) (*Bill, error) {
	bill, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NotFound("bill not found", err)
		}
		return nil, err
	}
	s.checkIntegrity(bill)
	return bill, nil
}

// ListBills returns a filtered page of bills.
func (s *Service) ListBills(ctx context.Context, params ListParams) (ListResult, error) {
	result, err := s.repo.List(ctx, params)
	if err != nil {
		return ListResult{}, err
	}
	if result.Bills == nil {
		result.Bills = []Bill{}
	}
	for i := range result.Bills {
		s.checkIntegrity(&result.Bills[i])
	}
	return result, nil
}

// ListAllBills returns every bill for server-side statistics. Aggregations
// must run over the full set, not a single page, or global figures understate.
func (s *Service) ListAllBills(ctx context.Context) ([]Bill, error) {
	return s.repo.ListAll(ctx)
}

// Dealers returns distinct dealer names for the filter dropdown.
func (s *Service) Dealers(ctx context.Context) ([]string, error) {
	return s.repo.Dealers(ctx)
}

// ParseListParams normalises raw query values into listing filters. Bare
// YYYY-MM-DD dates are interpreted as UTC day boundaries; clients wanting
// shop-local boundaries send full RFC3339 timestamps with an offset.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	params := ListParams{Page: 1, Limit: s.defaultLimit}
	params.Customer = strings.TrimSpace(values.Get("customer"))
	params.Dealer = strings.TrimSpace(values.Get("dealer"))

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, common.BadRequest("page", "page must be a positive integer", err)
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return params, common.BadRequest("limit", "limit must be a positive integer", err)
		}
		params.Limit = limit
	}
	if params.Limit > s.maxLimit {
		params.Limit = s.maxLimit
	}

	if v := strings.TrimSpace(values.Get("startDate")); v != "" {
		start, err := parseDate(v, false)
		if err != nil {
			return params, common.BadRequest("startDate", "startDate must be an RFC3339 timestamp or YYYY-MM-DD", err)
		}
		params.StartAt = &start
	}
	if v := strings.TrimSpace(values.Get("endDate")); v != "" {
		end, err := parseDate(v, true)
		if err != nil {
			return params, common.BadRequest("endDate", "endDate must be an RFC3339 timestamp or YYYY-MM-DD", err)
		}
		params.EndAt = &end
	}
	if params.StartAt != nil && params.EndAt != nil && params.StartAt.After(*params.EndAt) {
		return params, common.BadRequest("startDate", "startDate cannot be after endDate", fmt.Errorf("invalid date range"))
	}
	return params, nil
}

func (s *Service) checkIntegrity(bill *Bill) {
	if bill == nil || len(bill.Items) == 0 {
		return
	}
	recomputed, ok := pricing.VerifyStoredTotal(bill.LineItems(), bill.DiscountPercent, bill.TotalAmount)
	if ok {
		return
	}
	if obs.TotalMismatchTotal != nil {
		obs.TotalMismatchTotal.Inc()
	}
	s.logger.Warn().
		Str("bill_id", bill.ID.String()).
		Float64("stored_total", bill.TotalAmount).
		Float64("recomputed_total", recomputed).
		Msg("stored bill total does not reproduce from items")
}

func (s *Service) mapPricingErr(err error) error {
	if errors.Is(err, pricing.ErrProductNotFound) {
		return common.NotFound("product not found", err)
	}
	var invalid *pricing.InvalidInputError
	if errors.As(err, &invalid) {
		return common.BadRequest(invalid.Field, invalid.Error(), err)
	}
	var stock *pricing.InsufficientStockError
	if errors.As(err, &stock) {
		if obs.StockRejectionsTotal != nil {
			obs.StockRejectionsTotal.Inc()
		}
		return &common.AppError{
			Code:       "INSUFFICIENT_STOCK",
			Message:    stock.Error(),
			HTTPStatus: http.StatusUnprocessableEntity,
			Err:        err,
			Details:    map[string]any{"available": stock.Available},
		}
	}
	return err
}

func (s *Service) countCreate(result string) {
	if obs.BillsCreatedTotal != nil {
		obs.BillsCreatedTotal.WithLabelValues(result).Inc()
	}
}

// parseDate accepts RFC3339 timestamps or bare dates. Bare dates resolve in
// UTC, and bare end dates extend to the end of that day so the range stays
// inclusive.
func parseDate(value string, endOfDay bool) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		return day.Add(24*time.Hour - time.Nanosecond), nil
	}
	return day, nil
}
