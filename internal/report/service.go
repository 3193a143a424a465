package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/simdi-agro/billing-api/internal/billing"
	"github.com/simdi-agro/billing-api/internal/obs"
)

// BillGetter loads a bill for rendering.
type BillGetter interface {
	GetBill(ctx context.Context, id uuid.UUID) (*billing.Bill, error)
}

// Service renders bill invoices to PDF, serving repeat downloads from cache.
type Service struct {
	Bills    BillGetter
	Renderer Renderer
	R        *redis.Client
	TTL      time.Duration
}

func pdfCacheKey(billID uuid.UUID) string {
	return "report:invoice:" + billID.String()
}

// InvoicePDF returns the rendered invoice for a bill, from cache when possible.
func (s *Service) InvoicePDF(ctx context.Context, billID uuid.UUID) ([]byte, error) {
	if s == nil || s.Bills == nil || s.Renderer == nil {
		return nil, errors.New("report service not configured")
	}
	if s.R != nil {
		data, err := s.R.Get(ctx, pdfCacheKey(billID)).Bytes()
		if err == nil && len(data) > 0 {
			return data, nil
		}
	}
	return s.render(ctx, billID)
}

// Prerender renders and caches the invoice without returning it. The worker
// calls this right after bill creation so the first download is already warm.
func (s *Service) Prerender(ctx context.Context, billID uuid.UUID) error {
	if s == nil || s.Bills == nil || s.Renderer == nil {
		return errors.New("report service not configured")
	}
	_, err := s.render(ctx, billID)
	return err
}

func (s *Service) render(ctx context.Context, billID uuid.UUID) ([]byte, error) {
	bill, err := s.Bills.GetBill(ctx, billID)
	if err != nil {
		return nil, err
	}
	html, err := InvoiceHTML(*bill)
	if err != nil {
		s.countRender("error")
		return nil, err
	}
	start := time.Now()
	pdf, err := s.Renderer.RenderHTML(ctx, html)
	if err != nil {
		s.countRender("error")
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	s.countRender("success")
	if obs.PDFRenderLatency != nil {
		obs.PDFRenderLatency.Observe(obs.DurationMillis(time.Since(start)))
	}
	if s.R != nil && s.TTL > 0 {
		_ = s.R.Set(ctx, pdfCacheKey(billID), pdf, s.TTL).Err()
	}
	return pdf, nil
}

func (s *Service) countRender(result string) {
	if obs.PDFRenderTotal != nil {
		obs.PDFRenderTotal.WithLabelValues(result).Inc()
	}
}
