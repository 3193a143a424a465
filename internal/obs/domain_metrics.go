package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// BillsCreatedTotal counts bill creation outcomes.
	BillsCreatedTotal *prometheus.CounterVec
	// BillTotalAmount observes the grand total of successfully created bills.
	BillTotalAmount prometheus.Histogram
	// StockRejectionsTotal counts line items rejected for insufficient stock.
	StockRejectionsTotal prometheus.Counter
	// AnalyticsCacheTotal counts analytics cache lookups by result (hit/miss).
	AnalyticsCacheTotal *prometheus.CounterVec
	// PDFRenderTotal counts invoice PDF render outcomes.
	PDFRenderTotal *prometheus.CounterVec
	// PDFRenderLatency records invoice render latency in milliseconds.
	PDFRenderLatency prometheus.Histogram
	// TotalMismatchTotal counts stored bill totals that no longer reproduce from their items.
	TotalMismatchTotal prometheus.Counter
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		BillsCreatedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bills_created_total",
			Help:      "Count of bill creation attempts by outcome.",
		}, []string{"result"})
		BillTotalAmount = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "bill_total_amount",
			Help:      "Distribution of created bill grand totals.",
			Buckets:   []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
		})
		StockRejectionsTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stock_rejections_total",
			Help:      "Count of line items rejected because requested quantity exceeded stock.",
		})
		AnalyticsCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analytics_cache_total",
			Help:      "Analytics cache lookups by result.",
		}, []string{"result"})
		PDFRenderTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pdf_render_total",
			Help:      "Invoice PDF render outcomes.",
		}, []string{"result"})
		PDFRenderLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pdf_render_duration_ms",
			Help:      "Invoice PDF render latency in milliseconds.",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
		})
		TotalMismatchTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bill_total_mismatch_total",
			Help:      "Count of bills whose stored total failed the reconstruction check.",
		})
		reg.MustRegister(
			BillsCreatedTotal,
			BillTotalAmount,
			StockRejectionsTotal,
			AnalyticsCacheTotal,
			PDFRenderTotal,
			PDFRenderLatency,
			TotalMismatchTotal,
		)
	})
}
