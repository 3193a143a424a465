package analytics

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simdi-agro/billing-api/internal/common"
)

// Handler exposes analytics read endpoints.
type Handler struct {
	Svc *Service
}

// Routes mounts analytics endpoints on the router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/top-products", h.TopProducts)
	r.Get("/revenue", h.Revenue)
	r.Get("/top-customers", h.TopCustomers)
	r.Get("/top-dealers", h.TopDealers)
}

// TopProducts handles GET /api/v1/analytics/top-products.
func (h *Handler) TopProducts(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.TopProducts(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data":   stats,
		"colors": LegendColors(len(stats)),
	})
}

// Revenue handles GET /api/v1/analytics/revenue.
func (h *Handler) Revenue(w http.ResponseWriter, r *http.Request) {
	points, err := h.Svc.Revenue(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, points)
}

// TopCustomers handles GET /api/v1/analytics/top-customers.
func (h *Handler) TopCustomers(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.TopCustomers(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, stats)
}

// TopDealers handles GET /api/v1/analytics/top-dealers.
func (h *Handler) TopDealers(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.TopDealers(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, stats)
}

// DashboardHandler handles GET /api/v1/dashboard.
func (h *Handler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	dash, err := h.Svc.Dashboard(r.Context())
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.Data(w, http.StatusOK, dash)
}
