package report

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/simdi-agro/billing-api/internal/common"
)

// Handler exposes the invoice download endpoint.
type Handler struct {
	Svc *Service
}

// InvoicePDF handles GET /api/v1/bills/{id}/pdf.
func (h *Handler) InvoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid bill id", map[string]any{"field": "id"})
		return
	}
	pdf, err := h.Svc.InvoicePDF(r.Context(), id)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%s.pdf"`, id))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
