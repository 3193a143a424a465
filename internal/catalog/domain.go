package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/simdi-agro/billing-api/internal/pricing"
)

// Product is a catalog entry. CommissionPercent is nil when the product has no
// commission configured; billing falls back to the engine default.
type Product struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Quantity          int       `json:"quantity"`
	Rate              float64   `json:"rate"`
	CommissionPercent *float64  `json:"commissionPercent,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Snapshot converts the catalog row into the point-in-time view the pricing
// engine consumes.
func (p Product) Snapshot() pricing.Product {
	return pricing.Product{
		ID:                p.ID,
		Name:              p.Name,
		Quantity:          p.Quantity,
		Rate:              p.Rate,
		CommissionPercent: p.CommissionPercent,
	}
}

// StockValue is quantity x rate, the inventory worth shown on the dashboard.
func (p Product) StockValue() float64 {
	return float64(p.Quantity) * p.Rate
}

// ProductInput captures the create/update payload.
type ProductInput struct {
	Name              string   `json:"name" validate:"required,min=1,max=200"`
	Quantity          int      `json:"quantity" validate:"gte=0"`
	Rate              float64  `json:"rate" validate:"gt=0"`
	CommissionPercent *float64 `json:"commissionPercent" validate:"omitempty,gte=0,lte=100"`
}
