package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/simdi-agro/billing-api/internal/pricing"
)

// BillItem is a persisted sale line. Name and rate are frozen copies taken at
// creation so catalog edits never rewrite history.
type BillItem struct {
	ID                uuid.UUID `json:"id"`
	ProductID         uuid.UUID `json:"productId"`
	ProductName       string    `json:"productName"`
	Quantity          int       `json:"quantity"`
	Rate              float64   `json:"rate"`
	CommissionPercent float64   `json:"commissionPercent"`
	ItemAmount        float64   `json:"itemAmount"`
	CommissionAmount  float64   `json:"commissionAmount"`
	DealerName        string    `json:"dealerName"`
}

// Bill is a persisted sale.
type Bill struct {
	ID              uuid.UUID  `json:"id"`
	CustomerName    string     `json:"customerName"`
	DiscountPercent float64    `json:"discountPercent"`
	TotalAmount     float64    `json:"totalAmount"`
	CreatedAt       time.Time  `json:"createdAt"`
	Items           []BillItem `json:"items"`
}

// LineItems converts persisted items back into engine line items so totals can
// be recomputed and verified against the stored value.
func (b Bill) LineItems() []pricing.LineItem {
	items := make([]pricing.LineItem, 0, len(b.Items))
	for _, it := range b.Items {
		items = append(items, pricing.LineItem{
			ProductID:         it.ProductID,
			ProductName:       it.ProductName,
			Quantity:          it.Quantity,
			Rate:              it.Rate,
			CommissionPercent: it.CommissionPercent,
			ItemAmount:        it.ItemAmount,
			CommissionAmount:  it.CommissionAmount,
			DealerName:        it.DealerName,
		})
	}
	return items
}

// ItemInput is one requested sale line. Quantity and commission are validated
// by the pricing engine so error ordering and messages stay uniform.
type ItemInput struct {
	ProductID         string   `json:"productId" validate:"required,uuid"`
	Quantity          int      `json:"quantity"`
	DealerName        string   `json:"dealerName"`
	CommissionPercent *float64 `json:"commissionPercent"`
}

// CreateBillInput is the bill creation payload.
type CreateBillInput struct {
	CustomerName    string      `json:"customerName" validate:"required,min=1,max=200"`
	DiscountPercent float64     `json:"discountPercent" validate:"gte=0,lte=100"`
	Items           []ItemInput `json:"items" validate:"required,min=1,dive"`
}

// ItemRequest is a parsed sale line handed to the repository.
type ItemRequest struct {
	ProductID         uuid.UUID
	Quantity          int
	DealerName        string
	CommissionPercent *float64
}

// ListParams captures bill listing filters and pagination.
type ListParams struct {
	Page     int
	Limit    int
	Customer string
	Dealer   string
	StartAt  *time.Time
	EndAt    *time.Time
}

// ListResult contains a page of bills plus the total match count.
type ListResult struct {
	Bills []Bill
	Total int
}
