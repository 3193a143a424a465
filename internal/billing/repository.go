package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/simdi-agro/billing-api/internal/pricing"
)

// ErrNotFound is returned when no bill matches the identifier.
var ErrNotFound = errors.New("bill not found")

// listAllBatchSize bounds each page fetched while iterating the full bill set
// for statistics. Aggregation walks every page so figures never truncate at a
// single page cap.
const listAllBatchSize = 500

// Repository persists bills and their line items.
type Repository interface {
	Create(ctx context.Context, customerName string, discountPercent float64, reqs []ItemRequest) (*Bill, error)
	Get(ctx context.Context, id uuid.UUID) (*Bill, error)
	List(ctx context.Context, params ListParams) (ListResult, error)
	ListAll(ctx context.Context) ([]Bill, error)
	Dealers(ctx context.Context) ([]string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a pgx-backed bill repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

// Create prices and persists a bill in one transaction. Product rows are
// locked, stock is re-validated through the pricing engine against the locked
// quantities, and decremented before the bill is written, so two concurrent
// submissions can never oversell.
func (r *repository) Create(ctx context.Context, customerName string, discountPercent float64, reqs []ItemRequest) (*Bill, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	ids := make([]uuid.UUID, 0, len(reqs))
	for _, req := range reqs {
		ids = append(ids, req.ProductID)
	}
	products, err := lockProducts(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]pricing.LineItem, 0, len(reqs))
	for _, req := range reqs {
		snapshot, ok := products[req.ProductID]
		if !ok {
			return nil, pricing.ErrProductNotFound
		}
		item, err := pricing.AddLineItem(&snapshot, req.Quantity, req.CommissionPercent, req.DealerName)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		// consume locked stock so duplicate lines for one product validate
		// against the remainder
		snapshot.Quantity -= req.Quantity
		products[req.ProductID] = snapshot
	}

	for id, snapshot := range products {
		if _, err := tx.Exec(ctx, "UPDATE products SET quantity = $1, updated_at = NOW() WHERE id = $2", snapshot.Quantity, id); err != nil {
			return nil, fmt.Errorf("decrement stock: %w", err)
		}
	}

	totals := pricing.ComputeBillTotals(items, discountPercent)
	bill := &Bill{
		CustomerName:    strings.TrimSpace(customerName),
		DiscountPercent: discountPercent,
		TotalAmount:     totals.GrandTotal,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO bills (customer_name, discount_percent, total_amount)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, bill.CustomerName, bill.DiscountPercent, bill.TotalAmount).Scan(&bill.ID, &bill.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert bill: %w", err)
	}

	bill.Items = make([]BillItem, 0, len(items))
	for lineNo, it := range items {
		row := BillItem{
			ProductID:         it.ProductID,
			ProductName:       it.ProductName,
			Quantity:          it.Quantity,
			Rate:              it.Rate,
			CommissionPercent: it.CommissionPercent,
			ItemAmount:        it.ItemAmount,
			CommissionAmount:  it.CommissionAmount,
			DealerName:        it.DealerName,
		}
		err := tx.QueryRow(ctx, `
			INSERT INTO bill_items (bill_id, line_no, product_id, product_name, quantity, rate, commission_percent, item_amount, commission_amount, dealer_name)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING id
		`, bill.ID, lineNo, row.ProductID, row.ProductName, row.Quantity, row.Rate, row.CommissionPercent, row.ItemAmount, row.CommissionAmount, row.DealerName).Scan(&row.ID)
		if err != nil {
			return nil, fmt.Errorf("insert bill item: %w", err)
		}
		bill.Items = append(bill.Items, row)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return bill, nil
}

func lockProducts(ctx context.Context, tx pgx.Tx, ids []uuid.UUID) (map[uuid.UUID]pricing.Product, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, name, quantity, rate, commission_percent
		FROM products
		WHERE id = ANY($1)
		FOR UPDATE
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]pricing.Product, len(ids))
	for rows.Next() {
		var p pricing.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Quantity, &p.Rate, &p.CommissionPercent); err != nil {
			return nil, err
		}
		out[p.ID] = p
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Bill, error) {
	var bill Bill
	err := r.pool.QueryRow(ctx, `
		SELECT id, customer_name, discount_percent, total_amount, created_at
		FROM bills WHERE id = $1
	`, id).Scan(&bill.ID, &bill.CustomerName, &bill.DiscountPercent, &bill.TotalAmount, &bill.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	itemsByBill, err := r.loadItems(ctx, []uuid.UUID{bill.ID})
	if err != nil {
		return nil, err
	}
	bill.Items = itemsByBill[bill.ID]
	return &bill, nil
}

func (r *repository) List(ctx context.Context, params ListParams) (ListResult, error) {
	var conditions []string
	var args []any
	argPos := 1

	if c := strings.TrimSpace(params.Customer); c != "" {
		conditions = append(conditions, fmt.Sprintf("customer_name ILIKE $%d", argPos))
		args = append(args, "%"+c+"%")
		argPos++
	}
	if d := strings.TrimSpace(params.Dealer); d != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM bill_items bi WHERE bi.bill_id = bills.id AND bi.dealer_name ILIKE $%d)", argPos))
		args = append(args, "%"+d+"%")
		argPos++
	}
	if params.StartAt != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argPos))
		args = append(args, *params.StartAt)
		argPos++
	}
	if params.EndAt != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= $%d", argPos))
		args = append(args, *params.EndAt)
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM bills %s", whereClause), args...).Scan(&total); err != nil {
		return ListResult{}, fmt.Errorf("count bills: %w", err)
	}

	offset := (params.Page - 1) * params.Limit
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`
		SELECT id, customer_name, discount_percent, total_amount, created_at
		FROM bills
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, whereClause, argPos, argPos+1)
	args = append(args, params.Limit, offset)

	bills, err := r.queryBills(ctx, query, args...)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Bills: bills, Total: total}, nil
}

// ListAll walks every bill in creation order, page by page, for statistics.
func (r *repository) ListAll(ctx context.Context) ([]Bill, error) {
	var all []Bill
	for offset := 0; ; offset += listAllBatchSize {
		batch, err := r.queryBills(ctx, `
			SELECT id, customer_name, discount_percent, total_amount, created_at
			FROM bills
			ORDER BY created_at ASC, id ASC
			LIMIT $1 OFFSET $2
		`, listAllBatchSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < listAllBatchSize {
			return all, nil
		}
	}
}

func (r *repository) Dealers(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT dealer_name FROM bill_items
		WHERE dealer_name <> ''
		ORDER BY dealer_name
	`)
	if err != nil {
		return nil, fmt.Errorf("list dealers: %w", err)
	}
	defer rows.Close()

	dealers := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		dealers = append(dealers, name)
	}
	return dealers, rows.Err()
}

func (r *repository) queryBills(ctx context.Context, query string, args ...any) ([]Bill, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var bills []Bill
	var ids []uuid.UUID
	for rows.Next() {
		var b Bill
		if err := rows.Scan(&b.ID, &b.CustomerName, &b.DiscountPercent, &b.TotalAmount, &b.CreatedAt); err != nil {
			return nil, err
		}
		bills = append(bills, b)
		ids = append(ids, b.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	itemsByBill, err := r.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range bills {
		bills[i].Items = itemsByBill[bills[i].ID]
	}
	return bills, nil
}

func (r *repository) loadItems(ctx context.Context, billIDs []uuid.UUID) (map[uuid.UUID][]BillItem, error) {
	out := make(map[uuid.UUID][]BillItem, len(billIDs))
	if len(billIDs) == 0 {
		return out, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, bill_id, product_id, product_name, quantity, rate, commission_percent, item_amount, commission_amount, dealer_name
		FROM bill_items
		WHERE bill_id = ANY($1)
		ORDER BY bill_id, line_no
	`, billIDs)
	if err != nil {
		return nil, fmt.Errorf("load bill items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it BillItem
		var billID uuid.UUID
		if err := rows.Scan(&it.ID, &billID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Rate, &it.CommissionPercent, &it.ItemAmount, &it.CommissionAmount, &it.DealerName); err != nil {
			return nil, err
		}
		out[billID] = append(out[billID], it)
	}
	return out, rows.Err()
}
