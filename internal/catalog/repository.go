package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no product matches the identifier.
	ErrNotFound = errors.New("product not found")
	// ErrAlreadyExists is returned when a product name collides with an existing row.
	ErrAlreadyExists = errors.New("product already exists")
)

// Repository persists catalog products.
type Repository interface {
	List(ctx context.Context, search string) ([]Product, error)
	Get(ctx context.Context, id uuid.UUID) (*Product, error)
	Create(ctx context.Context, input ProductInput) (*Product, error)
	Update(ctx context.Context, id uuid.UUID, input ProductInput) (*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type dbtx interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
}

type repository struct {
	db dbtx
}

// NewRepository constructs a pgx-backed product repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

const productColumns = "id, name, quantity, rate, commission_percent, created_at, updated_at"

func (r *repository) List(ctx context.Context, search string) ([]Product, error) {
	var conditions []string
	var args []any
	argPos := 1

	if s := strings.TrimSpace(search); s != "" {
		conditions = append(conditions, fmt.Sprintf("name ILIKE $%d", argPos))
		args = append(args, "%"+s+"%")
		argPos++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf("SELECT %s FROM products %s ORDER BY name", productColumns, whereClause)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *repository) Get(ctx context.Context, id uuid.UUID) (*Product, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf("SELECT %s FROM products WHERE id = $1", productColumns), id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *repository) Create(ctx context.Context, input ProductInput) (*Product, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		INSERT INTO products (name, quantity, rate, commission_percent)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, productColumns), strings.TrimSpace(input.Name), input.Quantity, input.Rate, input.CommissionPercent)
	p, err := scanProduct(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &p, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, input ProductInput) (*Product, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		UPDATE products
		SET name = $1, quantity = $2, rate = $3, commission_percent = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING %s
	`, productColumns), strings.TrimSpace(input.Name), input.Quantity, input.Rate, input.CommissionPercent, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return &p, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Quantity, &p.Rate, &p.CommissionPercent, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
