package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/simdi-agro/billing-api/internal/common"
)

// Service orchestrates product CRUD on top of the repository and cache.
type Service struct {
	repo     Repository
	cache    *Cache
	validate *validator.Validate
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Repo     Repository
	Cache    *Cache
	Validate *validator.Validate
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("catalog: repository is required")
	}
	v := cfg.Validate
	if v == nil {
		v = validator.New()
	}
	return &Service{repo: cfg.Repo, cache: cfg.Cache, validate: v}, nil
}

// ListProducts returns catalog products, optionally filtered by name substring.
// The unfiltered listing is served from cache when available.
func (s *Service) ListProducts(ctx context.Context, search string) ([]Product, error) {
	useCache := search == ""
	if useCache {
		var cached []Product
		ok, err := s.cache.GetJSON(ctx, listCacheKey, &cached)
		if err == nil && ok {
			return cached, nil
		}
	}
	products, err := s.repo.List(ctx, search)
	if err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	if useCache {
		_ = s.cache.SetJSON(ctx, listCacheKey, products)
	}
	return products, nil
}

// GetProduct returns a single product by id.
func (s *Service) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NotFound("product not found", err)
		}
		return nil, err
	}
	return p, nil
}

// CreateProduct validates the payload and inserts a catalog row.
func (s *Service) CreateProduct(ctx context.Context, input ProductInput) (*Product, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	p, err := s.repo.Create(ctx, input)
	if err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			return nil, common.NewAppError("CONFLICT", "a product with this name already exists", http.StatusConflict, err)
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, listCacheKey)
	return p, nil
}

// UpdateProduct validates the payload and replaces the catalog row.
func (s *Service) UpdateProduct(ctx context.Context, id uuid.UUID, input ProductInput) (*Product, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}
	p, err := s.repo.Update(ctx, id, input)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, common.NotFound("product not found", err)
		}
		if errors.Is(err, ErrAlreadyExists) {
			return nil, common.NewAppError("CONFLICT", "a product with this name already exists", http.StatusConflict, err)
		}
		return nil, err
	}
	s.cache.Invalidate(ctx, listCacheKey)
	return p, nil
}

// DeleteProduct removes the catalog row. Historical bills keep their frozen
// name and rate copies, so deletion never rewrites billing history.
func (s *Service) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return common.NotFound("product not found", err)
		}
		return err
	}
	s.cache.Invalidate(ctx, listCacheKey)
	return nil
}

func (s *Service) validateInput(input ProductInput) error {
	if err := s.validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return common.BadRequest(first.Field(), fmt.Sprintf("invalid value for %s", first.Field()), err)
		}
		return common.BadRequest("payload", "invalid payload", err)
	}
	return nil
}
