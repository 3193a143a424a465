package catalog_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/simdi-agro/billing-api/internal/catalog"
)

type productsResponse struct {
	Data []catalog.Product `json:"data"`
}

type productResponse struct {
	Data catalog.Product `json:"data"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newHandler(t *testing.T, repo *fakeRepo) *catalog.Handler {
	t.Helper()
	svc, err := catalog.NewService(catalog.ServiceConfig{Repo: repo})
	require.NoError(t, err)
	return catalog.NewHandler(catalog.HandlerConfig{Service: svc})
}

func TestListProducts(t *testing.T) {
	repo := newFakeRepo()
	repo.add("Urea 45kg", 10, 500, nil)
	repo.add("DAP 50kg", 8, 1350, nil)
	handler := newHandler(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp productsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 2)

	sreq := httptest.NewRequest(http.MethodGet, "/api/v1/products?search=urea", nil)
	srec := httptest.NewRecorder()
	handler.List(srec, sreq)
	require.Equal(t, http.StatusOK, srec.Code)
	require.NoError(t, json.Unmarshal(srec.Body.Bytes(), &resp))
	require.Len(t, resp.Data, 1)
	require.Equal(t, "Urea 45kg", resp.Data[0].Name)
}

func TestCreateProduct(t *testing.T) {
	repo := newFakeRepo()
	handler := newHandler(t, repo)

	body := `{"name":"MOP 50kg","quantity":20,"rate":900,"commissionPercent":4}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "MOP 50kg", resp.Data.Name)
	require.NotNil(t, resp.Data.CommissionPercent)
	require.Equal(t, 4.0, *resp.Data.CommissionPercent)
}

func TestCreateProductValidation(t *testing.T) {
	handler := newHandler(t, newFakeRepo())

	body := `{"name":"","quantity":-1,"rate":0}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "BAD_REQUEST", resp.Error.Code)
}

func TestCreateProductConflict(t *testing.T) {
	repo := newFakeRepo()
	repo.add("Urea 45kg", 10, 500, nil)
	handler := newHandler(t, repo)

	body := `{"name":"Urea 45kg","quantity":5,"rate":510}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.Create(rec, req)
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetProductNotFound(t *testing.T) {
	handler := newHandler(t, newFakeRepo())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+uuid.NewString(), nil)
	req = withIDParam(req, uuid.NewString())
	rec := httptest.NewRecorder()
	handler.Get(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "NOT_FOUND", resp.Error.Code)
}

func TestUpdateAndDeleteProduct(t *testing.T) {
	repo := newFakeRepo()
	created := repo.add("Urea 45kg", 10, 500, nil)
	handler := newHandler(t, repo)

	body := `{"name":"Urea 45kg","quantity":6,"rate":520}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/products/"+created.ID.String(), strings.NewReader(body))
	req = withIDParam(req, created.ID.String())
	rec := httptest.NewRecorder()
	handler.Update(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp productResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 6, resp.Data.Quantity)
	require.Equal(t, 520.0, resp.Data.Rate)

	dreq := httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+created.ID.String(), nil)
	dreq = withIDParam(dreq, created.ID.String())
	drec := httptest.NewRecorder()
	handler.Delete(drec, dreq)
	require.Equal(t, http.StatusOK, drec.Code)

	_, err := repo.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, catalog.ErrNotFound)
}

func withIDParam(req *http.Request, id string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

type fakeRepo struct {
	products map[uuid.UUID]catalog.Product
	order    []uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{products: make(map[uuid.UUID]catalog.Product)}
}

func (f *fakeRepo) add(name string, quantity int, rate float64, commission *float64) catalog.Product {
	p := catalog.Product{
		ID:                uuid.New(),
		Name:              name,
		Quantity:          quantity,
		Rate:              rate,
		CommissionPercent: commission,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}
	f.products[p.ID] = p
	f.order = append(f.order, p.ID)
	return p
}

func (f *fakeRepo) List(_ context.Context, search string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range f.order {
		p := f.products[id]
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeRepo) Get(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

func (f *fakeRepo) Create(_ context.Context, input catalog.ProductInput) (*catalog.Product, error) {
	for _, existing := range f.products {
		if strings.EqualFold(existing.Name, input.Name) {
			return nil, catalog.ErrAlreadyExists
		}
	}
	p := f.add(input.Name, input.Quantity, input.Rate, input.CommissionPercent)
	return &p, nil
}

func (f *fakeRepo) Update(_ context.Context, id uuid.UUID, input catalog.ProductInput) (*catalog.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	p.Name = input.Name
	p.Quantity = input.Quantity
	p.Rate = input.Rate
	p.CommissionPercent = input.CommissionPercent
	p.UpdatedAt = time.Now()
	f.products[id] = p
	return &p, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.products[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(f.products, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}
