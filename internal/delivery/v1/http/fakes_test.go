package http

import (
	"context"
	"sync"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/shopspring/decimal"
)

type memCartRepo struct {
	mu    sync.Mutex
	carts map[string][]domain.CartLineItem
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{carts: map[string][]domain.CartLineItem{}}
}

func (m *memCartRepo) Load(_ context.Context, id string) ([]domain.CartLineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.carts[id]
	if !ok {
		return nil, e.ErrCartNotFound
	}
	return append([]domain.CartLineItem(nil), items...), nil
}

func (m *memCartRepo) Save(_ context.Context, id string, items []domain.CartLineItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[id] = append([]domain.CartLineItem(nil), items...)
	return nil
}

func (m *memCartRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, id)
	return nil
}

func (m *memCartRepo) Ping(context.Context) error { return nil }

// stubCatalog отдаёт фиксированный набор товаров либо err на каждый вызов.
type stubCatalog struct {
	products []domain.Product
	err      error
}

func newStubCatalog() *stubCatalog {
	return &stubCatalog{products: []domain.Product{
		{ID: 1, Title: "Backpack", Price: decimal.RequireFromString("109.95"), Category: "men's clothing", Rating: &domain.Rating{Rate: 3.9, Count: 120}},
		{ID: 2, Title: "Slim Fit T-Shirt", Price: decimal.RequireFromString("22.3"), Category: "men's clothing"},
		{ID: 5, Title: "Bracelet", Price: decimal.RequireFromString("695"), Category: "jewelery"},
		{ID: 9, Title: "WD 2TB", Price: decimal.RequireFromString("64"), Category: "electronics"},
		{ID: 14, Title: "Monitor", Price: decimal.RequireFromString("999.99"), Category: "electronics"},
	}}
}

func (s *stubCatalog) ListProducts(_ context.Context, filter usecase.ProductFilter) (*usecase.ProductList, error) {
	if s.err != nil {
		return nil, s.err
	}
	if filter.Category == "" || filter.Category == "all" {
		return usecase.NewProductList(s.products, len(s.products)), nil
	}
	var res []domain.Product
	for _, p := range s.products {
		if p.Category == filter.Category {
			res = append(res, p)
		}
	}
	return usecase.NewProductList(res, len(s.products)), nil
}

func (s *stubCatalog) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, e.ErrProductNotFound
}

func (s *stubCatalog) ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	if category == "" {
		return nil, e.ErrCategoryRequired
	}
	list, err := s.ListProducts(ctx, usecase.NewProductFilter(category))
	if err != nil {
		return nil, err
	}
	return list.Products, nil
}

func (s *stubCatalog) Categories(context.Context) ([]usecase.CategoryInfo, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []usecase.CategoryInfo{
		usecase.NewCategoryInfo("electronics", 2),
		usecase.NewCategoryInfo("jewelery", 1),
		usecase.NewCategoryInfo("men's clothing", 2),
	}, nil
}

func (s *stubCatalog) FeaturedProducts(_ context.Context, n int) ([]domain.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.products[:min(n, len(s.products))], nil
}
