package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/shopspring/decimal"
)

func testProduct(id int64, price string, category string) domain.Product {
	return domain.Product{
		ID:       id,
		Title:    "product",
		Price:    decimal.RequireFromString(price),
		Category: category,
	}
}

type memCartRepo struct {
	mu      sync.Mutex
	data    map[string][]domain.CartLineItem
	saves   int
	deletes int
	loadErr error
	saveErr error
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{data: make(map[string][]domain.CartLineItem)}
}

func (r *memCartRepo) Load(_ context.Context, sessionID string) ([]domain.CartLineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	items, ok := r.data[sessionID]
	if !ok {
		return nil, e.ErrCartNotFound
	}
	return append([]domain.CartLineItem(nil), items...), nil
}

func (r *memCartRepo) Save(_ context.Context, sessionID string, items []domain.CartLineItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	if r.saveErr != nil {
		return r.saveErr
	}
	r.data[sessionID] = append([]domain.CartLineItem(nil), items...)
	return nil
}

func (r *memCartRepo) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	delete(r.data, sessionID)
	return nil
}

func (r *memCartRepo) Ping(context.Context) error { return nil }

func (r *memCartRepo) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

type countingMetrics struct {
	noopMetrics
	mu              sync.Mutex
	mutations       map[string]int
	persistFailures map[string]int
	catalogFailures map[string]int
	active          int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		mutations:       map[string]int{},
		persistFailures: map[string]int{},
		catalogFailures: map[string]int{},
	}
}

func (m *countingMetrics) IncCartMutation(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mutations[op]++
}

func (m *countingMetrics) IncPersistFailure(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistFailures[stage]++
}

func (m *countingMetrics) SetActiveSessions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = n
}

func (m *countingMetrics) IncCatalogFailure(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.catalogFailures[op]++
}

type fakeCatalog struct {
	mu         sync.Mutex
	products   []domain.Product
	categories []string
	err        error
	calls      map[string]int
}

func newFakeCatalog(products ...domain.Product) *fakeCatalog {
	seen := map[string]bool{}
	var categories []string
	for _, p := range products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}
	return &fakeCatalog{products: products, categories: categories, calls: map[string]int{}}
}

func (f *fakeCatalog) call(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[name]++
	return f.err
}

func (f *fakeCatalog) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeCatalog) GetAllProducts(context.Context) ([]domain.Product, error) {
	if err := f.call("all"); err != nil {
		return nil, err
	}
	return append([]domain.Product(nil), f.products...), nil
}

func (f *fakeCatalog) GetProductByID(_ context.Context, id int64) (*domain.Product, error) {
	if err := f.call("byID"); err != nil {
		return nil, err
	}
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, e.ErrProductNotFound
}

func (f *fakeCatalog) GetProductsByCategory(_ context.Context, category string) ([]domain.Product, error) {
	if err := f.call("byCategory"); err != nil {
		return nil, err
	}
	var out []domain.Product
	for _, p := range f.products {
		if p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCatalog) GetCategories(context.Context) ([]string, error) {
	if err := f.call("categories"); err != nil {
		return nil, err
	}
	return append([]string(nil), f.categories...), nil
}

type memCache struct {
	mu         sync.Mutex
	products   map[int64]domain.Product
	catalog    []domain.Product
	categories []string
	broken     bool
}

func newMemCache() *memCache {
	return &memCache{products: map[int64]domain.Product{}}
}

var errCacheDown = errors.New("cache down")

func (c *memCache) GetProducts(_ context.Context, ids []int64) (map[int64]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return nil, errCacheDown
	}
	out := map[int64]domain.Product{}
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (c *memCache) SetProducts(_ context.Context, products []domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return errCacheDown
	}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return nil
}

func (c *memCache) GetCatalog(context.Context) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return nil, errCacheDown
	}
	if c.catalog == nil {
		return nil, e.ErrCacheMiss
	}
	return append([]domain.Product(nil), c.catalog...), nil
}

func (c *memCache) SetCatalog(_ context.Context, products []domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return errCacheDown
	}
	c.catalog = append([]domain.Product{}, products...)
	return nil
}

func (c *memCache) GetCategories(context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return nil, errCacheDown
	}
	if c.categories == nil {
		return nil, e.ErrCacheMiss
	}
	return append([]string(nil), c.categories...), nil
}

func (c *memCache) SetCategories(_ context.Context, categories []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.broken {
		return errCacheDown
	}
	c.categories = append([]string{}, categories...)
	return nil
}
