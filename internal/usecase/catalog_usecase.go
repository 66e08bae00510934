package usecase

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

const (
	allCategories     = "all"
	cacheWriteTimeout = 500 * time.Millisecond
)

// CatalogUseCase отдаёт витрине данные каталога, кэшируя ответы внешнего API в Redis.
// Ошибки кэша не мешают чтению: при любой проблеме запрос уходит в каталог.
type CatalogUseCase struct {
	catalog   CatalogInfra
	cacheRepo CacheRepository
	logger    logger.Logger
	metrics   Metrics

	bg sync.WaitGroup
}

func NewCatalogUC(catalog CatalogInfra, cacheRepo CacheRepository, logger logger.Logger, metrics Metrics) *CatalogUseCase {
	return &CatalogUseCase{
		catalog:   catalog,
		cacheRepo: cacheRepo,
		logger:    logger,
		metrics:   metricsOrNoop(metrics),
	}
}

// ListProducts возвращает товары с фильтром по категории. Категория "all" или пустая - без фильтра.
func (c *CatalogUseCase) ListProducts(ctx context.Context, filter ProductFilter) (*ProductList, error) {
	const op = "CatalogUseCase.ListProducts"

	products, err := c.allProducts(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	category := strings.TrimSpace(filter.Category)
	if category == "" || strings.EqualFold(category, allCategories) {
		return NewProductList(products, len(products)), nil
	}

	return NewProductList(filterByCategory(products, category), len(products)), nil
}

// GetProduct возвращает товар по ID, сначала проверяя кэш.
func (c *CatalogUseCase) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "CatalogUseCase.GetProduct"

	if id <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidProductID)
	}

	cached, err := c.cacheRepo.GetProducts(ctx, []int64{id})
	if err != nil {
		c.logger.Warnf("product cache lookup failed: %v", e.Wrap(op, err))
	}
	if p, ok := cached[id]; ok {
		c.metrics.IncCacheLookup("product", true)
		return &p, nil
	}
	c.metrics.IncCacheLookup("product", false)

	product, err := c.catalog.GetProductByID(ctx, id)
	if err != nil {
		c.countFailure("get_product", err)
		return nil, e.Wrap(op, err)
	}

	c.cacheInBackground(op, func(ctx context.Context) error {
		return c.cacheRepo.SetProducts(ctx, []domain.Product{*product})
	})

	return product, nil
}

// ProductsByCategory отдаёт товары категории из закэшированного каталога,
// а при промахе спрашивает внешний API по категории.
func (c *CatalogUseCase) ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	const op = "CatalogUseCase.ProductsByCategory"

	category = strings.TrimSpace(category)
	if category == "" {
		return nil, e.Wrap(op, e.ErrCategoryRequired)
	}

	if products, ok := c.cachedCatalog(ctx); ok {
		return filterByCategory(products, category), nil
	}

	products, err := c.catalog.GetProductsByCategory(ctx, category)
	if err != nil {
		c.countFailure("products_by_category", err)
		return nil, e.Wrap(op, err)
	}

	c.cacheInBackground(op, func(ctx context.Context) error {
		return c.cacheRepo.SetProducts(ctx, products)
	})

	return products, nil
}

// Categories возвращает категории с числом товаров в каждой.
func (c *CatalogUseCase) Categories(ctx context.Context) ([]CategoryInfo, error) {
	const op = "CatalogUseCase.Categories"

	names, err := c.categoryNames(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	products, err := c.allProducts(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	counts := make(map[string]int, len(names))
	for _, p := range products {
		counts[p.Category]++
	}

	result := make([]CategoryInfo, 0, len(names))
	for _, name := range names {
		result = append(result, NewCategoryInfo(name, counts[name]))
	}

	return result, nil
}

// FeaturedProducts возвращает n случайных товаров каталога.
func (c *CatalogUseCase) FeaturedProducts(ctx context.Context, n int) ([]domain.Product, error) {
	const op = "CatalogUseCase.FeaturedProducts"

	if n <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidLimit)
	}

	products, err := c.allProducts(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	shuffled := make([]domain.Product, len(products))
	copy(shuffled, products)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if n > len(shuffled) {
		n = len(shuffled)
	}

	return shuffled[:n], nil
}

// Wait дожидается фоновых записей в кэш.
func (c *CatalogUseCase) Wait() {
	c.bg.Wait()
}

func (c *CatalogUseCase) allProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "CatalogUseCase.allProducts"

	if products, ok := c.cachedCatalog(ctx); ok {
		return products, nil
	}

	products, err := c.catalog.GetAllProducts(ctx)
	if err != nil {
		c.countFailure("all_products", err)
		return nil, e.Wrap(op, err)
	}

	c.cacheInBackground(op, func(ctx context.Context) error {
		if err := c.cacheRepo.SetCatalog(ctx, products); err != nil {
			return err
		}
		return c.cacheRepo.SetProducts(ctx, products)
	})

	return products, nil
}

func (c *CatalogUseCase) cachedCatalog(ctx context.Context) ([]domain.Product, bool) {
	const op = "CatalogUseCase.cachedCatalog"

	products, err := c.cacheRepo.GetCatalog(ctx)
	if err != nil {
		if !errors.Is(err, e.ErrCacheMiss) {
			c.logger.Warnf("catalog cache lookup failed: %v", e.Wrap(op, err))
		}
		c.metrics.IncCacheLookup("catalog", false)
		return nil, false
	}

	c.metrics.IncCacheLookup("catalog", true)
	return products, true
}

func (c *CatalogUseCase) categoryNames(ctx context.Context) ([]string, error) {
	const op = "CatalogUseCase.categoryNames"

	names, err := c.cacheRepo.GetCategories(ctx)
	if err == nil {
		c.metrics.IncCacheLookup("categories", true)
		return names, nil
	}
	if !errors.Is(err, e.ErrCacheMiss) {
		c.logger.Warnf("categories cache lookup failed: %v", e.Wrap(op, err))
	}
	c.metrics.IncCacheLookup("categories", false)

	names, err = c.catalog.GetCategories(ctx)
	if err != nil {
		c.countFailure("categories", err)
		return nil, e.Wrap(op, err)
	}

	c.cacheInBackground(op, func(ctx context.Context) error {
		return c.cacheRepo.SetCategories(ctx, names)
	})

	return names, nil
}

// cacheInBackground пишет в кэш, не задерживая ответ.
func (c *CatalogUseCase) cacheInBackground(op string, write func(ctx context.Context) error) {
	c.bg.Add(1)
	go func() {
		defer c.bg.Done()

		bgCtx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()

		if err := write(bgCtx); err != nil {
			c.logger.Warnf("Failed to cache catalog data in background: %v", e.Wrap(op, err))
		}
	}()
}

func (c *CatalogUseCase) countFailure(op string, err error) {
	if errors.Is(err, e.ErrProductNotFound) {
		return
	}
	c.metrics.IncCatalogFailure(op)
}

func filterByCategory(products []domain.Product, category string) []domain.Product {
	result := make([]domain.Product, 0)
	for _, p := range products {
		if p.Category == category {
			result = append(result, p)
		}
	}
	return result
}
