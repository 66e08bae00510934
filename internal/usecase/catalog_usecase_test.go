package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedCatalog() *fakeCatalog {
	return newFakeCatalog(
		testProduct(1, "109.95", "men's clothing"),
		testProduct(2, "22.30", "men's clothing"),
		testProduct(5, "695", "jewelery"),
		testProduct(9, "64", "electronics"),
	)
}

func TestListProductsFiltersByCategory(t *testing.T) {
	ctx := context.Background()
	uc := NewCatalogUC(seedCatalog(), newMemCache(), logger.Discard(), nil)

	all, err := uc.ListProducts(ctx, NewProductFilter("all"))
	require.NoError(t, err)
	assert.Len(t, all.Products, 4)
	assert.Equal(t, 4, all.Total)

	men, err := uc.ListProducts(ctx, NewProductFilter("men's clothing"))
	require.NoError(t, err)
	assert.Len(t, men.Products, 2)
	assert.Equal(t, 4, men.Total)

	none, err := uc.ListProducts(ctx, NewProductFilter("toys"))
	require.NoError(t, err)
	assert.Empty(t, none.Products)
	uc.Wait()
}

func TestListProductsUsesCacheAfterFirstFetch(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog()
	cache := newMemCache()
	uc := NewCatalogUC(catalog, cache, logger.Discard(), nil)

	_, err := uc.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	uc.Wait()

	_, err = uc.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)

	assert.Equal(t, 1, catalog.callCount("all"))

	// товары из общего списка также попадают в кэш по ID
	p, err := uc.GetProduct(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), p.ID)
	assert.Zero(t, catalog.callCount("byID"))
}

func TestCatalogFallsBackWhenCacheBroken(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog()
	cache := newMemCache()
	cache.broken = true
	uc := NewCatalogUC(catalog, cache, logger.Discard(), nil)

	list, err := uc.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.Len(t, list.Products, 4)

	p, err := uc.GetProduct(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(2), p.ID)
	uc.Wait()
}

func TestGetProductErrors(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog()
	metrics := newCountingMetrics()
	uc := NewCatalogUC(catalog, newMemCache(), logger.Discard(), metrics)

	_, err := uc.GetProduct(ctx, 0)
	assert.ErrorIs(t, err, e.ErrInvalidProductID)

	_, err = uc.GetProduct(ctx, 404)
	assert.ErrorIs(t, err, e.ErrProductNotFound)
	assert.Zero(t, metrics.catalogFailures["get_product"])

	catalog.err = errors.New("dial tcp: refused")
	_, err = uc.GetProduct(ctx, 1)
	assert.Error(t, err)
	assert.Equal(t, 1, metrics.catalogFailures["get_product"])
}

func TestProductsByCategory(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog()
	uc := NewCatalogUC(catalog, newMemCache(), logger.Discard(), nil)

	_, err := uc.ProductsByCategory(ctx, "  ")
	assert.ErrorIs(t, err, e.ErrCategoryRequired)

	got, err := uc.ProductsByCategory(ctx, "jewelery")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(5), got[0].ID)
	assert.Equal(t, 1, catalog.callCount("byCategory"))

	_, err = uc.ListProducts(ctx, ProductFilter{})
	require.NoError(t, err)
	uc.Wait()

	got, err = uc.ProductsByCategory(ctx, "electronics")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, catalog.callCount("byCategory"))
}

func TestCategoriesWithCounts(t *testing.T) {
	ctx := context.Background()
	uc := NewCatalogUC(seedCatalog(), newMemCache(), logger.Discard(), nil)

	got, err := uc.Categories(ctx)
	require.NoError(t, err)
	uc.Wait()

	assert.Equal(t, []CategoryInfo{
		{Name: "men's clothing", Count: 2},
		{Name: "jewelery", Count: 1},
		{Name: "electronics", Count: 1},
	}, got)
}

func TestFeaturedProducts(t *testing.T) {
	ctx := context.Background()
	uc := NewCatalogUC(seedCatalog(), newMemCache(), logger.Discard(), nil)

	_, err := uc.FeaturedProducts(ctx, 0)
	assert.ErrorIs(t, err, e.ErrInvalidLimit)

	got, err := uc.FeaturedProducts(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotEqual(t, got[0].ID, got[1].ID)

	all, err := uc.FeaturedProducts(ctx, 10)
	require.NoError(t, err)
	ids := make([]int64, 0, len(all))
	for _, p := range all {
		ids = append(ids, p.ID)
	}
	assert.ElementsMatch(t, []int64{1, 2, 5, 9}, ids)
	uc.Wait()
}

func TestCatalogFailurePropagates(t *testing.T) {
	ctx := context.Background()
	catalog := seedCatalog()
	catalog.err = e.ErrCatalogUnavailable
	uc := NewCatalogUC(catalog, newMemCache(), logger.Discard(), nil)

	_, err := uc.ListProducts(ctx, ProductFilter{})
	assert.ErrorIs(t, err, e.ErrCatalogUnavailable)

	_, err = uc.Categories(ctx)
	assert.ErrorIs(t, err, e.ErrCatalogUnavailable)

	var products []domain.Product
	products, err = uc.FeaturedProducts(ctx, 4)
	assert.Nil(t, products)
	assert.Error(t, err)
}
