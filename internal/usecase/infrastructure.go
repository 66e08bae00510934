package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront/internal/domain"
)

// CatalogInfra - внешний каталог товаров, только чтение.
type CatalogInfra interface {
	GetAllProducts(ctx context.Context) ([]domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	GetProductsByCategory(ctx context.Context, category string) ([]domain.Product, error)
	GetCategories(ctx context.Context) ([]string, error)
}

// Metrics - счётчики, которые пишут юзкейсы.
type Metrics interface {
	IncCartMutation(op string)
	IncPersistFailure(stage string)
	SetActiveSessions(n int)
	IncCacheLookup(kind string, hit bool)
	IncCatalogFailure(op string)
}

type noopMetrics struct{}

func (noopMetrics) IncCartMutation(string)      {}
func (noopMetrics) IncPersistFailure(string)    {}
func (noopMetrics) SetActiveSessions(int)       {}
func (noopMetrics) IncCacheLookup(string, bool) {}
func (noopMetrics) IncCatalogFailure(string)    {}

func metricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
