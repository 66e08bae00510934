package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
)

// CartRepository - граница хранения корзины. Load возвращает e.ErrCartNotFound
// при отсутствии ключа и e.ErrCorruptCart, если данные не разбираются.
type CartRepository interface {
	Load(ctx context.Context, sessionID string) ([]domain.CartLineItem, error)
	Save(ctx context.Context, sessionID string, items []domain.CartLineItem) error
	Delete(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
}

// StalePurger - хранилище без собственного TTL, которое чистится фоновой задачей.
type StalePurger interface {
	PurgeStale(ctx context.Context, ttl time.Duration) (int64, error)
}

// CacheRepository - кэш каталога. Промах по списку возвращает e.ErrCacheMiss.
type CacheRepository interface {
	GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error)
	SetProducts(ctx context.Context, products []domain.Product) error
	GetCatalog(ctx context.Context) ([]domain.Product, error)
	SetCatalog(ctx context.Context, products []domain.Product) error
	GetCategories(ctx context.Context) ([]string, error)
	SetCategories(ctx context.Context, categories []string) error
}
