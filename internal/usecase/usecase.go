package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront/internal/domain"
)

type CatalogUC interface {
	ListProducts(ctx context.Context, filter ProductFilter) (*ProductList, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ProductsByCategory(ctx context.Context, category string) ([]domain.Product, error)
	Categories(ctx context.Context) ([]CategoryInfo, error)
	FeaturedProducts(ctx context.Context, n int) ([]domain.Product, error)
}

type CartUC interface {
	View(ctx context.Context, sessionID string) (*CartView, error)
	AddItem(ctx context.Context, req *AddToCartReq) (*CartView, error)
	UpdateItem(ctx context.Context, sessionID string, productID int64, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, sessionID string, productID int64) (*CartView, error)
	Clear(ctx context.Context, sessionID string) (*CartView, error)
	Subscribe(ctx context.Context, sessionID string, observer Observer) (func(), error)
	EndSession(ctx context.Context, sessionID string)
	Summarize(snapshot CartSnapshot) CartSummary
}
