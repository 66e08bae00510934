package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

// ProductSource - откуда корзина берёт снимок товара при добавлении.
type ProductSource interface {
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
}

// CartUseCase связывает HTTP-слой со сторами сессий: находит товар в каталоге,
// передаёт команду стору и возвращает корзину с итогами.
type CartUseCase struct {
	sessions *CartSessions
	products ProductSource
	summary  *SummaryCalculator
	logger   logger.Logger
}

func NewCartUC(sessions *CartSessions, products ProductSource, summary *SummaryCalculator, logger logger.Logger) *CartUseCase {
	if summary == nil {
		summary = DefaultSummaryCalculator()
	}

	return &CartUseCase{
		sessions: sessions,
		products: products,
		summary:  summary,
		logger:   logger,
	}
}

func (c *CartUseCase) View(ctx context.Context, sessionID string) (*CartView, error) {
	return c.view(c.sessions.Open(ctx, sessionID)), nil
}

// AddItem получает товар из каталога и кладёт его снимок в корзину.
// Ошибка возможна только при обращении к каталогу.
func (c *CartUseCase) AddItem(ctx context.Context, req *AddToCartReq) (*CartView, error) {
	const op = "CartUseCase.AddItem"

	if req.ProductID <= 0 {
		return nil, e.Wrap(op, e.ErrInvalidProductID)
	}

	product, err := c.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	store := c.sessions.Open(ctx, req.SessionID)
	store.AddToCart(ctx, *product, req.Quantity)

	return c.view(store), nil
}

func (c *CartUseCase) UpdateItem(ctx context.Context, sessionID string, productID int64, quantity int) (*CartView, error) {
	store := c.sessions.Open(ctx, sessionID)
	store.UpdateQuantity(ctx, productID, quantity)
	return c.view(store), nil
}

func (c *CartUseCase) RemoveItem(ctx context.Context, sessionID string, productID int64) (*CartView, error) {
	store := c.sessions.Open(ctx, sessionID)
	store.RemoveFromCart(ctx, productID)
	return c.view(store), nil
}

func (c *CartUseCase) Clear(ctx context.Context, sessionID string) (*CartView, error) {
	store := c.sessions.Open(ctx, sessionID)
	store.ClearCart(ctx)
	return c.view(store), nil
}

// Subscribe подписывает наблюдателя на изменения корзины сессии.
func (c *CartUseCase) Subscribe(ctx context.Context, sessionID string, observer Observer) (func(), error) {
	return c.sessions.Open(ctx, sessionID).Subscribe(observer), nil
}

// EndSession закрывает сессию и удаляет её корзину из хранилища.
func (c *CartUseCase) EndSession(ctx context.Context, sessionID string) {
	c.sessions.End(ctx, sessionID, true)
}

// Summarize считает итоги для произвольного снимка, например для SSE-события.
func (c *CartUseCase) Summarize(snapshot CartSnapshot) CartSummary {
	return c.summary.Summarize(snapshot.TotalPrice)
}

func (c *CartUseCase) view(store *CartStore) *CartView {
	snapshot := store.Snapshot()
	return &CartView{
		Snapshot: snapshot,
		Summary:  c.summary.Summarize(snapshot.TotalPrice),
	}
}
