package redis

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/repository/redis/converter"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lineItem(id int64, price string, qty int) domain.CartLineItem {
	return domain.CartLineItem{
		Product: domain.Product{
			ID:       id,
			Title:    "Fjallraven Backpack",
			Price:    decimal.RequireFromString(price),
			Category: "men's clothing",
			Rating:   &domain.Rating{Rate: 3.9, Count: 120},
		},
		Quantity: qty,
	}
}

func TestCartRepoSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	repo := newCartRepo(mock, converter.NewProductConv(), time.Hour)

	items := []domain.CartLineItem{lineItem(3, "109.95", 2), lineItem(1, "7.5", 1)}
	require.NoError(t, repo.Save(ctx, "sess-1", items))

	assert.Equal(t, time.Hour, mock.ttls["cart:sess-1"])

	got, err := repo.Load(ctx, "sess-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(3), got[0].ID)
	assert.Equal(t, 2, got[0].Quantity)
	assert.True(t, got[0].Price.Equal(decimal.RequireFromString("109.95")))
	assert.Equal(t, 3.9, got[0].Rating.Rate)
	assert.Equal(t, int64(1), got[1].ID)
}

func TestCartRepoStoresFlatLineItems(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	repo := newCartRepo(mock, converter.NewProductConv(), time.Hour)
	repo.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }

	require.NoError(t, repo.Save(ctx, "s", []domain.CartLineItem{{
		Product:  domain.Product{ID: 1, Title: "Mens Casual", Price: decimal.RequireFromString("22.3")},
		Quantity: 2,
	}}))

	raw, ok := mock.raw("cart:s")
	require.True(t, ok)
	assert.JSONEq(t, `{
		"items": [{"id":1,"title":"Mens Casual","price":"22.3","description":"","category":"","image":"","quantity":2}],
		"updated_at": "2025-03-01T10:00:00Z"
	}`, raw)
}

func TestCartRepoLoadMissingAndCorrupt(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	repo := newCartRepo(mock, converter.NewProductConv(), time.Hour)

	_, err := repo.Load(ctx, "nobody")
	assert.ErrorIs(t, err, e.ErrCartNotFound)

	mock.put("cart:broken", "{not json")
	_, err = repo.Load(ctx, "broken")
	assert.ErrorIs(t, err, e.ErrCorruptCart)
}

func TestCartRepoStorageErrors(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	mock.failAll = errConnRefused
	repo := newCartRepo(mock, converter.NewProductConv(), time.Hour)

	_, err := repo.Load(ctx, "s")
	require.Error(t, err)
	assert.NotErrorIs(t, err, e.ErrCartNotFound)
	assert.NotErrorIs(t, err, e.ErrCorruptCart)

	assert.Error(t, repo.Save(ctx, "s", nil))
	assert.Error(t, repo.Delete(ctx, "s"))
	assert.ErrorIs(t, repo.Ping(ctx), e.ErrStorageDown)
}

func TestCartRepoDelete(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	repo := newCartRepo(mock, converter.NewProductConv(), time.Hour)

	require.NoError(t, repo.Save(ctx, "s", []domain.CartLineItem{lineItem(1, "1", 1)}))
	require.NoError(t, repo.Delete(ctx, "s"))

	_, err := repo.Load(ctx, "s")
	assert.ErrorIs(t, err, e.ErrCartNotFound)
	assert.NoError(t, repo.Ping(ctx))
}
