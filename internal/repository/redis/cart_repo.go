package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/repository/redis/converter"
	"github.com/DRSN-tech/storefront/pkg/clients"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// CartRepo хранит корзину сессии JSON-документом под ключом cart:<session_id>.
// TTL ключа продлевается при каждой записи.
type CartRepo struct {
	rdb  cmdable
	conv converter.ProductConverter
	ttl  time.Duration
	now  func() time.Time
}

func NewCartRepo(client *clients.RedisClient, conv converter.ProductConverter, ttl time.Duration) *CartRepo {
	return newCartRepo(client.Client, conv, ttl)
}

func newCartRepo(rdb cmdable, conv converter.ProductConverter, ttl time.Duration) *CartRepo {
	return &CartRepo{
		rdb:  rdb,
		conv: conv,
		ttl:  ttl,
		now:  time.Now,
	}
}

func (c *CartRepo) Load(ctx context.Context, sessionID string) ([]domain.CartLineItem, error) {
	data, err := c.rdb.Get(ctx, cartKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return nil, e.ErrCartNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var model converter.CartRedisModel
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, e.Wrap(err.Error(), e.ErrCorruptCart)
	}

	return c.conv.ToLineItems(model.Items), nil
}

func (c *CartRepo) Save(ctx context.Context, sessionID string, items []domain.CartLineItem) error {
	data, err := json.Marshal(converter.CartRedisModel{
		Items:     c.conv.ToLineItemModels(items),
		UpdatedAt: c.now().UTC(),
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.rdb.Set(ctx, cartKey(sessionID), data, c.ttl).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (c *CartRepo) Delete(ctx context.Context, sessionID string) error {
	if err := c.rdb.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (c *CartRepo) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), e.Wrap(err.Error(), e.ErrStorageDown))
	}

	return nil
}
