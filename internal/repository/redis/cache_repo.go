package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/repository/redis/converter"
	"github.com/DRSN-tech/storefront/pkg/clients"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
)

// CacheRepo кэширует ответы внешнего каталога.
type CacheRepo struct {
	rdb    cmdable
	conv   converter.ProductConverter
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, conv converter.ProductConverter,
	cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		rdb:    client.Client,
		conv:   conv,
		cfg:    cfg,
		logger: logger,
	}
}

// GetProducts возвращает закэшированные продукты по ID, игнорируя промахи и логируя их
func (c *CacheRepo) GetProducts(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	if len(ids) == 0 {
		return map[int64]domain.Product{}, nil
	}

	keys := c.buildProductCacheKeys(ids)

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		c.logger.Warnf("Redis MGET failed: %v", e.Wrap(whereami.WhereAmI(), err))
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	result := make(map[int64]domain.Product, len(values))
	for i, val := range values {
		data, err := redisValueToBytes(val, keys[i])
		if err != nil {
			c.logger.Warnf("%v", e.Wrap(whereami.WhereAmI(), err))
		}

		if data == nil {
			continue // cache miss
		}

		var model converter.ProductRedisModel
		if err := json.Unmarshal(data, &model); err != nil {
			c.logger.Warnf("Redis unmarshal failed: %v", e.Wrap(whereami.WhereAmI(), err))
			continue
		}

		if model.ID != ids[i] {
			c.logger.Warnf("Cache ID mismatch: key_id: %d, model_id: %d", ids[i], model.ID)
			if err := c.rdb.Del(context.WithoutCancel(ctx), keys[i]).Err(); err != nil {
				c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
			}
			continue // cache miss
		}
		result[ids[i]] = *c.conv.ToEntity(&model)
	}

	return result, nil
}

// SetProducts атомарно кэширует несколько продуктов с заданным TTL.
// Игнорирует ошибки сериализации/записи, логируя их.
func (c *CacheRepo) SetProducts(ctx context.Context, products []domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	models := c.conv.ToArrRedisModel(products)

	_, err := c.rdb.Pipelined(ctx, func(pipe r.Pipeliner) error {
		for _, model := range models {
			data, err := json.Marshal(model)
			if err != nil {
				c.logger.Warnf("Failed to marshal product for caching (Product ID: %d): %v", model.ID, e.Wrap(whereami.WhereAmI(), err))
				continue
			}
			pipe.Set(ctx, productKey(model.ID), data, c.cfg.ProductTTL)
		}
		return nil
	})
	if err != nil {
		c.logger.Warnf("Cache pipeline failed: %v", e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// GetCatalog возвращает полный список товаров. При отсутствии ключа - e.ErrCacheMiss.
func (c *CacheRepo) GetCatalog(ctx context.Context) ([]domain.Product, error) {
	var models []converter.ProductRedisModel
	if err := c.getJSON(ctx, catalogKey, &models); err != nil {
		return nil, err
	}

	return c.conv.ToArrEntity(models), nil
}

func (c *CacheRepo) SetCatalog(ctx context.Context, products []domain.Product) error {
	return c.setJSON(ctx, catalogKey, c.conv.ToArrRedisModel(products))
}

func (c *CacheRepo) GetCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.getJSON(ctx, categoriesKey, &categories); err != nil {
		return nil, err
	}

	return categories, nil
}

func (c *CacheRepo) SetCategories(ctx context.Context, categories []string) error {
	return c.setJSON(ctx, categoriesKey, categories)
}

func (c *CacheRepo) getJSON(ctx context.Context, key string, dst any) error {
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, r.Nil) {
			return e.ErrCacheMiss
		}
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warnf("Dropping malformed cache value %s: %v", key, err)
		if err := c.rdb.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
			c.logger.Warnf("Redis del failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}
		return e.Wrap(key, e.ErrCacheValueMalformed)
	}

	return nil
}

func (c *CacheRepo) setJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.rdb.Set(ctx, key, data, c.cfg.ProductTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// buildProductCacheKeys формирует Redis-ключи из ID продуктов
func (c *CacheRepo) buildProductCacheKeys(ids []int64) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = productKey(id)
	}

	return keys
}
