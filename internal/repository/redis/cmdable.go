package redis

import (
	"context"
	"fmt"
	"time"

	r "github.com/redis/go-redis/v9"
)

const (
	cartKeyPrefix    = "cart"
	productKeyPrefix = "product"
	catalogKey       = "catalog:products"
	categoriesKey    = "catalog:categories"
)

// cmdable - подмножество команд go-redis, которым пользуются репозитории.
type cmdable interface {
	Ping(ctx context.Context) *r.StatusCmd
	Get(ctx context.Context, key string) *r.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *r.StatusCmd
	Del(ctx context.Context, keys ...string) *r.IntCmd
	MGet(ctx context.Context, keys ...string) *r.SliceCmd
	Pipelined(ctx context.Context, fn func(r.Pipeliner) error) ([]r.Cmder, error)
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("%s:%s", cartKeyPrefix, sessionID)
}

// productKey возвращает Redis-ключ для одного продукта
func productKey(id int64) string {
	return fmt.Sprintf("%s:%d", productKeyPrefix, id)
}

// redisValueToBytes конвертирует значение из Redis в []byte.
// Поддерживает string и []byte, возвращает ошибку для неизвестных типов.
func redisValueToBytes(val interface{}, key string) ([]byte, error) {
	switch v := val.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case nil:
		return nil, nil // cache miss
	default:
		return nil, fmt.Errorf("unexpected Redis value type for key %s: %T", key, val)
	}
}
