package pgdb

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jimlawless/whereami"
)

// querier - часть pgxpool.Pool, которой пользуется репозиторий.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// CartRepo хранит корзины в таблице cart_sessions, строки - JSONB-массивом.
type CartRepo struct {
	pool querier
	conv converter.CartConverter
}

func NewCartRepo(pool querier, conv converter.CartConverter) *CartRepo {
	return &CartRepo{
		pool: pool,
		conv: conv,
	}
}

func (c *CartRepo) Load(ctx context.Context, sessionID string) ([]domain.CartLineItem, error) {
	query := `
		SELECT session_id, items, updated_at
		FROM cart_sessions
		WHERE session_id = $1;
	`

	var model converter.CartSessionModel
	err := c.pool.QueryRow(ctx, query, sessionID).Scan(&model.SessionID, &model.Items, &model.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.ErrCartNotFound
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var items []converter.CartLineItemModel
	if err := json.Unmarshal(model.Items, &items); err != nil {
		return nil, e.Wrap(err.Error(), e.ErrCorruptCart)
	}

	return c.conv.ToEntities(items), nil
}

// Save перезаписывает корзину сессии целиком (last-writer-wins).
func (c *CartRepo) Save(ctx context.Context, sessionID string, items []domain.CartLineItem) error {
	data, err := json.Marshal(c.conv.ToModels(items))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	// VALUES ($1, $2) session_id, items
	query := `
		INSERT INTO cart_sessions (session_id, items, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (session_id)
		DO UPDATE SET
			items = EXCLUDED.items,
			updated_at = NOW();
	`

	if _, err := c.pool.Exec(ctx, query, sessionID, string(data)); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

func (c *CartRepo) Delete(ctx context.Context, sessionID string) error {
	query := `DELETE FROM cart_sessions WHERE session_id = $1;`

	if _, err := c.pool.Exec(ctx, query, sessionID); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// PurgeStale удаляет корзины, не менявшиеся дольше ttl. Аналог TTL ключей в Redis.
func (c *CartRepo) PurgeStale(ctx context.Context, ttl time.Duration) (int64, error) {
	query := `DELETE FROM cart_sessions WHERE updated_at < NOW() - make_interval(secs => $1);`

	tag, err := c.pool.Exec(ctx, query, ttl.Seconds())
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return tag.RowsAffected(), nil
}

func (c *CartRepo) Ping(ctx context.Context) error {
	if err := c.pool.Ping(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), e.Wrap(err.Error(), e.ErrStorageDown))
	}

	return nil
}
