package pgdb

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *[]byte:
			*p = r.values[i].([]byte)
		case *time.Time:
			*p = r.values[i].(time.Time)
		}
	}
	return nil
}

// fakePool хранит items по session_id и разбирает только запросы CartRepo.
type fakePool struct {
	rows    map[string][]byte
	execs   []string
	err     error
	deleted int64
}

func newFakePool() *fakePool {
	return &fakePool{rows: map[string][]byte{}}
}

func (f *fakePool) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	f.execs = append(f.execs, sql)

	switch {
	case strings.Contains(sql, "INSERT INTO cart_sessions"):
		f.rows[args[0].(string)] = []byte(args[1].(string))
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.Contains(sql, "updated_at <"):
		return pgconn.NewCommandTag("DELETE 2"), nil
	case strings.Contains(sql, "DELETE FROM cart_sessions"):
		delete(f.rows, args[0].(string))
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.CommandTag{}, errors.New("unexpected query")
}

func (f *fakePool) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	if f.err != nil {
		return fakeRow{err: f.err}
	}
	id := args[0].(string)
	items, ok := f.rows[id]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{values: []any{id, items, time.Now()}}
}

func (f *fakePool) Ping(context.Context) error {
	return f.err
}

func TestPgCartRepoSaveLoad(t *testing.T) {
	ctx := context.Background()
	pool := newFakePool()
	repo := NewCartRepo(pool, converter.NewCartConv())

	items := []domain.CartLineItem{
		{Product: domain.Product{ID: 4, Title: "Mens Cotton Jacket", Price: decimal.RequireFromString("55.99"), Rating: &domain.Rating{Rate: 4.7, Count: 500}}, Quantity: 1},
		{Product: domain.Product{ID: 2, Title: "Mens Casual", Price: decimal.RequireFromString("22.3")}, Quantity: 3},
	}
	require.NoError(t, repo.Save(ctx, "s1", items))
	assert.JSONEq(t,
		`[{"id":4,"title":"Mens Cotton Jacket","price":"55.99","description":"","category":"","image":"","rating":{"rate":4.7,"count":500},"quantity":1},
		  {"id":2,"title":"Mens Casual","price":"22.3","description":"","category":"","image":"","quantity":3}]`,
		string(pool.rows["s1"]))

	got, err := repo.Load(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[0].ID)
	assert.Equal(t, 4.7, got[0].Rating.Rate)
	assert.Equal(t, 3, got[1].Quantity)
	assert.True(t, got[1].Price.Equal(decimal.RequireFromString("22.30")))
}

func TestPgCartRepoLoadErrors(t *testing.T) {
	ctx := context.Background()
	pool := newFakePool()
	repo := NewCartRepo(pool, converter.NewCartConv())

	_, err := repo.Load(ctx, "missing")
	assert.ErrorIs(t, err, e.ErrCartNotFound)

	pool.rows["bad"] = []byte(`{"items":`)
	_, err = repo.Load(ctx, "bad")
	assert.ErrorIs(t, err, e.ErrCorruptCart)

	pool.err = errors.New("conn closed")
	_, err = repo.Load(ctx, "missing")
	require.Error(t, err)
	assert.NotErrorIs(t, err, e.ErrCartNotFound)
	assert.ErrorIs(t, repo.Ping(ctx), e.ErrStorageDown)
}

func TestPgCartRepoDeleteAndPurge(t *testing.T) {
	ctx := context.Background()
	pool := newFakePool()
	repo := NewCartRepo(pool, converter.NewCartConv())

	require.NoError(t, repo.Save(ctx, "s1", nil))
	require.NoError(t, repo.Delete(ctx, "s1"))
	_, err := repo.Load(ctx, "s1")
	assert.ErrorIs(t, err, e.ErrCartNotFound)

	n, err := repo.PurgeStale(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, repo.Ping(ctx))
}
