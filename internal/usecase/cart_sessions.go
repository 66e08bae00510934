package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

type sessionEntry struct {
	store    *CartStore
	lastSeen time.Time
}

// CartSessions держит живые сторы корзин по ID сессии.
// Стор создаётся при первом обращении и закрывается при завершении сессии или простое.
type CartSessions struct {
	repo           CartRepository
	logger         logger.Logger
	metrics        Metrics
	observers      []Observer
	idleTimeout    time.Duration
	persistTimeout time.Duration
	retention      time.Duration
	now            func() time.Time

	mu     sync.Mutex
	stores map[string]*sessionEntry
}

func NewCartSessions(
	repo CartRepository,
	logger logger.Logger,
	metrics Metrics,
	idleTimeout time.Duration,
	persistTimeout time.Duration,
	observers ...Observer,
) *CartSessions {
	return &CartSessions{
		repo:           repo,
		logger:         logger,
		metrics:        metricsOrNoop(metrics),
		observers:      observers,
		idleTimeout:    idleTimeout,
		persistTimeout: persistTimeout,
		now:            time.Now,
		stores:         make(map[string]*sessionEntry),
	}
}

// Open возвращает стор сессии, при первом обращении загружая его из хранилища.
func (cs *CartSessions) Open(ctx context.Context, sessionID string) *CartStore {
	cs.mu.Lock()
	if en, ok := cs.stores[sessionID]; ok {
		en.lastSeen = cs.now()
		cs.mu.Unlock()
		return en.store
	}
	cs.mu.Unlock()

	// Загрузка идёт без блокировки реестра. Если параллельный запрос успел раньше, берём его стор.
	store := NewCartStore(ctx, sessionID, cs.repo, cs.logger,
		WithObservers(cs.observers...),
		WithMetrics(cs.metrics),
		WithPersistTimeout(cs.persistTimeout),
		withClock(cs.now),
	)

	cs.mu.Lock()
	defer cs.mu.Unlock()

	if en, ok := cs.stores[sessionID]; ok {
		en.lastSeen = cs.now()
		store.Close()
		return en.store
	}

	cs.stores[sessionID] = &sessionEntry{store: store, lastSeen: cs.now()}
	cs.metrics.SetActiveSessions(len(cs.stores))
	cs.logger.Debugf("cart session opened: %s", sessionID)

	return store
}

// End завершает сессию. При purge сохранённая корзина удаляется из хранилища.
func (cs *CartSessions) End(ctx context.Context, sessionID string, purge bool) {
	const op = "CartSessions.End"

	cs.mu.Lock()
	en, ok := cs.stores[sessionID]
	if ok {
		delete(cs.stores, sessionID)
		cs.metrics.SetActiveSessions(len(cs.stores))
	}
	cs.mu.Unlock()

	if ok {
		en.store.Close()
	}

	if !purge {
		return
	}

	if err := cs.repo.Delete(ctx, sessionID); err != nil {
		cs.metrics.IncPersistFailure("delete")
		cs.logger.Errorf(e.Wrap(op, err), "failed to purge cart of session %s", sessionID)
	}
}

// EvictIdle закрывает сторы, к которым не обращались дольше idleTimeout.
// Сторы с активными подписчиками не вытесняются. Состояние остаётся в хранилище.
func (cs *CartSessions) EvictIdle(now time.Time) int {
	if cs.idleTimeout <= 0 {
		return 0
	}

	cs.mu.Lock()
	var evicted []*CartStore
	for id, en := range cs.stores {
		if now.Sub(en.lastSeen) < cs.idleTimeout || en.store.HasSubscribers() {
			continue
		}
		delete(cs.stores, id)
		evicted = append(evicted, en.store)
	}
	if len(evicted) > 0 {
		cs.metrics.SetActiveSessions(len(cs.stores))
	}
	cs.mu.Unlock()

	for _, s := range evicted {
		s.Close()
	}
	if len(evicted) > 0 {
		cs.logger.Debugf("evicted %d idle cart sessions", len(evicted))
	}

	return len(evicted)
}

// WithRetention включает удаление корзин, не менявшихся дольше ttl.
// Работает только если хранилище реализует StalePurger.
func (cs *CartSessions) WithRetention(ttl time.Duration) *CartSessions {
	cs.retention = ttl
	return cs
}

// RunJanitor периодически вытесняет простаивающие сессии и чистит хранилище, пока не отменён ctx.
func (cs *CartSessions) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case t := <-ticker.C:
			cs.EvictIdle(t)
			cs.PurgeStale(ctx)
		}
	}
}

// PurgeStale удаляет из хранилища устаревшие корзины. Возвращает число удалённых.
func (cs *CartSessions) PurgeStale(ctx context.Context) int64 {
	const op = "CartSessions.PurgeStale"

	purger, ok := cs.repo.(StalePurger)
	if !ok || cs.retention <= 0 {
		return 0
	}

	n, err := purger.PurgeStale(ctx, cs.retention)
	if err != nil {
		cs.metrics.IncPersistFailure("purge")
		cs.logger.Errorf(e.Wrap(op, err), "failed to purge stale carts")
		return 0
	}
	if n > 0 {
		cs.logger.Infof("purged %d stale carts", n)
	}
	return n
}

func (cs *CartSessions) Len() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(cs.stores)
}

// Close закрывает все живые сторы. Данные уже сохранены, сбрасывать нечего.
func (cs *CartSessions) Close() {
	cs.mu.Lock()
	stores := cs.stores
	cs.stores = make(map[string]*sessionEntry)
	cs.metrics.SetActiveSessions(0)
	cs.mu.Unlock()

	for _, en := range stores {
		en.store.Close()
	}
}
