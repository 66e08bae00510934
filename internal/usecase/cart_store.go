package usecase

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

const defaultPersistTimeout = 2 * time.Second

// Observer получает снимок корзины после каждой изменившей её команды.
// Наблюдатель может читать состояние стора, но не должен вызывать его команды.
type Observer interface {
	OnCartChange(snapshot CartSnapshot)
}

// ObserverFunc - адаптер функции к Observer.
type ObserverFunc func(snapshot CartSnapshot)

func (f ObserverFunc) OnCartChange(snapshot CartSnapshot) { f(snapshot) }

type CartStoreOption func(*CartStore)

// WithObservers подключает наблюдателей на всё время жизни стора.
func WithObservers(observers ...Observer) CartStoreOption {
	return func(s *CartStore) {
		s.fixed = append(s.fixed, observers...)
	}
}

func WithMetrics(m Metrics) CartStoreOption {
	return func(s *CartStore) {
		s.metrics = metricsOrNoop(m)
	}
}

// WithPersistTimeout ограничивает время записи в хранилище после команды.
func WithPersistTimeout(d time.Duration) CartStoreOption {
	return func(s *CartStore) {
		if d > 0 {
			s.persistTimeout = d
		}
	}
}

func withClock(now func() time.Time) CartStoreOption {
	return func(s *CartStore) {
		s.now = now
	}
}

// CartStore - единственный владелец корзины одной сессии.
// Команды выполняются строго по очереди: изменение → запись в хранилище → уведомление.
// Ошибки хранилища логируются и не возвращаются вызывающему.
type CartStore struct {
	sessionID      string
	repo           CartRepository
	logger         logger.Logger
	metrics        Metrics
	persistTimeout time.Duration
	now            func() time.Time

	// cmdMu упорядочивает команды целиком, включая запись и уведомление.
	cmdMu sync.Mutex

	mu        sync.RWMutex
	cart      *domain.Cart
	version   uint64
	lastOp    CartOp
	updatedAt time.Time

	obsMu     sync.Mutex
	fixed     []Observer
	subs      map[uint64]Observer
	nextSubID uint64
	closed    bool
}

// NewCartStore создаёт стор сессии и поднимает сохранённое состояние.
// Отсутствие или повреждение данных даёт пустую корзину.
func NewCartStore(ctx context.Context, sessionID string, repo CartRepository, logger logger.Logger, opts ...CartStoreOption) *CartStore {
	s := &CartStore{
		sessionID:      sessionID,
		repo:           repo,
		logger:         logger.With("session_id", sessionID),
		metrics:        noopMetrics{},
		persistTimeout: defaultPersistTimeout,
		now:            time.Now,
		subs:           make(map[uint64]Observer),
		lastOp:         OpLoad,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.cart = s.load(ctx)
	s.updatedAt = s.now()

	return s
}

func (s *CartStore) load(ctx context.Context) *domain.Cart {
	const op = "CartStore.load"

	items, err := s.repo.Load(ctx, s.sessionID)
	switch {
	case err == nil:
		cart := domain.RestoreCart(items)
		s.logger.Debugf("cart restored: %d lines", cart.Len())
		return cart
	case errors.Is(err, e.ErrCartNotFound):
		return domain.NewCart()
	case errors.Is(err, e.ErrCorruptCart):
		s.logger.Warnf("discarding corrupt cart: %v", e.Wrap(op, err))
		return domain.NewCart()
	default:
		s.metrics.IncPersistFailure("load")
		s.logger.Errorf(e.Wrap(op, err), "failed to load cart, starting empty")
		return domain.NewCart()
	}
}

// AddToCart добавляет quantity единиц товара одной атомарной командой.
func (s *CartStore) AddToCart(ctx context.Context, product domain.Product, quantity int) {
	s.apply(ctx, OpAdd, false, func(c *domain.Cart) bool {
		return c.Add(product, quantity)
	})
}

func (s *CartStore) RemoveFromCart(ctx context.Context, productID int64) {
	s.apply(ctx, OpRemove, false, func(c *domain.Cart) bool {
		return c.Remove(productID)
	})
}

// UpdateQuantity задаёт абсолютное количество. quantity <= 0 удаляет строку.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID int64, quantity int) {
	op := OpUpdateQuantity
	if quantity <= 0 {
		op = OpRemove
	}
	s.apply(ctx, op, false, func(c *domain.Cart) bool {
		return c.SetQuantity(productID, quantity)
	})
}

// ClearCart очищает корзину и всегда записывает пустой список в хранилище:
// там могут лежать строки, которых нет в памяти (сбой загрузки, запись другой реплики).
// Уведомление уходит только если корзина действительно изменилась.
func (s *CartStore) ClearCart(ctx context.Context) {
	s.apply(ctx, OpClear, true, func(c *domain.Cart) bool {
		return c.Clear()
	})
}

func (s *CartStore) GetTotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.TotalItems()
}

func (s *CartStore) GetTotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.TotalPrice()
}

func (s *CartStore) Items() []domain.CartLineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cart.Items()
}

// Snapshot возвращает текущее состояние с версией последней команды.
func (s *CartStore) Snapshot() CartSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NewCartSnapshot(s.sessionID, s.lastOp, s.version, s.cart, s.updatedAt)
}

// Subscribe подписывает наблюдателя. Возвращённая функция отписывает его, повторный вызов безопасен.
func (s *CartStore) Subscribe(o Observer) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	if s.closed || o == nil {
		return func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = o

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		delete(s.subs, id)
	}
}

// HasSubscribers сообщает, есть ли подписчики помимо постоянных наблюдателей.
func (s *CartStore) HasSubscribers() bool {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	return len(s.subs) > 0
}

// Close отключает всех наблюдателей. Команды после Close продолжают менять и сохранять корзину,
// но уведомления больше не рассылаются.
func (s *CartStore) Close() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	s.closed = true
	s.fixed = nil
	s.subs = make(map[uint64]Observer)
}

// apply выполняет команду. persistUnchanged требует записи даже без изменений в памяти.
func (s *CartStore) apply(ctx context.Context, op CartOp, persistUnchanged bool, mutate func(c *domain.Cart) bool) {
	s.cmdMu.Lock()
	defer s.cmdMu.Unlock()

	s.mu.Lock()
	changed := mutate(s.cart)
	if !changed && !persistUnchanged {
		s.mu.Unlock()
		return
	}
	if changed {
		s.version++
		s.lastOp = op
		s.updatedAt = s.now()
	}
	snapshot := NewCartSnapshot(s.sessionID, op, s.version, s.cart, s.updatedAt)
	s.mu.Unlock()

	if changed {
		s.metrics.IncCartMutation(string(op))
	}
	s.persist(ctx, snapshot)
	if changed {
		s.notify(snapshot)
	}
}

// persist пишет состояние в хранилище. Отмена запроса клиентом не прерывает запись.
// Запись синхронная под cmdMu, чтобы порядок записей совпадал с порядком команд;
// медленное хранилище задерживает команды сессии не дольше persistTimeout.
func (s *CartStore) persist(ctx context.Context, snapshot CartSnapshot) {
	const op = "CartStore.persist"

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()

	if err := s.repo.Save(ctx, s.sessionID, snapshot.Items); err != nil {
		s.metrics.IncPersistFailure("save")
		s.logger.Errorf(e.Wrap(op, err), "failed to persist cart version %d", snapshot.Version)
	}
}

func (s *CartStore) notify(snapshot CartSnapshot) {
	s.obsMu.Lock()
	if s.closed {
		s.obsMu.Unlock()
		return
	}
	observers := make([]Observer, 0, len(s.fixed)+len(s.subs))
	observers = append(observers, s.fixed...)
	for _, id := range slices.Sorted(maps.Keys(s.subs)) {
		observers = append(observers, s.subs[id])
	}
	s.obsMu.Unlock()

	for _, o := range observers {
		s.deliver(o, snapshot)
	}
}

func (s *CartStore) deliver(o Observer, snapshot CartSnapshot) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warnf("cart observer panicked on version %d: %v", snapshot.Version, r)
		}
	}()
	o.OnCartChange(snapshot)
}
