package closer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
)

const (
	// successIdx - индекс, который возвращается в случае успешного закрытия всех ресурсов
	successIdx = -1
)

// Closer обеспечивает потокобезопасное закрытие ресурсов в порядке, обратном регистрации.
type Closer struct {
	entries       []entry
	mu            sync.Mutex
	once          sync.Once
	forcedTimeout time.Duration
}

// Func - сигнатура функции закрытия ресурса.
type Func func(ctx context.Context) error

type entry struct {
	name string
	fn   Func
}

// NewCloser создает новый экземпляр Closer.
// forcedTimeout - время на принудительное закрытие оставшихся ресурсов, если контекст Close истёк.
func NewCloser(forcedTimeout time.Duration) *Closer {
	const defaultForcedTimeout = 2 * time.Second

	if forcedTimeout <= 0 {
		forcedTimeout = defaultForcedTimeout
	}

	return &Closer{forcedTimeout: forcedTimeout}
}

// Add регистрирует именованную функцию закрытия.
func (c *Closer) Add(name string, f Func) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry{name: name, fn: f})
}

// AddErr регистрирует функцию без контекста, например Close() error клиента.
func (c *Closer) AddErr(name string, f func() error) {
	c.Add(name, func(context.Context) error { return f() })
}

// Close последовательно закрывает все ресурсы (LIFO). Повторные вызовы ничего не делают.
// Если ctx отменяется до завершения, оставшиеся ресурсы закрываются принудительно и параллельно.
func (c *Closer) Close(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		entries := c.entries
		c.mu.Unlock()

		stopIdx, errs := c.gracefulClose(ctx, entries)
		if stopIdx == successIdx {
			if errs != nil {
				err = fmt.Errorf("shutdown finished with error(s): %w", errs)
			}
			return
		}

		errs = multierr.Append(errs, c.forcedClose(entries[:stopIdx+1]))
		err = fmt.Errorf(
			"shutdown interrupted after %d/%d funcs: %w",
			len(entries)-1-stopIdx,
			len(entries),
			errs,
		)
	})

	return err
}

// gracefulClose возвращает индекс первого незакрытого ресурса при отмене ctx
// либо successIdx, если все функции отработали.
func (c *Closer) gracefulClose(ctx context.Context, entries []entry) (int, error) {
	var errs error
	for i := len(entries) - 1; i >= 0; i-- {
		var (
			en   = entries[i]
			done = make(chan error, 1)
		)

		go func() {
			done <- en.fn(ctx)
		}()

		select {
		case err := <-done:
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("[!] %s: %w", en.name, err))
			}
		case <-ctx.Done():
			return i, errs
		}
	}

	return successIdx, errs
}

func (c *Closer) forcedClose(entries []entry) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)

	ctx, cancel := context.WithTimeout(context.Background(), c.forcedTimeout)
	defer cancel()

	for _, en := range entries {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := en.fn(ctx); err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("[FORCED] %s: %w", en.name, err))
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	return errs
}
