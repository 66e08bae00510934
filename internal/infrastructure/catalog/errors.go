package catalog

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/DRSN-tech/storefront/pkg/e"
)

// FetchError - сбой обращения к каталогу: сеть, не-2xx статус или неразборчивый ответ.
// Все FetchError также сопоставляются с e.ErrCatalogUnavailable.
type FetchError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (f *FetchError) Error() string {
	if f.StatusCode != 0 {
		return fmt.Sprintf("catalog %s %s: status %d: %v", f.Op, f.URL, f.StatusCode, f.Err)
	}
	return fmt.Sprintf("catalog %s %s: %v", f.Op, f.URL, f.Err)
}

func (f *FetchError) Unwrap() []error {
	return []error{f.Err, e.ErrCatalogUnavailable}
}

// Retryable сообщает, имеет ли смысл повторить запрос: сетевые ошибки, 429 и 5xx.
func (f *FetchError) Retryable() bool {
	switch {
	case f.StatusCode == 0:
		return true
	case f.StatusCode == http.StatusTooManyRequests:
		return true
	default:
		return f.StatusCode >= http.StatusInternalServerError
	}
}

// IsRetryable проверяет, есть ли в цепочке повторяемый FetchError.
func IsRetryable(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Retryable()
}
