package e

import "fmt"

var (
	// Ошибки хранилища корзины
	ErrCartNotFound = fmt.Errorf("cart not found")
	ErrCorruptCart  = fmt.Errorf("corrupt cart payload")
	ErrStorageDown  = fmt.Errorf("cart storage unavailable")

	// Ошибки каталога
	ErrProductNotFound     = fmt.Errorf("product not found")
	ErrCatalogUnavailable  = fmt.Errorf("catalog unavailable")
	ErrCategoryRequired    = fmt.Errorf("category is required")
	ErrCacheValueMalformed = fmt.Errorf("unexpected cache value")
	ErrCacheMiss           = fmt.Errorf("cache miss")

	// 400 Bad Request
	ErrStatusBadRequest  = fmt.Errorf("bad request")
	ErrInvalidProductID  = fmt.Errorf("invalid product id")
	ErrInvalidLimit      = fmt.Errorf("invalid limit")
	ErrMalformedJSONBody = fmt.Errorf("malformed json body")

	// 500 Internal Server Error
	ErrInternalServerError  = fmt.Errorf("internal server error")
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
	ErrStreamingUnsupported = fmt.Errorf("streaming unsupported")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
