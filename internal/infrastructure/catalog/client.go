package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/jitter"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

const maxBodySize = 4 << 20

// Client - клиент внешнего каталога товаров (API в формате fakestoreapi.com).
type Client struct {
	httpClient  *http.Client
	baseURL     string
	maxRetries  int
	baseBackoff time.Duration
	maxBackoff  time.Duration
	logger      logger.Logger
}

func NewClient(cfg *cfg.CatalogCfg, logger logger.Logger) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		maxRetries:  max(cfg.MaxRetries, 1),
		baseBackoff: cfg.BaseBackoff,
		maxBackoff:  cfg.MaxBackoff,
		logger:      logger,
	}
}

// GetAllProducts возвращает все товары каталога.
func (c *Client) GetAllProducts(ctx context.Context) ([]domain.Product, error) {
	var models []productModel
	if err := c.getJSON(ctx, "GetAllProducts", "/products", &models); err != nil {
		return nil, err
	}

	return toDomainProducts(models), nil
}

// GetProductByID возвращает товар по ID. 404 или пустой ответ дают e.ErrProductNotFound.
func (c *Client) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "GetProductByID"

	var model *productModel
	err := c.getJSON(ctx, op, "/products/"+strconv.FormatInt(id, 10), &model)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) && fe.StatusCode == http.StatusNotFound {
			return nil, e.Wrap(op, e.ErrProductNotFound)
		}
		return nil, err
	}

	if model == nil || model.ID == 0 {
		return nil, e.Wrap(op, e.ErrProductNotFound)
	}

	p := model.toDomain()
	return &p, nil
}

func (c *Client) GetProductsByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	var models []productModel
	if err := c.getJSON(ctx, "GetProductsByCategory", "/products/category/"+url.PathEscape(category), &models); err != nil {
		return nil, err
	}

	return toDomainProducts(models), nil
}

func (c *Client) GetCategories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.getJSON(ctx, "GetCategories", "/products/categories", &categories); err != nil {
		return nil, err
	}

	if categories == nil {
		categories = []string{}
	}
	return categories, nil
}

// getJSON выполняет GET с повторами и экспоненциальной задержкой для повторяемых ошибок.
func (c *Client) getJSON(ctx context.Context, op, path string, dst any) error {
	target := c.baseURL + path

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		body, err := c.fetch(ctx, op, target)
		if err == nil {
			if len(body) == 0 {
				return nil
			}
			if err := json.Unmarshal(body, dst); err != nil {
				return &FetchError{Op: op, URL: target, StatusCode: http.StatusOK, Err: err}
			}
			return nil
		}

		lastErr = err
		if !IsRetryable(err) || attempt == c.maxRetries-1 {
			break
		}

		sleepTime := jitter.ExponentialBackoff(c.baseBackoff, c.maxBackoff, attempt, jitter.DefaultJitter)
		c.logger.Warnf("catalog %s failed, retrying in %v (attempt %d): %v", op, sleepTime, attempt+1, err)

		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return &FetchError{Op: op, URL: target, Err: ctx.Err()}
		}
	}

	return lastErr
}

func (c *Client) fetch(ctx context.Context, op, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &FetchError{Op: op, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Op: op, URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &FetchError{Op: op, URL: target, StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &FetchError{
			Op:         op,
			URL:        target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", http.StatusText(resp.StatusCode)),
		}
	}

	return body, nil
}
