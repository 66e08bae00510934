package http

import (
	"net/http"
	"net/url"

	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const (
	defaultFeaturedLimit = 4
	maxFeaturedLimit     = 20
)

type ProductHandler struct {
	catalogUsecase usecase.CatalogUC
	logger         logger.Logger
}

func NewProductHandler(catalogUsecase usecase.CatalogUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{catalogUsecase: catalogUsecase, logger: logger}
}

// listProducts
//
//	@Summary		Список товаров
//	@Description	Все товары каталога, опционально отфильтрованные по категории ("all" - без фильтра)
//	@Tags			products
//	@Produce		json
//	@Param			category	query		string	false	"Категория"
//	@Success		200			{object}	ProductListResponse
//	@Failure		503			{object}	ErrorResponse	"Каталог недоступен"
//	@Router			/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	list, err := p.catalogUsecase.ListProducts(r.Context(), usecase.NewProductFilter(r.URL.Query().Get("category")))
	if err != nil {
		p.logFailure(r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, ProductListResponse{
		Products: toArrProductResponse(list.Products),
		Count:    len(list.Products),
		Total:    list.Total,
	})
}

// featuredProducts
//
//	@Summary		Избранные товары
//	@Description	Случайная выборка товаров для главной страницы
//	@Tags			products
//	@Produce		json
//	@Param			limit	query		int	false	"Количество (1-20, по умолчанию 4)"
//	@Success		200		{array}		ProductResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		503		{object}	ErrorResponse
//	@Router			/products/featured [get]
func (p *ProductHandler) featuredProducts(w http.ResponseWriter, r *http.Request) {
	limit, err := limitParam(r, defaultFeaturedLimit, maxFeaturedLimit)
	if err != nil {
		p.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	products, err := p.catalogUsecase.FeaturedProducts(r.Context(), limit)
	if err != nil {
		p.logFailure(r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrProductResponse(products))
}

// getProduct
//
//	@Summary	Товар по ID
//	@Tags		products
//	@Produce	json
//	@Param		id	path		int	true	"ID товара"
//	@Success	200	{object}	ProductResponse
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Failure	503	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productIDParam(r)
	if err != nil {
		p.logger.Warnf("%d %s", http.StatusBadRequest, err.Error())
		WriteError(w, err)
		return
	}

	product, err := p.catalogUsecase.GetProduct(r.Context(), id)
	if err != nil {
		p.logFailure(r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toProductResponse(product))
}

// listCategories
//
//	@Summary	Категории каталога с количеством товаров
//	@Tags		categories
//	@Produce	json
//	@Success	200	{array}		CategoryResponse
//	@Failure	503	{object}	ErrorResponse
//	@Router		/categories [get]
func (p *ProductHandler) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := p.catalogUsecase.Categories(r.Context())
	if err != nil {
		p.logFailure(r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toCategoryResponses(categories))
}

// categoryProducts
//
//	@Summary	Товары категории
//	@Tags		categories
//	@Produce	json
//	@Param		name	path		string	true	"Категория"
//	@Success	200		{array}		ProductResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	503		{object}	ErrorResponse
//	@Router		/categories/{name}/products [get]
func (p *ProductHandler) categoryProducts(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		name = chi.URLParam(r, "name")
	}

	products, err := p.catalogUsecase.ProductsByCategory(r.Context(), name)
	if err != nil {
		p.logFailure(r, err)
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, toArrProductResponse(products))
}

func (p *ProductHandler) logFailure(r *http.Request, err error) {
	code, _, _ := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		p.logger.Errorf(err, "%s %s", r.Method, r.URL.Path)
		return
	}
	p.logger.Warnf("%d %s %s: %s", code, r.Method, r.URL.Path, err.Error())
}
