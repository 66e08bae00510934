package http

import (
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/shopspring/decimal"
)

// REQUESTS

type addItemRequest struct {
	ProductID int64 `json:"product_id" validate:"required,gt=0"`
	Quantity  int   `json:"quantity" validate:"gte=0,lte=999"`
}

type updateItemRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,lte=999"`
}

// RESPONSES

type RatingResponse struct {
	Rate  float64 `json:"rate"`
	Count int64   `json:"count"`
}

type ProductResponse struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price" swaggertype:"string"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      *RatingResponse `json:"rating,omitempty"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Count    int               `json:"count"`
	Total    int               `json:"total"`
}

type CategoryResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type CartItemResponse struct {
	ProductResponse
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal" swaggertype:"string"`
}

type SummaryResponse struct {
	Subtotal     decimal.Decimal `json:"subtotal" swaggertype:"string"`
	Tax          decimal.Decimal `json:"tax" swaggertype:"string"`
	Shipping     decimal.Decimal `json:"shipping" swaggertype:"string"`
	Total        decimal.Decimal `json:"total" swaggertype:"string"`
	FreeShipping bool            `json:"free_shipping"`
}

type CartResponse struct {
	SessionID  string             `json:"session_id"`
	Version    uint64             `json:"version"`
	Items      []CartItemResponse `json:"items"`
	TotalItems int                `json:"total_items"`
	TotalPrice decimal.Decimal    `json:"total_price" swaggertype:"string"`
	Summary    SummaryResponse    `json:"summary"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// MAPPERS

func toProductResponse(p *domain.Product) ProductResponse {
	res := ProductResponse{
		ID:          p.ID,
		Title:       p.Title,
		Price:       p.Price,
		Description: p.Description,
		Category:    p.Category,
		Image:       p.Image,
	}
	if p.Rating != nil {
		res.Rating = &RatingResponse{Rate: p.Rating.Rate, Count: p.Rating.Count}
	}
	return res
}

func toArrProductResponse(products []domain.Product) []ProductResponse {
	res := make([]ProductResponse, len(products))
	for i := range products {
		res[i] = toProductResponse(&products[i])
	}
	return res
}

func toCategoryResponses(categories []usecase.CategoryInfo) []CategoryResponse {
	res := make([]CategoryResponse, len(categories))
	for i, c := range categories {
		res[i] = CategoryResponse{Name: c.Name, Count: c.Count}
	}
	return res
}

func toSummaryResponse(s usecase.CartSummary) SummaryResponse {
	return SummaryResponse{
		Subtotal:     s.Subtotal,
		Tax:          s.Tax,
		Shipping:     s.Shipping,
		Total:        s.Total,
		FreeShipping: s.FreeShipping,
	}
}

func toCartResponse(snapshot usecase.CartSnapshot, summary usecase.CartSummary) CartResponse {
	items := make([]CartItemResponse, len(snapshot.Items))
	for i := range snapshot.Items {
		item := &snapshot.Items[i]
		items[i] = CartItemResponse{
			ProductResponse: toProductResponse(&item.Product),
			Quantity:        item.Quantity,
			Subtotal:        item.Subtotal(),
		}
	}

	return CartResponse{
		SessionID:  snapshot.SessionID,
		Version:    snapshot.Version,
		Items:      items,
		TotalItems: snapshot.TotalItems,
		TotalPrice: snapshot.TotalPrice,
		Summary:    toSummaryResponse(summary),
		UpdatedAt:  snapshot.UpdatedAt,
	}
}

func toCartViewResponse(view *usecase.CartView) CartResponse {
	return toCartResponse(view.Snapshot, view.Summary)
}
