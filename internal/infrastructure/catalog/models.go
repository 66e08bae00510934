package catalog

import (
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// productModel - товар в формате fakestoreapi.
type productModel struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      *ratingModel    `json:"rating"`
}

type ratingModel struct {
	Rate  float64 `json:"rate"`
	Count int64   `json:"count"`
}

func (m productModel) toDomain() domain.Product {
	p := domain.Product{
		ID:          m.ID,
		Title:       m.Title,
		Price:       m.Price,
		Description: m.Description,
		Category:    m.Category,
		Image:       m.Image,
	}
	if m.Rating != nil {
		p.Rating = &domain.Rating{Rate: m.Rating.Rate, Count: m.Rating.Count}
	}
	return p
}

func toDomainProducts(models []productModel) []domain.Product {
	products := make([]domain.Product, 0, len(models))
	for _, m := range models {
		products = append(products, m.toDomain())
	}
	return products
}
