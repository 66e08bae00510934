package converter

import "github.com/DRSN-tech/storefront/internal/domain"

// CartConverter преобразует строки корзины между domain и JSONB-моделью PostgreSQL.
type CartConverter interface {
	ToModels(items []domain.CartLineItem) []CartLineItemModel
	ToEntities(models []CartLineItemModel) []domain.CartLineItem
}

type CartConv struct{}

func NewCartConv() *CartConv {
	return &CartConv{}
}

func (CartConv) ToModels(items []domain.CartLineItem) []CartLineItemModel {
	models := make([]CartLineItemModel, 0, len(items))
	for _, it := range items {
		m := CartLineItemModel{
			ID:          it.ID,
			Title:       it.Title,
			Price:       it.Price,
			Description: it.Description,
			Category:    it.Category,
			Image:       it.Image,
			Quantity:    it.Quantity,
		}
		if it.Rating != nil {
			m.Rating = &RatingModel{Rate: it.Rating.Rate, Count: it.Rating.Count}
		}
		models = append(models, m)
	}
	return models
}

func (CartConv) ToEntities(models []CartLineItemModel) []domain.CartLineItem {
	items := make([]domain.CartLineItem, 0, len(models))
	for _, m := range models {
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
		items = append(items, domain.CartLineItem{Product: p, Quantity: m.Quantity})
	}
	return items
}
