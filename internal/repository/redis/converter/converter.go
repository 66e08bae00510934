package converter

import "github.com/DRSN-tech/storefront/internal/domain"

// ProductConverter преобразует товары и строки корзины между domain и моделями Redis.
type ProductConverter interface {
	ToRedisModel(entity *domain.Product) *ProductRedisModel
	ToEntity(model *ProductRedisModel) *domain.Product
	ToArrRedisModel(entities []domain.Product) []ProductRedisModel
	ToArrEntity(models []ProductRedisModel) []domain.Product
	ToLineItemModels(items []domain.CartLineItem) []CartLineItemRedisModel
	ToLineItems(models []CartLineItemRedisModel) []domain.CartLineItem
}

type ProductConv struct{}

func NewProductConv() *ProductConv {
	return &ProductConv{}
}

func (ProductConv) ToRedisModel(entity *domain.Product) *ProductRedisModel {
	if entity == nil {
		return nil
	}

	model := &ProductRedisModel{
		ID:          entity.ID,
		Title:       entity.Title,
		Price:       entity.Price,
		Description: entity.Description,
		Category:    entity.Category,
		Image:       entity.Image,
	}
	if entity.Rating != nil {
		model.Rating = &RatingRedisModel{Rate: entity.Rating.Rate, Count: entity.Rating.Count}
	}

	return model
}

func (ProductConv) ToEntity(model *ProductRedisModel) *domain.Product {
	if model == nil {
		return nil
	}

	entity := &domain.Product{
		ID:          model.ID,
		Title:       model.Title,
		Price:       model.Price,
		Description: model.Description,
		Category:    model.Category,
		Image:       model.Image,
	}
	if model.Rating != nil {
		entity.Rating = &domain.Rating{Rate: model.Rating.Rate, Count: model.Rating.Count}
	}

	return entity
}

func (c ProductConv) ToArrRedisModel(entities []domain.Product) []ProductRedisModel {
	models := make([]ProductRedisModel, 0, len(entities))
	for i := range entities {
		models = append(models, *c.ToRedisModel(&entities[i]))
	}
	return models
}

func (c ProductConv) ToArrEntity(models []ProductRedisModel) []domain.Product {
	entities := make([]domain.Product, 0, len(models))
	for i := range models {
		entities = append(entities, *c.ToEntity(&models[i]))
	}
	return entities
}

func (c ProductConv) ToLineItemModels(items []domain.CartLineItem) []CartLineItemRedisModel {
	models := make([]CartLineItemRedisModel, 0, len(items))
	for i := range items {
		models = append(models, CartLineItemRedisModel{
			ProductRedisModel: *c.ToRedisModel(&items[i].Product),
			Quantity:          items[i].Quantity,
		})
	}
	return models
}

func (c ProductConv) ToLineItems(models []CartLineItemRedisModel) []domain.CartLineItem {
	items := make([]domain.CartLineItem, 0, len(models))
	for i := range models {
		items = append(items, domain.CartLineItem{
			Product:  *c.ToEntity(&models[i].ProductRedisModel),
			Quantity: models[i].Quantity,
		})
	}
	return items
}
