package domain

import "github.com/shopspring/decimal"

// Product описывает товар внешнего каталога. Корзина хранит его копию на момент добавления.
type Product struct {
	ID          int64
	Title       string
	Price       decimal.Decimal
	Description string
	Category    string
	Image       string
	Rating      *Rating
}

// Rating - необязательная оценка товара.
type Rating struct {
	Rate  float64
	Count int64
}

// IsValid сообщает, может ли товар попасть в корзину.
func (p Product) IsValid() bool {
	return p.ID > 0
}

func (p Product) clone() Product {
	if p.Rating != nil {
		r := *p.Rating
		p.Rating = &r
	}
	return p
}
