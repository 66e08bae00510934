package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductRedisModel - товар в кэше каталога и в строке корзины.
type ProductRedisModel struct {
	ID          int64             `json:"id"`
	Title       string            `json:"title"`
	Price       decimal.Decimal   `json:"price"`
	Description string            `json:"description"`
	Category    string            `json:"category"`
	Image       string            `json:"image"`
	Rating      *RatingRedisModel `json:"rating,omitempty"`
}

type RatingRedisModel struct {
	Rate  float64 `json:"rate"`
	Count int64   `json:"count"`
}

// CartLineItemRedisModel хранит поля товара плоско рядом с количеством.
type CartLineItemRedisModel struct {
	ProductRedisModel
	Quantity int `json:"quantity"`
}

// CartRedisModel - значение ключа cart:<session_id>.
type CartRedisModel struct {
	Items     []CartLineItemRedisModel `json:"items"`
	UpdatedAt time.Time                `json:"updated_at"`
}
