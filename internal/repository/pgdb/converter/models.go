package converter

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartSessionModel представляет запись таблицы cart_sessions в PostgreSQL.
type CartSessionModel struct {
	SessionID string    `db:"session_id"`
	Items     []byte    `db:"items"`
	UpdatedAt time.Time `db:"updated_at"`
}

// CartLineItemModel - элемент JSONB-массива items.
type CartLineItemModel struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      *RatingModel    `json:"rating,omitempty"`
	Quantity    int             `json:"quantity"`
}

type RatingModel struct {
	Rate  float64 `json:"rate"`
	Count int64   `json:"count"`
}
