package usecase

import (
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// CART STORE

// CartOp - команда, которая изменила корзину.
type CartOp string

const (
	OpLoad           CartOp = "load"
	OpAdd            CartOp = "add"
	OpRemove         CartOp = "remove"
	OpUpdateQuantity CartOp = "update_quantity"
	OpClear          CartOp = "clear"
)

// CartSnapshot - неизменяемый срез состояния корзины, который получают наблюдатели.
// Items принадлежит получателю только на чтение.
type CartSnapshot struct {
	SessionID  string
	Op         CartOp
	Version    uint64
	Items      []domain.CartLineItem
	TotalItems int
	TotalPrice decimal.Decimal
	UpdatedAt  time.Time
}

// CartSummary - итог корзины для витрины: налог и доставка считаются вне агрегата.
type CartSummary struct {
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Shipping     decimal.Decimal
	Total        decimal.Decimal
	FreeShipping bool
}

// CartView - корзина вместе с расчётом итогов.
type CartView struct {
	Snapshot CartSnapshot
	Summary  CartSummary
}

// AddToCartReq - запрос на добавление товара по ID из каталога.
type AddToCartReq struct {
	SessionID string
	ProductID int64
	Quantity  int
}

// CATALOG

// ProductFilter - фильтр списка товаров. Пустая категория или "all" означают все товары.
type ProductFilter struct {
	Category string
}

// CategoryInfo - категория и количество товаров в ней.
type CategoryInfo struct {
	Name  string
	Count int
}

// ProductList - товары после фильтрации и общее число товаров в каталоге.
type ProductList struct {
	Products []domain.Product
	Total    int
}

// MAPPERS

func NewCartSnapshot(sessionID string, op CartOp, version uint64, cart *domain.Cart, updatedAt time.Time) CartSnapshot {
	return CartSnapshot{
		SessionID:  sessionID,
		Op:         op,
		Version:    version,
		Items:      cart.Items(),
		TotalItems: cart.TotalItems(),
		TotalPrice: cart.TotalPrice(),
		UpdatedAt:  updatedAt,
	}
}

func NewAddToCartReq(sessionID string, productID int64, quantity int) *AddToCartReq {
	return &AddToCartReq{
		SessionID: sessionID,
		ProductID: productID,
		Quantity:  quantity,
	}
}

func NewProductFilter(category string) ProductFilter {
	return ProductFilter{Category: category}
}

func NewCategoryInfo(name string, count int) CategoryInfo {
	return CategoryInfo{Name: name, Count: count}
}

func NewProductList(products []domain.Product, total int) *ProductList {
	return &ProductList{Products: products, Total: total}
}
