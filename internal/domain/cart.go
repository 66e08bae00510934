package domain

import "github.com/shopspring/decimal"

// MaxLineQuantity - предел количества в одной строке. Суммы сверх него насыщаются.
const MaxLineQuantity = 1_000_000

// CartLineItem - строка корзины: снимок товара и количество (всегда >= 1).
type CartLineItem struct {
	Product
	Quantity int
}

// Subtotal возвращает цену строки: снимок цены × количество.
func (li CartLineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// Cart - агрегат корзины. Строки упорядочены по первому добавлению,
// на каждый ID товара не более одной строки.
// Cart не потокобезопасен, синхронизацию обеспечивает владелец.
type Cart struct {
	items []CartLineItem
}

func NewCart() *Cart {
	return &Cart{}
}

// RestoreCart собирает корзину из сохранённых строк, восстанавливая инварианты:
// строки с quantity < 1 или ID <= 0 отбрасываются, дубли ID сливаются в первую строку.
func RestoreCart(items []CartLineItem) *Cart {
	c := NewCart()
	for _, it := range items {
		if it.Quantity < 1 || !it.IsValid() {
			continue
		}
		if i := c.indexOf(it.ID); i >= 0 {
			c.items[i].Quantity = addQuantity(c.items[i].Quantity, it.Quantity)
			continue
		}
		c.items = append(c.items, CartLineItem{Product: it.Product.clone(), Quantity: min(it.Quantity, MaxLineQuantity)})
	}
	return c
}

// Add добавляет quantity единиц товара. Если строка уже есть, увеличивает количество
// и не трогает сохранённый снимок. quantity < 1 трактуется как 1, количество не превышает MaxLineQuantity.
// Товар с некорректным ID игнорируется.
func (c *Cart) Add(product Product, quantity int) bool {
	if !product.IsValid() {
		return false
	}
	if quantity < 1 {
		quantity = 1
	}

	if i := c.indexOf(product.ID); i >= 0 {
		next := addQuantity(c.items[i].Quantity, quantity)
		if next == c.items[i].Quantity {
			return false
		}
		c.items[i].Quantity = next
		return true
	}

	c.items = append(c.items, CartLineItem{Product: product.clone(), Quantity: min(quantity, MaxLineQuantity)})
	return true
}

// Remove удаляет строку товара. Отсутствующий ID не ошибка.
func (c *Cart) Remove(productID int64) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	return true
}

// SetQuantity задаёт абсолютное количество. quantity <= 0 равносильно Remove.
func (c *Cart) SetQuantity(productID int64, quantity int) bool {
	if quantity <= 0 {
		return c.Remove(productID)
	}
	quantity = min(quantity, MaxLineQuantity)

	i := c.indexOf(productID)
	if i < 0 || c.items[i].Quantity == quantity {
		return false
	}
	c.items[i].Quantity = quantity
	return true
}

// Clear очищает корзину. Возвращает false, если она уже была пуста.
func (c *Cart) Clear() bool {
	if len(c.items) == 0 {
		return false
	}
	c.items = nil
	return true
}

func (c *Cart) TotalItems() int {
	total := 0
	for _, it := range c.items {
		total += it.Quantity
	}
	return total
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Items возвращает копию строк корзины.
func (c *Cart) Items() []CartLineItem {
	out := make([]CartLineItem, len(c.items))
	for i, it := range c.items {
		out[i] = CartLineItem{Product: it.Product.clone(), Quantity: it.Quantity}
	}
	return out
}

func (c *Cart) Len() int {
	return len(c.items)
}

// addQuantity складывает количества с насыщением. Оба слагаемых положительны.
func addQuantity(current, delta int) int {
	if delta >= MaxLineQuantity-current {
		return MaxLineQuantity
	}
	return current + delta
}

func (c *Cart) indexOf(productID int64) int {
	for i := range c.items {
		if c.items[i].ID == productID {
			return i
		}
	}
	return -1
}
