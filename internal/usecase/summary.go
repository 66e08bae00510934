package usecase

import "github.com/shopspring/decimal"

const moneyPlaces = 2

// SummaryCalculator считает налог и доставку поверх итога корзины.
// Это витринный расчёт: агрегат корзины о нём не знает.
type SummaryCalculator struct {
	TaxRate               decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	ShippingFee           decimal.Decimal
}

func NewSummaryCalculator(taxRate, freeShippingThreshold, shippingFee decimal.Decimal) *SummaryCalculator {
	return &SummaryCalculator{
		TaxRate:               taxRate,
		FreeShippingThreshold: freeShippingThreshold,
		ShippingFee:           shippingFee,
	}
}

// DefaultSummaryCalculator - 10% налога, бесплатная доставка от 50.
func DefaultSummaryCalculator() *SummaryCalculator {
	return NewSummaryCalculator(decimal.NewFromFloat(0.1), decimal.NewFromInt(50), decimal.Zero)
}

// Summarize округляет налог и итог до копеек. Пустая корзина доставку не оплачивает.
func (c *SummaryCalculator) Summarize(subtotal decimal.Decimal) CartSummary {
	tax := subtotal.Mul(c.TaxRate).Round(moneyPlaces)

	shipping := decimal.Zero
	if subtotal.IsPositive() && subtotal.LessThan(c.FreeShippingThreshold) {
		shipping = c.ShippingFee
	}

	return CartSummary{
		Subtotal:     subtotal,
		Tax:          tax,
		Shipping:     shipping,
		Total:        subtotal.Add(tax).Add(shipping).Round(moneyPlaces),
		FreeShipping: shipping.IsZero(),
	}
}
