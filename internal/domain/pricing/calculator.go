// Package pricing считает итоги по позициям предложения в десятичной арифметике.
package pricing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

// Scale: точность итоговых сумм (копейки/центы).
const Scale = 2

var (
	hundred    = decimal.NewFromInt(100)
	maxTaxRate = hundred
)

// Discount задаётся абсолютной суммой на строку, TaxRate в процентах.
type Item struct {
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal
	Discount  decimal.Decimal
	TaxRate   decimal.Decimal
}

// LineAmount возвращает quantity × unit_price.
func (i Item) LineAmount() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// TaxableAmount возвращает сумму строки за вычетом скидки.
func (i Item) TaxableAmount() decimal.Decimal {
	return i.LineAmount().Sub(i.Discount)
}

type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxAmount      decimal.Decimal `json:"tax_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
}

// Zero возвращает нулевые итоги.
func Zero() Totals {
	return Totals{
		Subtotal:       decimal.Zero,
		DiscountAmount: decimal.Zero,
		TaxAmount:      decimal.Zero,
		TotalAmount:    decimal.Zero,
	}
}

// Equal сравнивает итоги по значению, без учёта представления (200 == 200.00).
func (t Totals) Equal(other Totals) bool {
	return t.Subtotal.Equal(other.Subtotal) &&
		t.DiscountAmount.Equal(other.DiscountAmount) &&
		t.TaxAmount.Equal(other.TaxAmount) &&
		t.TotalAmount.Equal(other.TotalAmount)
}

// Validate проверяет одну позицию. index используется в имени поля ошибки.
// Помимо знаков и диапазона ставки налога отклоняется скидка больше суммы строки
// (quantity × unit_price): такая позиция дала бы отрицательную облагаемую базу.
// Это дополнительное правило, при нарушении ответ 400 VALIDATION_ERROR с полем items[i].discount.
func Validate(index int, item Item) error {
	field := func(name string) string { return fmt.Sprintf("items[%d].%s", index, name) }

	if item.Quantity.IsNegative() {
		return apperror.Validation(field("quantity"), "количество не может быть отрицательным")
	}
	if item.UnitPrice.IsNegative() {
		return apperror.Validation(field("unit_price"), "цена не может быть отрицательной")
	}
	if item.Discount.IsNegative() {
		return apperror.Validation(field("discount"), "скидка не может быть отрицательной")
	}
	if item.Discount.GreaterThan(item.LineAmount()) {
		return apperror.Validation(field("discount"), "скидка не может превышать сумму строки")
	}
	if item.TaxRate.IsNegative() || item.TaxRate.GreaterThan(maxTaxRate) {
		return apperror.Validation(field("tax_rate"), "ставка налога должна быть в диапазоне от 0 до 100")
	}
	return nil
}

// Calculate считает subtotal, скидку, налог и итог.
// Суммы накапливаются точно и округляются до Scale только в конце;
// total считается из округлённых слагаемых, поэтому total == subtotal - discount + tax выполняется точно.
func Calculate(items []Item) (Totals, error) {
	subtotal := decimal.Zero
	discount := decimal.Zero
	tax := decimal.Zero

	for i, item := range items {
		if err := Validate(i, item); err != nil {
			return Totals{}, err
		}
		subtotal = subtotal.Add(item.LineAmount())
		discount = discount.Add(item.Discount)
		tax = tax.Add(item.TaxableAmount().Mul(item.TaxRate).Div(hundred))
	}

	subtotal = subtotal.Round(Scale)
	discount = discount.Round(Scale)
	tax = tax.Round(Scale)

	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		TotalAmount:    subtotal.Sub(discount).Add(tax),
	}, nil
}
