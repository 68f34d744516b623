package valueobject

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ignatzorin/proposal-engine/internal/pkg/apperror"
)

// DefaultCurrency используется, если валюта не указана.
const DefaultCurrency = "USD"

// MoneyScale: знаков после запятой в денежных суммах.
const MoneyScale = 2

type Money struct {
	Amount   decimal.Decimal
	Currency string
}

func NewMoney(amount decimal.Decimal, currency string) (Money, error) {
	if amount.IsNegative() {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "сумма не может быть отрицательной")
	}
	cur, err := NormalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{Amount: amount, Currency: cur}, nil
}

func (m Money) String() string {
	return m.Currency + " " + m.Amount.StringFixed(MoneyScale)
}

// NormalizeCurrency приводит код валюты к ISO 4217 виду (три латинские буквы в верхнем регистре).
func NormalizeCurrency(currency string) (string, error) {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	if cur == "" {
		return DefaultCurrency, nil
	}
	if len(cur) != 3 {
		return "", apperror.Validation("currency", "код валюты должен состоять из трёх букв")
	}
	for _, r := range cur {
		if r < 'A' || r > 'Z' {
			return "", apperror.Validation("currency", "код валюты должен состоять из трёх букв")
		}
	}
	return cur, nil
}
