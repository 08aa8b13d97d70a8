package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an immutable monetary amount bound to an ISO 4217 currency code.
// Arithmetic is exact decimal; rounding happens only when Round is called.
type Money struct {
	amount   decimal.Decimal
	currency string
}

// CurrencyMismatchError reports an operation combining two different currencies.
// It is a programming error on the caller's side and is never coerced away.
type CurrencyMismatchError struct {
	Left  string
	Right string
}

// Error implements the error interface.
func (e *CurrencyMismatchError) Error() string {
	return fmt.Sprintf("money: currency mismatch: %s vs %s", e.Left, e.Right)
}

// New parses a decimal string into a Money value.
func New(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return Money{}, fmt.Errorf("money: parse amount %q: %w", amount, err)
	}
	code, err := normalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: d, currency: code}, nil
}

// MustNew is New that panics on invalid input. Intended for literals in tests
// and static tables.
func MustNew(amount, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// FromDecimal wraps an existing decimal in the given currency.
func FromDecimal(d decimal.Decimal, currency string) (Money, error) {
	code, err := normalizeCurrency(currency)
	if err != nil {
		return Money{}, err
	}
	return Money{amount: d, currency: code}, nil
}

// Zero returns the zero amount of the given currency. An invalid code is a
// programming error and panics, like MustNew.
func Zero(currency string) Money {
	code, err := normalizeCurrency(currency)
	if err != nil {
		panic(err)
	}
	return Money{amount: decimal.Zero, currency: code}
}

func normalizeCurrency(currency string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(currency))
	if len(code) != 3 {
		return "", fmt.Errorf("money: invalid currency code %q", currency)
	}
	return code, nil
}

// Amount returns the exact decimal amount.
func (m Money) Amount() decimal.Decimal { return m.amount }

// Currency returns the ISO 4217 currency code.
func (m Money) Currency() string { return m.currency }

// Add returns m + other. Fails with CurrencyMismatchError on differing currencies.
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, &CurrencyMismatchError{Left: m.currency, Right: other.currency}
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// Sub returns m − other. Fails with CurrencyMismatchError on differing currencies.
func (m Money) Sub(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, &CurrencyMismatchError{Left: m.currency, Right: other.currency}
	}
	return Money{amount: m.amount.Sub(other.amount), currency: m.currency}, nil
}

// MulInt multiplies by a unit-less integer scalar (e.g. a quantity).
func (m Money) MulInt(n int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(n)), currency: m.currency}
}

// MulDec multiplies by a unit-less decimal scalar (e.g. a tax rate).
func (m Money) MulDec(d decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(d), currency: m.currency}
}

// DivDec divides by a unit-less decimal scalar. The divisor must be non-zero.
// Division precision exceeds any currency's minor unit, so a later Round call
// lands on the same value an exact rational division would.
func (m Money) DivDec(d decimal.Decimal) Money {
	return Money{amount: m.amount.DivRound(d, divisionScale), currency: m.currency}
}

// divisionScale keeps intermediate quotients well past minor-unit precision.
const divisionScale = 12

// Cmp compares two amounts: -1 if m < other, 0 if equal, 1 if m > other.
func (m Money) Cmp(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, &CurrencyMismatchError{Left: m.currency, Right: other.currency}
	}
	return m.amount.Cmp(other.amount), nil
}

// Equal reports whether amount and currency are both equal.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// IsZero reports whether the amount is exactly zero.
func (m Money) IsZero() bool { return m.amount.IsZero() }

// IsNegative reports whether the amount is below zero.
func (m Money) IsNegative() bool { return m.amount.IsNegative() }

// IsPositive reports whether the amount is above zero.
func (m Money) IsPositive() bool { return m.amount.IsPositive() }

// Negate returns the amount with its sign flipped.
func (m Money) Negate() Money {
	return Money{amount: m.amount.Neg(), currency: m.currency}
}

// String renders the amount followed by its currency code, e.g. "12.6 USD".
func (m Money) String() string {
	return m.amount.String() + " " + m.currency
}
