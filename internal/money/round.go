package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Mode selects how a half-way amount is resolved when quantizing to a
// currency's minor unit. The mode is chosen per deployment and stays fixed
// for the whole of a computation run.
type Mode string

const (
	// RoundHalfUp rounds half-way cases away from zero. Default.
	RoundHalfUp Mode = "half-up"
	// RoundHalfDown rounds half-way cases towards zero.
	RoundHalfDown Mode = "half-down"
	// RoundHalfEven rounds half-way cases to the nearest even digit.
	RoundHalfEven Mode = "half-even"
	// RoundUp always rounds away from zero.
	RoundUp Mode = "up"
	// RoundDown always truncates towards zero.
	RoundDown Mode = "down"
)

// ParseMode maps a config string to a rounding mode, defaulting to half-up.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case "", RoundHalfUp:
		return RoundHalfUp, nil
	case RoundHalfDown:
		return RoundHalfDown, nil
	case RoundHalfEven:
		return RoundHalfEven, nil
	case RoundUp:
		return RoundUp, nil
	case RoundDown:
		return RoundDown, nil
	}
	return "", fmt.Errorf("money: unknown rounding mode %q", value)
}

// minorUnits maps currency codes to their minor-unit digit count. Codes not
// listed use two digits.
var minorUnits = map[string]int32{
	"BHD": 3,
	"BIF": 0,
	"CLP": 0,
	"DJF": 0,
	"GNF": 0,
	"IQD": 3,
	"ISK": 0,
	"JOD": 3,
	"JPY": 0,
	"KMF": 0,
	"KRW": 0,
	"KWD": 3,
	"LYD": 3,
	"OMR": 3,
	"PYG": 0,
	"RWF": 0,
	"TND": 3,
	"UGX": 0,
	"VND": 0,
	"XAF": 0,
	"XOF": 0,
	"XPF": 0,
}

// Precision returns the minor-unit digit count for a currency code.
func Precision(currency string) int32 {
	if p, ok := minorUnits[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return p
	}
	return 2
}

// Round quantizes the amount to its currency's minor-unit precision using the
// given mode. Rounding an already-rounded value returns an equal value.
func (m Money) Round(mode Mode) Money {
	places := Precision(m.currency)
	return Money{amount: roundDecimal(m.amount, places, mode), currency: m.currency}
}

func roundDecimal(d decimal.Decimal, places int32, mode Mode) decimal.Decimal {
	switch mode {
	case RoundHalfDown:
		return roundHalfDown(d, places)
	case RoundHalfEven:
		return d.RoundBank(places)
	case RoundUp:
		return d.RoundUp(places)
	case RoundDown:
		return d.RoundDown(places)
	default:
		return d.Round(places)
	}
}

// roundHalfDown truncates exactly-half remainders, rounds everything else to
// nearest. shopspring/decimal has no native half-down, so the remainder is
// compared against half of the smallest representable step.
func roundHalfDown(d decimal.Decimal, places int32) decimal.Decimal {
	truncated := d.Truncate(places)
	remainder := d.Sub(truncated).Abs()
	half := decimal.New(5, -places-1)
	if remainder.Cmp(half) <= 0 {
		return truncated
	}
	step := decimal.New(1, -places)
	if d.IsNegative() {
		return truncated.Sub(step)
	}
	return truncated.Add(step)
}
