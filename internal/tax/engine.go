package tax

import (
	"github.com/shopspring/decimal"

	"github.com/noah-isme/taxcore/internal/money"
)

// LineTax is the outcome of taxing a single taxable base.
type LineTax struct {
	Amount money.Money
	// Included reports whether the amount was already part of the base
	// price (inclusive pricing) rather than added on top.
	Included bool
}

var one = decimal.NewFromInt(1)

// ComputeLine applies a rate to a taxable base.
//
// Exclusive mode adds tax on top: tax = round(base × rate). Inclusive mode
// splits the base instead: net = round(base / (1 + rate)), tax = base − net,
// leaving the total unchanged. Rounding happens exactly once, here.
func ComputeLine(base money.Money, rate decimal.Decimal, inclusive bool, mode money.Mode) (LineTax, error) {
	if inclusive {
		net := base.DivDec(one.Add(rate)).Round(mode)
		amount, err := base.Sub(net)
		if err != nil {
			return LineTax{}, err
		}
		return LineTax{Amount: amount, Included: true}, nil
	}
	return LineTax{Amount: base.MulDec(rate).Round(mode)}, nil
}
