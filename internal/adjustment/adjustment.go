package adjustment

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/taxcore/internal/money"
)

// Type classifies an adjustment within a ledger.
type Type string

const (
	// TypeTax marks adjustments produced by a tax regime.
	TypeTax Type = "tax"
	// TypePromotion marks discounts applied before tax.
	TypePromotion Type = "promotion"
	// TypeShipping marks shipping charges.
	TypeShipping Type = "shipping"
	// TypeFee marks surcharges such as payment fees.
	TypeFee Type = "fee"
	// TypeCustom marks caller-defined adjustments.
	TypeCustom Type = "custom"
)

// ErrUnknownType is returned when an adjustment carries an unrecognised type.
var ErrUnknownType = errors.New("adjustment: unknown type")

// IsValidType reports whether t is one of the known adjustment types.
func IsValidType(t Type) bool {
	switch t {
	case TypeTax, TypePromotion, TypeShipping, TypeFee, TypeCustom:
		return true
	}
	return false
}

// Adjustment is a signed price modification attached to a line item or order.
// Values are immutable once created; changing one means remove and re-add.
type Adjustment struct {
	Type       Type
	Label      string
	Amount     money.Money
	Percentage *decimal.Decimal
	Included   bool
	Locked     bool
	SourceID   string
}

// New validates and constructs an adjustment.
func New(t Type, label string, amount money.Money) (Adjustment, error) {
	if !IsValidType(t) {
		return Adjustment{}, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
	return Adjustment{Type: t, Label: label, Amount: amount}, nil
}

// IsTax reports whether the adjustment was produced by a tax regime.
func (a Adjustment) IsTax() bool { return a.Type == TypeTax }
