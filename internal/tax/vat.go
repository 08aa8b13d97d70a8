package tax

import (
	"github.com/noah-isme/taxcore/internal/jurisdiction"
	"github.com/noah-isme/taxcore/internal/order"
)

// TypeEuropeanUnionVAT identifies the EU VAT regime.
const TypeEuropeanUnionVAT = "european_union_vat"

// NewEuropeanUnionVAT builds the EU VAT regime: origin-based, so the rate is
// determined by the store's home country or a country it is registered in,
// regardless of customer location. Physical goods, digital goods and services
// are all in scope.
func NewEuropeanUnionVAT(cfg RegimeConfig) *Regime {
	return newRegime(
		TypeEuropeanUnionVAT,
		"VAT",
		jurisdiction.PolicyOrigin,
		[]order.TaxableType{order.PhysicalGoods, order.DigitalGoods, order.Services},
		false,
		cfg,
	)
}
