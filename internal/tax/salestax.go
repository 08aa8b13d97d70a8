package tax

import (
	"github.com/noah-isme/taxcore/internal/jurisdiction"
	"github.com/noah-isme/taxcore/internal/order"
)

// TypeSalesTax identifies the US-style sales tax regime.
const TypeSalesTax = "sales_tax"

// NewSalesTax builds a destination-based sales tax regime: the rate follows
// the customer's jurisdiction, and tax is only collected when the store is
// registered (or based) in the resolved zone. Only physical goods are taxed.
func NewSalesTax(cfg RegimeConfig) *Regime {
	return newRegime(
		TypeSalesTax,
		"Sales tax",
		jurisdiction.PolicyDestination,
		[]order.TaxableType{order.PhysicalGoods},
		true,
		cfg,
	)
}
