package order

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/noah-isme/taxcore/internal/adjustment"
	"github.com/noah-isme/taxcore/internal/jurisdiction"
	"github.com/noah-isme/taxcore/internal/money"
)

// ErrInvalidQuantity rejects line items with a non-positive quantity at
// construction time, before any computation sees them.
var ErrInvalidQuantity = errors.New("order: quantity must be at least 1")

// TaxableType classifies a line item for tax purposes.
type TaxableType string

const (
	// PhysicalGoods covers shippable products.
	PhysicalGoods TaxableType = "physical_goods"
	// DigitalGoods covers downloadable products.
	DigitalGoods TaxableType = "digital_goods"
	// Services covers performed services.
	Services TaxableType = "services"
	// NonTaxable marks items never taxed.
	NonTaxable TaxableType = "non_taxable"
)

// Store carries the seller-side facts the tax engine needs: where the store
// is based, where it is registered to collect tax, and whether its displayed
// prices already contain tax.
type Store struct {
	Jurisdiction     jurisdiction.Jurisdiction
	Registrations    []jurisdiction.Jurisdiction
	PricesIncludeTax bool
}

// Customer carries the buyer-side jurisdiction.
type Customer struct {
	Jurisdiction jurisdiction.Jurisdiction
}

// LineItem is a quantity of a product at a unit price plus its own adjustment
// ledger.
type LineItem struct {
	ID          uuid.UUID
	Quantity    int64
	UnitPrice   money.Money
	TaxableType TaxableType
	Adjustments *adjustment.Ledger
}

// NewLineItem validates and constructs a line item.
func NewLineItem(quantity int64, unitPrice money.Money, taxable TaxableType) (*LineItem, error) {
	if quantity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if taxable == "" {
		taxable = PhysicalGoods
	}
	return &LineItem{
		ID:          uuid.New(),
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TaxableType: taxable,
		Adjustments: adjustment.NewLedger(),
	}, nil
}

// AdjustedBase is the taxable base: unit price times quantity plus the net of
// all non-tax adjustments not already included in the price. Tax is computed
// on this, i.e. on the discounted price, never the list price.
func (li *LineItem) AdjustedBase() (money.Money, error) {
	base := li.UnitPrice.MulInt(li.Quantity)
	net, err := li.Adjustments.Net(base.Currency(), adjustment.And(adjustment.NonTax, adjustment.NotIncluded))
	if err != nil {
		return money.Money{}, err
	}
	return base.Add(net)
}

// Total is the adjusted base plus all tax adjustments that are added on top
// of the price. Included tax never changes the total.
func (li *LineItem) Total() (money.Money, error) {
	base, err := li.AdjustedBase()
	if err != nil {
		return money.Money{}, err
	}
	tax, err := li.Adjustments.Net(base.Currency(), adjustment.And(adjustment.Tax, adjustment.NotIncluded))
	if err != nil {
		return money.Money{}, err
	}
	return base.Add(tax)
}

// Clone returns a deep copy of the line item.
func (li *LineItem) Clone() *LineItem {
	out := *li
	out.Adjustments = li.Adjustments.Clone()
	return &out
}

// Order is a collection of line items plus an order-level adjustment ledger,
// bound to one currency.
type Order struct {
	ID          uuid.UUID
	Currency    string
	Store       Store
	Customer    Customer
	Items       []*LineItem
	Adjustments *adjustment.Ledger
}

// New constructs an empty order in the given currency.
func New(currency string, store Store, customer Customer) *Order {
	return &Order{
		ID:          uuid.New(),
		Currency:    currency,
		Store:       store,
		Customer:    customer,
		Adjustments: adjustment.NewLedger(),
	}
}

// AddItem appends a line item.
func (o *Order) AddItem(li *LineItem) {
	o.Items = append(o.Items, li)
}

// Total sums all line item totals plus the order ledger's net of non-included
// adjustments. Every amount must share the order currency; a foreign currency
// anywhere fails the aggregation.
func (o *Order) Total() (money.Money, error) {
	total := money.Zero(o.Currency)
	for i, li := range o.Items {
		lineTotal, err := li.Total()
		if err != nil {
			return money.Money{}, fmt.Errorf("line item %d: %w", i, err)
		}
		total, err = total.Add(lineTotal)
		if err != nil {
			return money.Money{}, fmt.Errorf("line item %d: %w", i, err)
		}
	}
	orderNet, err := o.Adjustments.Net(o.Currency, adjustment.NotIncluded)
	if err != nil {
		return money.Money{}, err
	}
	return total.Add(orderNet)
}

// CollectAdjustments returns every adjustment on the order and its line items
// in display order, line items first.
func (o *Order) CollectAdjustments() []adjustment.Adjustment {
	var out []adjustment.Adjustment
	for _, li := range o.Items {
		out = append(out, li.Adjustments.All()...)
	}
	out = append(out, o.Adjustments.All()...)
	return out
}

// Clone returns a deep copy of the order. Plugins work on a clone and hand it
// back only when the whole pass succeeded, which keeps the all-or-nothing
// contract mechanical.
func (o *Order) Clone() *Order {
	out := *o
	out.Adjustments = o.Adjustments.Clone()
	if len(o.Items) > 0 {
		out.Items = make([]*LineItem, len(o.Items))
		for i, li := range o.Items {
			out.Items[i] = li.Clone()
		}
	}
	if len(o.Store.Registrations) > 0 {
		out.Store.Registrations = make([]jurisdiction.Jurisdiction, len(o.Store.Registrations))
		copy(out.Store.Registrations, o.Store.Registrations)
	}
	return &out
}
