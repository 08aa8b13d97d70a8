package order

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taxcore/internal/adjustment"
	"github.com/noah-isme/taxcore/internal/jurisdiction"
	"github.com/noah-isme/taxcore/internal/money"
)

func TestNewLineItemRejectsNonPositiveQuantity(t *testing.T) {
	_, err := NewLineItem(0, money.MustNew("10.00", "USD"), PhysicalGoods)
	assert.True(t, errors.Is(err, ErrInvalidQuantity))
	_, err = NewLineItem(-3, money.MustNew("10.00", "USD"), PhysicalGoods)
	assert.True(t, errors.Is(err, ErrInvalidQuantity))
}

func TestAdjustedBaseNetsDiscountBeforeTax(t *testing.T) {
	li, err := NewLineItem(1, money.MustNew("100.00", "USD"), PhysicalGoods)
	require.NoError(t, err)
	require.NoError(t, li.Adjustments.Add(adjustment.Adjustment{
		Type:   adjustment.TypePromotion,
		Label:  "Discount",
		Amount: money.MustNew("-40.00", "USD"),
	}))

	base, err := li.AdjustedBase()
	require.NoError(t, err)
	assert.True(t, base.Equal(money.MustNew("60.00", "USD")))
}

func TestAdjustedBaseIgnoresIncludedAndTax(t *testing.T) {
	li, err := NewLineItem(2, money.MustNew("25.00", "USD"), PhysicalGoods)
	require.NoError(t, err)
	require.NoError(t, li.Adjustments.Add(adjustment.Adjustment{
		Type: adjustment.TypeTax, Label: "VAT", Amount: money.MustNew("10.50", "USD"),
	}))
	require.NoError(t, li.Adjustments.Add(adjustment.Adjustment{
		Type: adjustment.TypeFee, Label: "Eco fee", Amount: money.MustNew("2.00", "USD"), Included: true,
	}))

	base, err := li.AdjustedBase()
	require.NoError(t, err)
	assert.True(t, base.Equal(money.MustNew("50.00", "USD")))

	total, err := li.Total()
	require.NoError(t, err)
	assert.True(t, total.Equal(money.MustNew("60.50", "USD")))
}

func TestOrderTotalAggregates(t *testing.T) {
	o := New("USD", Store{}, Customer{})
	li1, err := NewLineItem(1, money.MustNew("60.00", "USD"), PhysicalGoods)
	require.NoError(t, err)
	require.NoError(t, li1.Adjustments.Add(adjustment.Adjustment{
		Type: adjustment.TypeTax, Label: "VAT", Amount: money.MustNew("12.60", "USD"),
	}))
	li2, err := NewLineItem(3, money.MustNew("5.00", "USD"), PhysicalGoods)
	require.NoError(t, err)
	o.AddItem(li1)
	o.AddItem(li2)
	require.NoError(t, o.Adjustments.Add(adjustment.Adjustment{
		Type: adjustment.TypeShipping, Label: "Shipping", Amount: money.MustNew("4.99", "USD"),
	}))

	total, err := o.Total()
	require.NoError(t, err)
	assert.True(t, total.Equal(money.MustNew("92.59", "USD")), "got %s", total)
}

func TestOrderTotalCurrencyClosure(t *testing.T) {
	o := New("USD", Store{}, Customer{})
	li, err := NewLineItem(1, money.MustNew("10.00", "EUR"), PhysicalGoods)
	require.NoError(t, err)
	o.AddItem(li)

	_, err = o.Total()
	var mismatch *money.CurrencyMismatchError
	assert.True(t, errors.As(err, &mismatch))
}

func TestCloneIsDeep(t *testing.T) {
	o := New("USD", Store{
		Jurisdiction:  jurisdiction.Jurisdiction{CountryCode: "NL"},
		Registrations: []jurisdiction.Jurisdiction{{CountryCode: "DE"}},
	}, Customer{Jurisdiction: jurisdiction.Jurisdiction{CountryCode: "NL"}})
	li, err := NewLineItem(1, money.MustNew("100.00", "USD"), PhysicalGoods)
	require.NoError(t, err)
	o.AddItem(li)

	clone := o.Clone()
	require.NoError(t, clone.Items[0].Adjustments.Add(adjustment.Adjustment{
		Type: adjustment.TypeTax, Label: "VAT", Amount: money.MustNew("21.00", "USD"),
	}))
	clone.Store.Registrations[0].CountryCode = "FR"

	assert.Equal(t, 0, o.Items[0].Adjustments.Len())
	assert.Equal(t, "DE", o.Store.Registrations[0].CountryCode)
}

func TestCollectAdjustmentsOrder(t *testing.T) {
	o := New("USD", Store{}, Customer{})
	li, err := NewLineItem(1, money.MustNew("100.00", "USD"), PhysicalGoods)
	require.NoError(t, err)
	require.NoError(t, li.Adjustments.Add(adjustment.Adjustment{
		Type: adjustment.TypePromotion, Label: "Discount", Amount: money.MustNew("-40.00", "USD"),
	}))
	o.AddItem(li)
	require.NoError(t, o.Adjustments.Add(adjustment.Adjustment{
		Type: adjustment.TypeShipping, Label: "Shipping", Amount: money.MustNew("4.99", "USD"),
	}))

	all := o.CollectAdjustments()
	require.Len(t, all, 2)
	assert.Equal(t, "Discount", all[0].Label)
	assert.Equal(t, "Shipping", all[1].Label)
}
