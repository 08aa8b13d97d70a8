package adjustment

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/taxcore/internal/money"
)

func TestNewRejectsUnknownType(t *testing.T) {
	_, err := New(Type("rebate"), "Rebate", money.MustNew("-5", "USD"))
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestLedgerNetPredicates(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Add(Adjustment{Type: TypePromotion, Label: "Discount", Amount: money.MustNew("-40.00", "USD")}))
	require.NoError(t, l.Add(Adjustment{Type: TypeFee, Label: "Handling", Amount: money.MustNew("5.00", "USD")}))
	require.NoError(t, l.Add(Adjustment{Type: TypeTax, Label: "VAT", Amount: money.MustNew("12.60", "USD")}))
	require.NoError(t, l.Add(Adjustment{Type: TypeTax, Label: "VAT", Amount: money.MustNew("10.41", "USD"), Included: true}))

	nonTax, err := l.Net("USD", And(NonTax, NotIncluded))
	require.NoError(t, err)
	assert.True(t, nonTax.Equal(money.MustNew("-35.00", "USD")))

	addedTax, err := l.Net("USD", And(Tax, NotIncluded))
	require.NoError(t, err)
	assert.True(t, addedTax.Equal(money.MustNew("12.60", "USD")))

	everything, err := l.Net("USD", nil)
	require.NoError(t, err)
	assert.True(t, everything.Equal(money.MustNew("-11.99", "USD")))
}

func TestLedgerNetCurrencyClosure(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Add(Adjustment{Type: TypePromotion, Label: "Discount", Amount: money.MustNew("-1.00", "EUR")}))
	_, err := l.Net("USD", nil)
	var mismatch *money.CurrencyMismatchError
	assert.True(t, errors.As(err, &mismatch))
}

func TestLedgerAllIsACopy(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Add(Adjustment{Type: TypeFee, Label: "Fee", Amount: money.MustNew("1.00", "USD")}))
	entries := l.All()
	entries[0].Label = "changed"
	assert.Equal(t, "Fee", l.All()[0].Label)
}

func TestLedgerCloneIndependent(t *testing.T) {
	l := NewLedger()
	require.NoError(t, l.Add(Adjustment{Type: TypeFee, Label: "Fee", Amount: money.MustNew("1.00", "USD")}))
	clone := l.Clone()
	require.NoError(t, clone.Add(Adjustment{Type: TypeTax, Label: "VAT", Amount: money.MustNew("0.21", "USD")}))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 2, clone.Len())
}
