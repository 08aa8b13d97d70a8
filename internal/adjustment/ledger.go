package adjustment

import (
	"fmt"

	"github.com/noah-isme/taxcore/internal/money"
)

// Predicate selects adjustments for a net sum.
type Predicate func(Adjustment) bool

// NonTax matches every adjustment except tax.
func NonTax(a Adjustment) bool { return a.Type != TypeTax }

// Tax matches tax adjustments only.
func Tax(a Adjustment) bool { return a.Type == TypeTax }

// NotIncluded matches adjustments added on top of the base price.
func NotIncluded(a Adjustment) bool { return !a.Included }

// And combines predicates; all must match.
func And(preds ...Predicate) Predicate {
	return func(a Adjustment) bool {
		for _, p := range preds {
			if !p(a) {
				return false
			}
		}
		return true
	}
}

// Ledger is the append-only record of adjustments on a line item or order.
// Entries keep insertion order for display. The ledger is not safe for
// concurrent mutation; a computation pass is sequential.
type Ledger struct {
	entries []Adjustment
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger { return &Ledger{} }

// Add appends an adjustment. It is the only write operation.
func (l *Ledger) Add(a Adjustment) error {
	if !IsValidType(a.Type) {
		return fmt.Errorf("%w: %q", ErrUnknownType, a.Type)
	}
	l.entries = append(l.entries, a)
	return nil
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.entries)
}

// All returns the ordered entries as a copy; callers cannot mutate the ledger
// through it.
func (l *Ledger) All() []Adjustment {
	if l == nil || len(l.entries) == 0 {
		return nil
	}
	out := make([]Adjustment, len(l.entries))
	copy(out, l.entries)
	return out
}

// Net sums the amounts of all entries matching pred, starting from zero in the
// given currency. An entry in a different currency fails the whole sum.
func (l *Ledger) Net(currency string, pred Predicate) (money.Money, error) {
	total := money.Zero(currency)
	if l == nil {
		return total, nil
	}
	for _, a := range l.entries {
		if pred != nil && !pred(a) {
			continue
		}
		sum, err := total.Add(a.Amount)
		if err != nil {
			return money.Money{}, fmt.Errorf("adjustment %q: %w", a.Label, err)
		}
		total = sum
	}
	return total, nil
}

// Clone returns an independent copy of the ledger.
func (l *Ledger) Clone() *Ledger {
	if l == nil {
		return NewLedger()
	}
	out := &Ledger{}
	if len(l.entries) > 0 {
		out.entries = make([]Adjustment, len(l.entries))
		copy(out.entries, l.entries)
	}
	return out
}
