package httpapi

import (
	"fmt"

	"github.com/noah-isme/taxcore/internal/adjustment"
	"github.com/noah-isme/taxcore/internal/jurisdiction"
	"github.com/noah-isme/taxcore/internal/money"
	"github.com/noah-isme/taxcore/internal/order"
)

// JurisdictionInput is a country plus optional subdivision.
type JurisdictionInput struct {
	CountryCode string `json:"country_code" validate:"required,len=2"`
	Subdivision string `json:"subdivision,omitempty"`
}

// StoreInput carries the seller-side tax facts.
type StoreInput struct {
	JurisdictionInput
	Registrations    []JurisdictionInput `json:"registrations,omitempty" validate:"dive"`
	PricesIncludeTax bool                `json:"prices_include_tax"`
}

// AdjustmentInput is a prior adjustment already attached to a line item or
// the order, e.g. a promotion applied upstream.
type AdjustmentInput struct {
	Type     string `json:"type" validate:"required,oneof=tax promotion shipping fee custom"`
	Label    string `json:"label" validate:"required"`
	Amount   string `json:"amount" validate:"required"`
	Included bool   `json:"included,omitempty"`
	SourceID string `json:"source_id,omitempty"`
}

// LineItemInput is one order line.
type LineItemInput struct {
	Quantity    int64             `json:"quantity" validate:"required,min=1"`
	UnitPrice   string            `json:"unit_price" validate:"required"`
	TaxableType string            `json:"taxable_type,omitempty" validate:"omitempty,oneof=physical_goods digital_goods services non_taxable"`
	Adjustments []AdjustmentInput `json:"adjustments,omitempty" validate:"dive"`
}

// OrderInput is the inbound order document.
type OrderInput struct {
	Currency    string            `json:"currency" validate:"required,len=3"`
	Store       StoreInput        `json:"store" validate:"required"`
	Customer    JurisdictionInput `json:"customer" validate:"required"`
	Items       []LineItemInput   `json:"items" validate:"required,min=1,dive"`
	Adjustments []AdjustmentInput `json:"adjustments,omitempty" validate:"dive"`
}

// ComputeRequest is the body of POST /v1/tax/compute. SnapshotVersion pins
// the computation to a specific rule snapshot; empty means the active one.
type ComputeRequest struct {
	Order           OrderInput `json:"order" validate:"required"`
	SnapshotVersion string     `json:"snapshot_version,omitempty"`
}

// BatchRequest is the body of POST /v1/tax/compute/batch. It doubles as the
// queue task payload so the worker decodes the exact shape the API accepted.
type BatchRequest struct {
	SnapshotVersion string       `json:"snapshot_version,omitempty"`
	Orders          []OrderInput `json:"orders" validate:"required,min=1,dive"`
}

// Batch lifecycle states reported to clients.
const (
	BatchStatusPending = "pending"
	BatchStatusDone    = "done"
)

// BatchOrderResult is one order's outcome inside a batch. Failures carry the
// error text instead of a result so one bad order never hides the rest.
type BatchOrderResult struct {
	Index  int              `json:"index"`
	OK     bool             `json:"ok"`
	Result *ComputeResponse `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// BatchResult is the stored outcome of a batch run.
type BatchResult struct {
	BatchID   string             `json:"batch_id"`
	Status    string             `json:"status"`
	Processed int                `json:"processed"`
	Failed    int                `json:"failed"`
	Orders    []BatchOrderResult `json:"orders"`
}

func (j JurisdictionInput) toDomain() jurisdiction.Jurisdiction {
	return jurisdiction.Jurisdiction{CountryCode: j.CountryCode, Subdivision: j.Subdivision}.Normalize()
}

// ToDomain converts the wire order into the engine's value types.
func (in OrderInput) ToDomain() (*order.Order, error) {
	store := order.Store{
		Jurisdiction:     in.Store.toDomain(),
		PricesIncludeTax: in.Store.PricesIncludeTax,
	}
	for _, reg := range in.Store.Registrations {
		store.Registrations = append(store.Registrations, reg.toDomain())
	}
	o := order.New(in.Currency, store, order.Customer{Jurisdiction: in.Customer.toDomain()})

	for i, item := range in.Items {
		unitPrice, err := money.New(item.UnitPrice, in.Currency)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		li, err := order.NewLineItem(item.Quantity, unitPrice, order.TaxableType(item.TaxableType))
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		for _, adj := range item.Adjustments {
			domainAdj, err := adj.toDomain(in.Currency)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			if err := li.Adjustments.Add(domainAdj); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
		}
		o.AddItem(li)
	}
	for _, adj := range in.Adjustments {
		domainAdj, err := adj.toDomain(in.Currency)
		if err != nil {
			return nil, err
		}
		if err := o.Adjustments.Add(domainAdj); err != nil {
			return nil, err
		}
	}
	return o, nil
}

func (a AdjustmentInput) toDomain(currency string) (adjustment.Adjustment, error) {
	amount, err := money.New(a.Amount, currency)
	if err != nil {
		return adjustment.Adjustment{}, fmt.Errorf("adjustment %q: %w", a.Label, err)
	}
	adj, err := adjustment.New(adjustment.Type(a.Type), a.Label, amount)
	if err != nil {
		return adjustment.Adjustment{}, err
	}
	adj.Included = a.Included
	adj.SourceID = a.SourceID
	return adj, nil
}

// AdjustmentOutput renders one ledger entry.
type AdjustmentOutput struct {
	Type       string `json:"type"`
	Label      string `json:"label"`
	Amount     string `json:"amount"`
	Percentage string `json:"percentage,omitempty"`
	Included   bool   `json:"included"`
	SourceID   string `json:"source_id,omitempty"`
}

// LineItemOutput renders one computed line.
type LineItemOutput struct {
	Quantity     int64              `json:"quantity"`
	UnitPrice    string             `json:"unit_price"`
	AdjustedBase string             `json:"adjusted_base"`
	Total        string             `json:"total"`
	Adjustments  []AdjustmentOutput `json:"adjustments,omitempty"`
}

// ComputeResponse is the outcome of a computation pass.
type ComputeResponse struct {
	OrderID     string             `json:"order_id"`
	Currency    string             `json:"currency"`
	Items       []LineItemOutput   `json:"items"`
	Adjustments []AdjustmentOutput `json:"adjustments,omitempty"`
	Total       string             `json:"total"`
}

// NewComputeResponse renders an adjusted order.
func NewComputeResponse(o *order.Order) (ComputeResponse, error) {
	resp := ComputeResponse{
		OrderID:     o.ID.String(),
		Currency:    o.Currency,
		Adjustments: renderAdjustments(o.Adjustments.All()),
	}
	for i, li := range o.Items {
		base, err := li.AdjustedBase()
		if err != nil {
			return ComputeResponse{}, fmt.Errorf("item %d: %w", i, err)
		}
		total, err := li.Total()
		if err != nil {
			return ComputeResponse{}, fmt.Errorf("item %d: %w", i, err)
		}
		resp.Items = append(resp.Items, LineItemOutput{
			Quantity:     li.Quantity,
			UnitPrice:    renderAmount(li.UnitPrice),
			AdjustedBase: renderAmount(base),
			Total:        renderAmount(total),
			Adjustments:  renderAdjustments(li.Adjustments.All()),
		})
	}
	orderTotal, err := o.Total()
	if err != nil {
		return ComputeResponse{}, err
	}
	resp.Total = renderAmount(orderTotal)
	return resp, nil
}

func renderAdjustments(adjs []adjustment.Adjustment) []AdjustmentOutput {
	var out []AdjustmentOutput
	for _, a := range adjs {
		entry := AdjustmentOutput{
			Type:     string(a.Type),
			Label:    a.Label,
			Amount:   renderAmount(a.Amount),
			Included: a.Included,
			SourceID: a.SourceID,
		}
		if a.Percentage != nil {
			entry.Percentage = a.Percentage.String()
		}
		out = append(out, entry)
	}
	return out
}

// renderAmount fixes the string form to the currency's minor-unit precision so
// "12.6 USD" serialises as "12.60".
func renderAmount(m money.Money) string {
	return m.Amount().StringFixed(money.Precision(m.Currency()))
}
