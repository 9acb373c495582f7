package inventory

import (
	"time"

	"github.com/shopspring/decimal"

	"stockservice/internal/store"
)

// Kind distinguishes the two settlement paths.
type Kind string

const (
	KindOrder Kind = "order"
	KindLoss  Kind = "loss"
)

// DefaultLossReason is recorded when a loss is reported without a reason.
const DefaultLossReason = "unspecified"

// ledgerTimeLayout is the timestamp format of ledger rows.
const ledgerTimeLayout = "2006-01-02 15:04"

// IngredientStock is one row of the inventory snapshot.
type IngredientStock struct {
	Name      string          `json:"name"`
	Quantity  decimal.Decimal `json:"quantity"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Inventory is a snapshot keyed by ingredient name. Names keeps the order in
// which ingredients first appear in the store.
type Inventory struct {
	Items map[string]IngredientStock
	Names []string
}

// Get returns the stock of an ingredient.
func (inv Inventory) Get(name string) (IngredientStock, bool) {
	s, ok := inv.Items[name]
	return s, ok
}

// List returns the snapshot in store order.
func (inv Inventory) List() []IngredientStock {
	out := make([]IngredientStock, 0, len(inv.Names))
	for _, n := range inv.Names {
		out = append(out, inv.Items[n])
	}
	return out
}

// RecipeLine is the quantity of one ingredient needed for one unit of a dish.
type RecipeLine struct {
	Dish             string
	Ingredient       string
	QuantityRequired decimal.Decimal
}

// Recipe lists the lines of one dish, one per ingredient.
type Recipe struct {
	Dish  string
	Lines []RecipeLine
}

// SettlementRequest is a caller's order or loss.
type SettlementRequest struct {
	Kind      Kind
	Subject   string
	Quantity  decimal.Decimal
	Reason    string
	RequestID string
}

// Deduction is one planned inventory change.
type Deduction struct {
	Ingredient string          `json:"ingredient"`
	Current    decimal.Decimal `json:"current"`
	Required   decimal.Decimal `json:"required"`
	Resulting  decimal.Decimal `json:"resulting"`
}

// DeductionPlan is the ordered set of deductions of one settlement.
type DeductionPlan []Deduction

// Valid reports whether no deduction drives stock below zero.
func (p DeductionPlan) Valid() bool {
	for _, d := range p {
		if d.Resulting.IsNegative() {
			return false
		}
	}
	return true
}

// Ingredients returns the ingredient names in plan order.
func (p DeductionPlan) Ingredients() []string {
	out := make([]string, len(p))
	for i, d := range p {
		out[i] = d.Ingredient
	}
	return out
}

// LedgerEntry is the audit row appended after a successful commit.
type LedgerEntry struct {
	Kind      Kind
	Timestamp time.Time
	Subject   string
	Quantity  decimal.Decimal
	Reason    string
	Cost      decimal.Decimal
}

// Table returns the ledger table the entry belongs to.
func (e LedgerEntry) Table() string {
	if e.Kind == KindLoss {
		return store.LossesTable
	}
	return store.OrdersTable
}

// Row renders the entry in the column order of its table.
func (e LedgerEntry) Row() []string {
	ts := e.Timestamp.Format(ledgerTimeLayout)
	cost := e.Cost.StringFixed(2)
	if e.Kind == KindLoss {
		return []string{ts, e.Subject, e.Quantity.String(), e.Reason, cost}
	}
	return []string{ts, e.Subject, e.Quantity.String(), cost}
}
