package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementRequestedEvent asks the service to settle an order or a loss.
type SettlementRequestedEvent struct {
	RequestID string          `json:"request_id"`
	Kind      Kind            `json:"kind"`
	Subject   string          `json:"subject"`
	Quantity  decimal.Decimal `json:"quantity"`
	Reason    string          `json:"reason,omitempty"`
}

// StockSettledEvent is published after a settlement was committed.
type StockSettledEvent struct {
	SettlementID string          `json:"settlement_id"`
	RequestID    string          `json:"request_id,omitempty"`
	Kind         Kind            `json:"kind"`
	Subject      string          `json:"subject"`
	Quantity     decimal.Decimal `json:"quantity"`
	Reason       string          `json:"reason,omitempty"`
	Cost         decimal.Decimal `json:"cost"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Deductions   []Deduction     `json:"deductions"`
	LowStock     []string        `json:"low_stock,omitempty"`
}

// SettlementRejectedEvent answers a SettlementRequestedEvent that could not
// be settled.
type SettlementRejectedEvent struct {
	RequestID string                     `json:"request_id"`
	Kind      Kind                       `json:"kind"`
	Subject   string                     `json:"subject"`
	Error     string                     `json:"error"`
	Message   string                     `json:"message"`
	Missing   map[string]decimal.Decimal `json:"missing,omitempty"`
}

func newStockSettledEvent(s *Settlement) StockSettledEvent {
	return StockSettledEvent{
		SettlementID: s.ID.String(),
		RequestID:    s.Request.RequestID,
		Kind:         s.Request.Kind,
		Subject:      s.Request.Subject,
		Quantity:     s.Request.Quantity,
		Reason:       s.Entry.Reason,
		Cost:         s.Cost,
		OccurredAt:   s.Entry.Timestamp,
		Deductions:   s.Plan,
		LowStock:     s.LowStock,
	}
}
