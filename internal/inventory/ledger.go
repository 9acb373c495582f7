package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"stockservice/internal/platform/observability"
	"stockservice/internal/store"
)

// quantityPlaces is the rounding applied to quantities written to the store.
const quantityPlaces = 2

// LedgerWriter applies a deduction plan to the inventory table and appends
// the audit row. Updates are not atomic across rows.
type LedgerWriter struct {
	store      store.Store
	logger     observability.Logger
	tracer     observability.Tracer
	compensate bool
}

// NewLedgerWriter creates a LedgerWriter. With compensate set, a partial
// failure triggers a re-read-and-correct pass over the applied deductions.
func NewLedgerWriter(st store.Store, logger observability.Logger, tracer observability.Tracer, compensate bool) *LedgerWriter {
	return &LedgerWriter{
		store:      st,
		logger:     logger,
		tracer:     tracer,
		compensate: compensate,
	}
}

// Commit applies every deduction in plan order, then appends entry. The first
// failed update aborts the commit: later updates are not attempted and the
// ledger row is not written.
func (w *LedgerWriter) Commit(ctx context.Context, plan DeductionPlan, entry LedgerEntry) error {
	ctx, span := w.tracer.Start(ctx, "ledger_commit")
	defer span.End()

	span.SetAttributes(
		attribute.String("ledger.table", entry.Table()),
		attribute.String("ledger.subject", entry.Subject),
		attribute.Int("ledger.deductions", len(plan)),
	)

	for i, d := range plan {
		newQty := d.Resulting.Round(quantityPlaces).String()
		err := w.store.FindAndUpdate(ctx, store.InventoryTable, store.ColName, d.Ingredient, store.ColQuantity, newQty)
		if err == nil {
			continue
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "inventory update failed")

		if i == 0 {
			w.logger.Error("❌ Inventory update failed, nothing applied",
				zap.String("ingredient", d.Ingredient),
				zap.Error(err),
			)
			return &StoreFaultError{Op: "update", Table: store.InventoryTable, Err: err}
		}

		pf := &PartialFailureError{Applied: append([]Deduction(nil), plan[:i]...), Failed: d.Ingredient, Err: err}
		w.logger.Error("❌ Partial commit: inventory deducted without ledger row",
			zap.String("failed_ingredient", d.Ingredient),
			zap.Strings("applied", DeductionPlan(pf.Applied).Ingredients()),
			zap.Error(err),
		)
		w.compensateIfEnabled(ctx, pf)
		return pf
	}

	if err := w.store.AppendRow(ctx, entry.Table(), entry.Row()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ledger append failed")

		if len(plan) == 0 {
			return &StoreFaultError{Op: "append", Table: entry.Table(), Err: err}
		}
		pf := &PartialFailureError{Applied: append([]Deduction(nil), plan...), Err: err}
		w.logger.Error("❌ Ledger append failed after inventory was deducted",
			zap.String("table", entry.Table()),
			zap.Strings("applied", plan.Ingredients()),
			zap.Error(err),
		)
		w.compensateIfEnabled(ctx, pf)
		return pf
	}

	span.SetStatus(codes.Ok, "ledger committed")
	return nil
}

func (w *LedgerWriter) compensateIfEnabled(ctx context.Context, pf *PartialFailureError) {
	if !w.compensate {
		return
	}
	if err := w.restore(ctx, pf.Applied); err != nil {
		pf.CompensationErr = err
		w.logger.Error("❌ Compensation incomplete, manual reconciliation required", zap.Error(err))
		return
	}
	pf.Compensated = true
	w.logger.Info("↩️ Applied deductions restored", zap.Strings("ingredients", DeductionPlan(pf.Applied).Ingredients()))
}

// restore re-reads the inventory and puts back the pre-settlement quantity of
// every applied deduction whose row still holds the value this commit wrote.
// Rows changed by someone else since are left alone and reported.
func (w *LedgerWriter) restore(ctx context.Context, applied []Deduction) error {
	records, err := w.store.LoadTable(ctx, store.InventoryTable)
	if err != nil {
		return fmt.Errorf("re-read inventory: %w", err)
	}
	inv := BuildInventory(records)

	var errs []error
	for i := len(applied) - 1; i >= 0; i-- {
		d := applied[i]
		written := d.Resulting.Round(quantityPlaces)
		stock, ok := inv.Get(d.Ingredient)
		if !ok || !stock.Quantity.Equal(written) {
			errs = append(errs, fmt.Errorf("%s changed concurrently, left at %s", d.Ingredient, currentOf(stock, ok)))
			continue
		}
		orig := d.Current.String()
		if err := w.store.FindAndUpdate(ctx, store.InventoryTable, store.ColName, d.Ingredient, store.ColQuantity, orig); err != nil {
			errs = append(errs, fmt.Errorf("restore %s: %w", d.Ingredient, err))
		}
	}
	return errors.Join(errs...)
}

func currentOf(stock IngredientStock, ok bool) string {
	if !ok {
		return "missing"
	}
	return stock.Quantity.String()
}

// NewLedgerEntry builds the audit row of a settlement. Only losses carry a reason.
func NewLedgerEntry(req SettlementRequest, cost decimal.Decimal, at Clock) LedgerEntry {
	entry := LedgerEntry{
		Kind:      req.Kind,
		Timestamp: at(),
		Subject:   req.Subject,
		Quantity:  req.Quantity,
		Cost:      cost,
	}
	if req.Kind == KindLoss {
		entry.Reason = req.Reason
	}
	return entry
}
