package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"stockservice/internal/inventory"
	"stockservice/internal/platform/observability"
	"stockservice/internal/store"
	"stockservice/internal/store/memory"
)

type settlementTestContext struct {
	store      *memory.Store
	settlement *inventory.Settlement
	err        error
}

func (c *settlementTestContext) reset() {
	c.store = memory.New()
	c.settlement = nil
	c.err = nil
}

func (c *settlementTestContext) service() (inventory.Service, error) {
	metrics, err := observability.NewMetrics(metricnoop.NewMeterProvider().Meter("features"))
	if err != nil {
		return nil, err
	}
	return inventory.NewService(inventory.ServiceDeps{
		Store:             c.store,
		Logger:            zap.NewNop(),
		Tracer:            tracenoop.NewTracerProvider().Tracer("features"),
		Metrics:           metrics,
		LowStockThreshold: decimal.NewFromInt(5),
	}), nil
}

func (c *settlementTestContext) theInventory(table *godog.Table) error {
	var rows [][]string
	for i, row := range table.Rows {
		if i == 0 {
			continue // skip header
		}
		rows = append(rows, []string{row.Cells[0].Value, row.Cells[1].Value, row.Cells[2].Value, row.Cells[3].Value})
	}
	c.store.Seed(store.InventoryTable, store.Columns[store.InventoryTable], rows)
	return nil
}

func (c *settlementTestContext) theRecipeNeeds(dish string, table *godog.Table) error {
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		values := []string{dish, row.Cells[0].Value, row.Cells[1].Value}
		if err := c.store.AppendRow(context.Background(), store.RecipesTable, values); err != nil {
			return err
		}
	}
	return nil
}

func (c *settlementTestContext) iOrder(quantity int, dish string) error {
	svc, err := c.service()
	if err != nil {
		return err
	}
	c.settlement, c.err = svc.PlaceOrder(context.Background(), dish, quantity)
	return nil
}

func (c *settlementTestContext) iRecordALoss(quantity, item, reason string) error {
	qty, err := decimal.NewFromString(quantity)
	if err != nil {
		return err
	}
	svc, err := c.service()
	if err != nil {
		return err
	}
	c.settlement, c.err = svc.RecordLoss(context.Background(), item, qty, reason)
	return nil
}

func (c *settlementTestContext) theSettlementSucceedsWithCost(cost string) error {
	if c.err != nil {
		return fmt.Errorf("expected success but got error: %v", c.err)
	}
	if got := c.settlement.Cost.StringFixed(2); got != cost {
		return fmt.Errorf("cost = %s, want %s", got, cost)
	}
	return nil
}

func (c *settlementTestContext) theSettlementFailsWith(code string) error {
	if c.err == nil {
		return errors.New("expected failure but settlement succeeded")
	}
	if got := inventory.Code(c.err); got != code {
		return fmt.Errorf("code = %s, want %s (%v)", got, code, c.err)
	}
	return nil
}

func (c *settlementTestContext) isShortBy(ingredient, quantity string) error {
	var insufficient *inventory.InsufficientStockError
	if !errors.As(c.err, &insufficient) {
		return fmt.Errorf("expected InsufficientStockError, got %v", c.err)
	}
	got, ok := insufficient.MissingMap()[ingredient]
	if !ok {
		return fmt.Errorf("%s not reported short", ingredient)
	}
	if got.String() != quantity {
		return fmt.Errorf("%s short by %s, want %s", ingredient, got, quantity)
	}
	return nil
}

func (c *settlementTestContext) theStockOfIs(ingredient, quantity string) error {
	records, err := c.store.LoadTable(context.Background(), store.InventoryTable)
	if err != nil {
		return err
	}
	stock, ok := inventory.BuildInventory(records).Get(ingredient)
	if !ok {
		return fmt.Errorf("%s not in inventory", ingredient)
	}
	if stock.Quantity.String() != quantity {
		return fmt.Errorf("stock of %s = %s, want %s", ingredient, stock.Quantity, quantity)
	}
	return nil
}

func (c *settlementTestContext) theLedgerHasRows(table string, count int) error {
	if got := len(c.store.Rows(table)); got != count {
		return fmt.Errorf("%s has %d rows, want %d", table, got, count)
	}
	return nil
}

func (c *settlementTestContext) theLastRowHasReason(table, reason string) error {
	rows := c.store.Rows(table)
	if len(rows) == 0 {
		return fmt.Errorf("%s is empty", table)
	}
	last := rows[len(rows)-1]
	if got := last[3]; got != reason {
		return fmt.Errorf("reason = %q, want %q", got, reason)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &settlementTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^the inventory:$`, tc.theInventory)
	ctx.Step(`^the recipe "([^"]*)" needs:$`, tc.theRecipeNeeds)

	ctx.Step(`^I order (\d+) "([^"]*)"$`, tc.iOrder)
	ctx.Step(`^I record a loss of "([^"]*)" "([^"]*)" because "([^"]*)"$`, tc.iRecordALoss)

	ctx.Step(`^the settlement succeeds with cost "([^"]*)"$`, tc.theSettlementSucceedsWithCost)
	ctx.Step(`^the settlement fails with "([^"]*)"$`, tc.theSettlementFailsWith)
	ctx.Step(`^"([^"]*)" is short by "([^"]*)"$`, tc.isShortBy)
	ctx.Step(`^the stock of "([^"]*)" is "([^"]*)"$`, tc.theStockOfIs)
	ctx.Step(`^the "([^"]*)" ledger has (\d+) rows?$`, tc.theLedgerHasRows)
	ctx.Step(`^the last "([^"]*)" row has reason "([^"]*)"$`, tc.theLastRowHasReason)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/settlement.feature"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
