package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// costPlaces is the rounding applied to every monetary amount.
const costPlaces = 2

// SettleOrder computes the deductions and cost of goods of quantity units of
// recipe. Every under-stocked ingredient is reported, not only the first. On
// failure no plan and no cost are returned.
func SettleOrder(inv Inventory, recipe Recipe, quantity int) (DeductionPlan, decimal.Decimal, error) {
	if quantity <= 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: order quantity must be a positive integer, got %d", ErrInvalidQuantity, quantity)
	}
	if len(recipe.Lines) == 0 {
		return nil, decimal.Zero, fmt.Errorf("%w: %q", ErrEmptyRecipe, recipe.Dish)
	}

	units := decimal.NewFromInt(int64(quantity))
	plan := make(DeductionPlan, 0, len(recipe.Lines))
	cost := decimal.Zero
	var missing []Shortfall

	for _, line := range recipe.Lines {
		needed := line.QuantityRequired.Mul(units)
		stock, ok := inv.Get(line.Ingredient)

		current := decimal.Zero
		if ok {
			current = stock.Quantity
		}
		if !ok || current.LessThan(needed) {
			missing = append(missing, Shortfall{Ingredient: line.Ingredient, Missing: needed.Sub(current)})
		}

		plan = append(plan, Deduction{
			Ingredient: line.Ingredient,
			Current:    current,
			Required:   needed,
			Resulting:  current.Sub(needed),
		})
		cost = cost.Add(needed.Mul(stock.UnitPrice))
	}

	if len(missing) > 0 {
		return nil, decimal.Zero, &InsufficientStockError{Missing: missing}
	}
	return plan, cost.Round(costPlaces), nil
}

// SettleLoss computes the single deduction and written-off value of losing
// quantity of item.
func SettleLoss(inv Inventory, item string, quantity decimal.Decimal) (DeductionPlan, decimal.Decimal, error) {
	if !quantity.IsPositive() {
		return nil, decimal.Zero, fmt.Errorf("%w: loss quantity must be positive, got %s", ErrInvalidQuantity, quantity)
	}

	stock, ok := inv.Get(item)
	if !ok || stock.Quantity.LessThan(quantity) {
		current := decimal.Zero
		if ok {
			current = stock.Quantity
		}
		return nil, decimal.Zero, &InsufficientStockError{
			Missing: []Shortfall{{Ingredient: item, Missing: quantity.Sub(current)}},
		}
	}

	plan := DeductionPlan{{
		Ingredient: item,
		Current:    stock.Quantity,
		Required:   quantity,
		Resulting:  stock.Quantity.Sub(quantity),
	}}
	return plan, quantity.Mul(stock.UnitPrice).Round(costPlaces), nil
}
