package inventory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stockservice/internal/store"
)

// BuildInventory projects raw inventory rows into a snapshot. Rows whose
// quantity or unit price is not numeric are placeholders and are dropped.
// A name seen twice keeps the last row.
func BuildInventory(records []store.Record) Inventory {
	inv := Inventory{Items: make(map[string]IngredientStock, len(records))}
	for _, rec := range records {
		stock, ok := decodeInventoryRow(rec)
		if !ok {
			continue
		}
		if _, seen := inv.Items[stock.Name]; !seen {
			inv.Names = append(inv.Names, stock.Name)
		}
		inv.Items[stock.Name] = stock
	}
	return inv
}

// ResolveRecipe collects every recipe row of dish. Matching is exact and
// case-sensitive; a repeated ingredient overwrites the earlier quantity.
func ResolveRecipe(records []store.Record, dish string) (Recipe, error) {
	recipe := Recipe{Dish: dish}
	index := make(map[string]int)

	for _, rec := range records {
		line, ok := decodeRecipeRow(rec)
		if !ok || line.Dish != dish {
			continue
		}
		if i, seen := index[line.Ingredient]; seen {
			recipe.Lines[i] = line
			continue
		}
		index[line.Ingredient] = len(recipe.Lines)
		recipe.Lines = append(recipe.Lines, line)
	}

	if len(recipe.Lines) == 0 {
		return Recipe{}, fmt.Errorf("%w: %q", ErrDishNotFound, dish)
	}
	return recipe, nil
}

// IgnoredRecipeRows returns the ingredients of dish whose required quantity
// is not a positive number. ResolveRecipe skips those rows.
func IgnoredRecipeRows(records []store.Record, dish string) []string {
	var out []string
	for _, rec := range records {
		if rec[store.ColDish] != dish {
			continue
		}
		if _, ok := decodeRecipeRow(rec); !ok {
			out = append(out, rec[store.ColIngredient])
		}
	}
	return out
}

// Dishes returns the distinct dish names in order of first appearance.
func Dishes(records []store.Record) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, rec := range records {
		name := rec[store.ColDish]
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}

func decodeInventoryRow(rec store.Record) (IngredientStock, bool) {
	qty, err := parseDecimal(rec[store.ColQuantity])
	if err != nil {
		return IngredientStock{}, false
	}
	price, err := parseDecimal(rec[store.ColUnitPrice])
	if err != nil {
		return IngredientStock{}, false
	}
	return IngredientStock{
		Name:      rec[store.ColName],
		Quantity:  qty,
		Unit:      rec[store.ColUnit],
		UnitPrice: price,
	}, true
}

func decodeRecipeRow(rec store.Record) (RecipeLine, bool) {
	qty, err := parseDecimal(rec[store.ColQuantityRequired])
	if err != nil || !qty.IsPositive() {
		return RecipeLine{}, false
	}
	return RecipeLine{
		Dish:             rec[store.ColDish],
		Ingredient:       rec[store.ColIngredient],
		QuantityRequired: qty,
	}, true
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}
