// Package store defines the tabular store contract the stock service settles
// against. The store is an external system: a spreadsheet-shaped set of named
// tables whose first row holds column names. Backends live in sub-packages.
package store

import (
	"context"
	"errors"
)

// Table names as they exist in the external store.
const (
	InventoryTable = "Inventaire"
	RecipesTable   = "Recettes"
	OrdersTable    = "Commandes"
	LossesTable    = "Pertes"
)

// Inventory columns.
const (
	ColName      = "Nom"
	ColQuantity  = "Quantite"
	ColUnit      = "Unite"
	ColUnitPrice = "Prix_Unitaire"
)

// Recipe columns.
const (
	ColDish             = "Plat"
	ColIngredient       = "Ingredient"
	ColQuantityRequired = "Quantite_Req"
)

// Ledger columns.
const (
	ColDate   = "Date"
	ColReason = "Raison"
	ColCost   = "Cout"
)

// Columns lists the header row of every table in column order.
var Columns = map[string][]string{
	InventoryTable: {ColName, ColQuantity, ColUnit, ColUnitPrice},
	RecipesTable:   {ColDish, ColIngredient, ColQuantityRequired},
	OrdersTable:    {ColDate, ColDish, ColQuantity, ColCost},
	LossesTable:    {ColDate, ColIngredient, ColQuantity, ColReason, ColCost},
}

var (
	// ErrUnavailable is returned when the store cannot be reached or is not configured.
	ErrUnavailable = errors.New("store: unavailable")
	// ErrRowNotFound is returned by FindAndUpdate when no row holds the key.
	ErrRowNotFound = errors.New("store: row not found")
	// ErrTableNotFound is returned when the named table does not exist.
	ErrTableNotFound = errors.New("store: table not found")
	// ErrColumnNotFound is returned when a column is missing from a table header.
	ErrColumnNotFound = errors.New("store: column not found")
)

// Record is one data row keyed by column name. Values are the raw cell text.
type Record map[string]string

// Store is the capability the settlement code needs from the tabular backend.
type Store interface {
	// LoadTable returns every data row of a table in storage order.
	LoadTable(ctx context.Context, table string) ([]Record, error)
	// FindAndUpdate sets targetColumn to newValue on the first row whose
	// keyColumn equals keyValue.
	FindAndUpdate(ctx context.Context, table, keyColumn, keyValue, targetColumn, newValue string) error
	// AppendRow adds a row after the last data row. Values follow Columns[table].
	AppendRow(ctx context.Context, table string, values []string) error
}
