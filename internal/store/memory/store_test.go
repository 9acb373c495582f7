package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"stockservice/internal/store"
)

func TestStoreLoadTable(t *testing.T) {
	s := New()
	s.Seed(store.InventoryTable, store.Columns[store.InventoryTable], [][]string{
		{"Flour", "10", "kg", "2"},
		{"Eggs", "20"},
	})

	got, err := s.LoadTable(context.Background(), store.InventoryTable)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}

	want := []store.Record{
		{"Nom": "Flour", "Quantite": "10", "Unite": "kg", "Prix_Unitaire": "2"},
		{"Nom": "Eggs", "Quantite": "20", "Unite": "", "Prix_Unitaire": ""},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LoadTable() = %v, want %v", got, want)
	}
}

func TestStoreLoadTableUnknown(t *testing.T) {
	s := New()
	_, err := s.LoadTable(context.Background(), "Nope")
	if !errors.Is(err, store.ErrTableNotFound) {
		t.Errorf("LoadTable() error = %v, want ErrTableNotFound", err)
	}
}

func TestStoreFindAndUpdate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		column  string
		wantErr error
	}{
		{name: "updatesMatchingRow", key: "Eggs", column: store.ColQuantity},
		{name: "missingRow", key: "Milk", column: store.ColQuantity, wantErr: store.ErrRowNotFound},
		{name: "missingColumn", key: "Eggs", column: "Colour", wantErr: store.ErrColumnNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			s.Seed(store.InventoryTable, store.Columns[store.InventoryTable], [][]string{
				{"Flour", "10", "kg", "2"},
				{"Eggs", "20", "unit", "0.5"},
			})

			err := s.FindAndUpdate(context.Background(), store.InventoryTable, store.ColName, tt.key, tt.column, "12")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FindAndUpdate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FindAndUpdate() error = %v", err)
			}

			rows := s.Rows(store.InventoryTable)
			if rows[1][1] != "12" {
				t.Errorf("quantity = %q, want %q", rows[1][1], "12")
			}
			if rows[0][1] != "10" {
				t.Errorf("other row changed: %q", rows[0][1])
			}
		})
	}
}

func TestStoreAppendRow(t *testing.T) {
	s := New()
	values := []string{"2026-10-16 12:00", "Cake", "2", "12.00"}

	if err := s.AppendRow(context.Background(), store.OrdersTable, values); err != nil {
		t.Fatalf("AppendRow() error = %v", err)
	}
	values[1] = "mutated"

	rows := s.Rows(store.OrdersTable)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if rows[0][1] != "Cake" {
		t.Errorf("stored row aliases caller slice: %v", rows[0])
	}
}

func TestSeedDemo(t *testing.T) {
	s := New()
	s.SeedDemo()

	inv, err := s.LoadTable(context.Background(), store.InventoryTable)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if len(inv) == 0 {
		t.Error("demo inventory is empty")
	}
	rec, err := s.LoadTable(context.Background(), store.RecipesTable)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if len(rec) == 0 {
		t.Error("demo recipes are empty")
	}
}
