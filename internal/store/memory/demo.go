package memory

import "stockservice/internal/store"

// SeedDemo loads a small kitchen so the service is usable without an
// external store.
func (s *Store) SeedDemo() {
	s.Seed(store.InventoryTable, store.Columns[store.InventoryTable], [][]string{
		{"Farine", "10", "kg", "2"},
		{"Oeufs", "20", "unite", "0.5"},
		{"Sucre", "8", "kg", "1.2"},
		{"Beurre", "4", "kg", "9.8"},
		{"Lait", "12", "L", "1.1"},
	})
	s.Seed(store.RecipesTable, store.Columns[store.RecipesTable], [][]string{
		{"Gateau", "Farine", "2"},
		{"Gateau", "Oeufs", "4"},
		{"Gateau", "Sucre", "0.5"},
		{"Crepes", "Farine", "0.25"},
		{"Crepes", "Oeufs", "2"},
		{"Crepes", "Lait", "0.5"},
		{"Crepes", "Beurre", "0.05"},
	})
}
