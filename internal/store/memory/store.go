package memory

import (
	"context"
	"fmt"
	"sync"

	"stockservice/internal/store"
)

type table struct {
	columns []string
	rows    [][]string
}

// Store keeps tables in process memory. It backs local runs and tests.
type Store struct {
	mu     sync.RWMutex
	tables map[string]*table
}

// New creates an empty store with one empty table per known table name.
func New() *Store {
	s := &Store{tables: make(map[string]*table)}
	for name, cols := range store.Columns {
		s.tables[name] = &table{columns: append([]string(nil), cols...)}
	}
	return s
}

// Seed replaces the content of a table. Rows are ordered cell values
// matching columns.
func (s *Store) Seed(name string, columns []string, rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &table{columns: append([]string(nil), columns...)}
	for _, r := range rows {
		t.rows = append(t.rows, append([]string(nil), r...))
	}
	s.tables[name] = t
}

func (s *Store) LoadTable(_ context.Context, name string) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrTableNotFound, name)
	}

	records := make([]store.Record, 0, len(t.rows))
	for _, row := range t.rows {
		rec := make(store.Record, len(t.columns))
		for i, col := range t.columns {
			if i < len(row) {
				rec[col] = row[i]
			} else {
				rec[col] = ""
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func (s *Store) FindAndUpdate(_ context.Context, name, keyColumn, keyValue, targetColumn, newValue string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrTableNotFound, name)
	}

	keyIdx := indexOf(t.columns, keyColumn)
	if keyIdx < 0 {
		return fmt.Errorf("%w: %s.%s", store.ErrColumnNotFound, name, keyColumn)
	}
	targetIdx := indexOf(t.columns, targetColumn)
	if targetIdx < 0 {
		return fmt.Errorf("%w: %s.%s", store.ErrColumnNotFound, name, targetColumn)
	}

	for i, row := range t.rows {
		if keyIdx < len(row) && row[keyIdx] == keyValue {
			for len(row) <= targetIdx {
				row = append(row, "")
			}
			row[targetIdx] = newValue
			t.rows[i] = row
			return nil
		}
	}
	return fmt.Errorf("%w: %s=%q in %s", store.ErrRowNotFound, keyColumn, keyValue, name)
}

func (s *Store) AppendRow(_ context.Context, name string, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[name]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrTableNotFound, name)
	}
	t.rows = append(t.rows, append([]string(nil), values...))
	return nil
}

// Rows returns a copy of the raw rows of a table.
func (s *Store) Rows(name string) [][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[name]
	if !ok {
		return nil
	}
	out := make([][]string, 0, len(t.rows))
	for _, r := range t.rows {
		out = append(out, append([]string(nil), r...))
	}
	return out
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}
