package inventory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"stockservice/internal/store"
	"stockservice/internal/store/memory"
)

type updateCall struct {
	Table    string
	Key      string
	Column   string
	NewValue string
}

type appendCall struct {
	Table  string
	Values []string
}

// MockStore records every call and delegates to an in-memory store unless a
// Func override is set.
type MockStore struct {
	Inner *memory.Store

	LoadTableFunc     func(ctx context.Context, table string) ([]store.Record, error)
	FindAndUpdateFunc func(ctx context.Context, table, keyColumn, keyValue, targetColumn, newValue string) error
	AppendRowFunc     func(ctx context.Context, table string, values []string) error

	mu      sync.Mutex
	Loads   []string
	Updates []updateCall
	Appends []appendCall
}

func NewMockStore(inner *memory.Store) *MockStore {
	return &MockStore{Inner: inner}
}

func (m *MockStore) LoadTable(ctx context.Context, table string) ([]store.Record, error) {
	m.mu.Lock()
	m.Loads = append(m.Loads, table)
	m.mu.Unlock()
	if m.LoadTableFunc != nil {
		return m.LoadTableFunc(ctx, table)
	}
	return m.Inner.LoadTable(ctx, table)
}

func (m *MockStore) FindAndUpdate(ctx context.Context, table, keyColumn, keyValue, targetColumn, newValue string) error {
	m.mu.Lock()
	m.Updates = append(m.Updates, updateCall{Table: table, Key: keyValue, Column: targetColumn, NewValue: newValue})
	m.mu.Unlock()
	if m.FindAndUpdateFunc != nil {
		return m.FindAndUpdateFunc(ctx, table, keyColumn, keyValue, targetColumn, newValue)
	}
	return m.Inner.FindAndUpdate(ctx, table, keyColumn, keyValue, targetColumn, newValue)
}

func (m *MockStore) AppendRow(ctx context.Context, table string, values []string) error {
	m.mu.Lock()
	m.Appends = append(m.Appends, appendCall{Table: table, Values: append([]string(nil), values...)})
	m.mu.Unlock()
	if m.AppendRowFunc != nil {
		return m.AppendRowFunc(ctx, table, values)
	}
	return m.Inner.AppendRow(ctx, table, values)
}

func (m *MockStore) Mutations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Updates) + len(m.Appends)
}

type MockPublisher struct {
	SettledErr  error
	RejectedErr error

	Settled  []StockSettledEvent
	Rejected []SettlementRejectedEvent
}

func (p *MockPublisher) PublishSettled(_ context.Context, event StockSettledEvent) error {
	p.Settled = append(p.Settled, event)
	return p.SettledErr
}

func (p *MockPublisher) PublishRejected(_ context.Context, event SettlementRejectedEvent) error {
	p.Rejected = append(p.Rejected, event)
	return p.RejectedErr
}

type MockMetrics struct {
	Outcomes []string
	Cost     map[string]float64
	LowStock []string
}

func (m *MockMetrics) RecordSettlement(_ context.Context, kind, outcome string) {
	m.Outcomes = append(m.Outcomes, kind+":"+outcome)
}

func (m *MockMetrics) AddCostOfGoods(_ context.Context, kind string, amount float64) {
	if m.Cost == nil {
		m.Cost = map[string]float64{}
	}
	m.Cost[kind] += amount
}

func (m *MockMetrics) RecordLowStock(_ context.Context, ingredient string) {
	m.LowStock = append(m.LowStock, ingredient)
}

// MockService lets handler tests script the service outcome.
type MockService struct {
	PlaceOrderFunc func(ctx context.Context, dish string, quantity int) (*Settlement, error)
	RecordLossFunc func(ctx context.Context, item string, quantity decimal.Decimal, reason string) (*Settlement, error)
	SettleFunc     func(ctx context.Context, req SettlementRequest) (*Settlement, error)
	InventoryFunc  func(ctx context.Context) ([]IngredientStock, error)
	DishesFunc     func(ctx context.Context) ([]string, error)
}

func (m *MockService) PlaceOrder(ctx context.Context, dish string, quantity int) (*Settlement, error) {
	return m.PlaceOrderFunc(ctx, dish, quantity)
}

func (m *MockService) RecordLoss(ctx context.Context, item string, quantity decimal.Decimal, reason string) (*Settlement, error) {
	return m.RecordLossFunc(ctx, item, quantity, reason)
}

func (m *MockService) Settle(ctx context.Context, req SettlementRequest) (*Settlement, error) {
	return m.SettleFunc(ctx, req)
}

func (m *MockService) Inventory(ctx context.Context) ([]IngredientStock, error) {
	return m.InventoryFunc(ctx)
}

func (m *MockService) Dishes(ctx context.Context) ([]string, error) {
	return m.DishesFunc(ctx)
}

// cakeStore seeds the inventory and recipe of the bakery scenarios.
func cakeStore() *memory.Store {
	st := memory.New()
	st.Seed(store.InventoryTable, store.Columns[store.InventoryTable], [][]string{
		{"Flour", "10", "kg", "2"},
		{"Eggs", "20", "unit", "0.5"},
		{"Sugar", "6", "kg", "1.2"},
	})
	st.Seed(store.RecipesTable, store.Columns[store.RecipesTable], [][]string{
		{"Cake", "Flour", "2"},
		{"Cake", "Eggs", "4"},
		{"Meringue", "Eggs", "3"},
		{"Meringue", "Sugar", "1"},
	})
	return st
}

var fixedTime = time.Date(2024, 3, 14, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedTime }

type testEnv struct {
	store     *MockStore
	publisher *MockPublisher
	metrics   *MockMetrics
	logs      *observer.ObservedLogs
	spans     *tracetest.SpanRecorder
	service   Service
}

func newTestEnv(t *testing.T, compensate bool) *testEnv {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	spans := tracetest.NewSpanRecorder()
	tp := trace.NewTracerProvider(trace.WithSpanProcessor(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	env := &testEnv{
		store:     NewMockStore(cakeStore()),
		publisher: &MockPublisher{},
		metrics:   &MockMetrics{},
		logs:      logs,
		spans:     spans,
	}
	env.service = NewService(ServiceDeps{
		Store:             env.store,
		Publisher:         env.publisher,
		Logger:            zap.New(core),
		Tracer:            tp.Tracer("test"),
		Metrics:           env.metrics,
		Clock:             fixedClock,
		LowStockThreshold: mustDecimal("5"),
		Compensate:        compensate,
	})
	return env
}

func (e *testEnv) spanNamed(name string) (trace.ReadOnlySpan, bool) {
	for _, s := range e.spans.Ended() {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
