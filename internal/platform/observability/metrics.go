package observability

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OtelMetrics implements Metrics on an OpenTelemetry meter.
type OtelMetrics struct {
	settlements metric.Int64Counter
	costOfGoods metric.Float64Counter
	lowStock    metric.Int64Counter
}

// NewMetrics registers the settlement instruments on meter.
func NewMetrics(meter metric.Meter) (*OtelMetrics, error) {
	settlements, err1 := meter.Int64Counter("stock.settlements",
		metric.WithDescription("Settlements processed by kind and outcome"),
		metric.WithUnit("{settlement}"),
	)
	costOfGoods, err2 := meter.Float64Counter("stock.cost_of_goods",
		metric.WithDescription("Value of stock consumed by orders and losses"),
		metric.WithUnit("EUR"),
	)
	lowStock, err3 := meter.Int64Counter("stock.low_stock_alerts",
		metric.WithDescription("Ingredients left below the low-stock threshold"),
		metric.WithUnit("{alert}"),
	)
	if err := errors.Join(err1, err2, err3); err != nil {
		return nil, err
	}

	return &OtelMetrics{
		settlements: settlements,
		costOfGoods: costOfGoods,
		lowStock:    lowStock,
	}, nil
}

func (m *OtelMetrics) RecordSettlement(ctx context.Context, kind, outcome string) {
	m.settlements.Add(ctx, 1, metric.WithAttributes(
		attribute.String("settlement.kind", kind),
		attribute.String("settlement.outcome", outcome),
	))
}

func (m *OtelMetrics) AddCostOfGoods(ctx context.Context, kind string, amount float64) {
	m.costOfGoods.Add(ctx, amount, metric.WithAttributes(attribute.String("settlement.kind", kind)))
}

func (m *OtelMetrics) RecordLowStock(ctx context.Context, ingredient string) {
	m.lowStock.Add(ctx, 1, metric.WithAttributes(attribute.String("ingredient", ingredient)))
}
