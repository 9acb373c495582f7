package observability

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestOtelMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	m, err := NewMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}

	ctx := context.Background()
	m.RecordSettlement(ctx, "order", "committed")
	m.RecordSettlement(ctx, "order", "committed")
	m.AddCostOfGoods(ctx, "order", 12)
	m.RecordLowStock(ctx, "Flour")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	got := map[string]bool{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			got[md.Name] = true
			if md.Name == "stock.settlements" {
				sum, ok := md.Data.(metricdata.Sum[int64])
				if !ok {
					t.Fatalf("stock.settlements data = %T", md.Data)
				}
				if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 2 {
					t.Errorf("stock.settlements points = %+v, want one point with value 2", sum.DataPoints)
				}
			}
		}
	}

	for _, name := range []string{"stock.settlements", "stock.cost_of_goods", "stock.low_stock_alerts"} {
		if !got[name] {
			t.Errorf("metric %s not collected", name)
		}
	}
}
