package history

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ObserveRuns registers the gauge kwsearch.runs.total, which reports the
// stored run count per strategy each time metrics are collected. Call it
// after observability.Init and unregister before closing the store.
func (s *Store) ObserveRuns() (metric.Registration, error) {
	meter := otel.Meter("kwsearch/history")

	gauge, err := meter.Int64ObservableGauge(
		"kwsearch.runs.total",
		metric.WithDescription("Cumulative recorded search runs by strategy"),
		metric.WithUnit("{runs}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runs gauge: %w", err)
	}

	reg, err := meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		totals, err := s.Totals(ctx)
		if err != nil {
			return err
		}
		for strategy, total := range totals {
			o.ObserveInt64(gauge, total, metric.WithAttributes(attribute.String("strategy", string(strategy))))
		}
		return nil
	}, gauge)
	if err != nil {
		return nil, fmt.Errorf("failed to register runs callback: %w", err)
	}

	return reg, nil
}
