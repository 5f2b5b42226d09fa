package search

import (
	"context"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/ca-srg/kwsearch/internal/types"
)

const instrumentationName = "kwsearch/search"

var (
	instrumentsOnce sync.Once
	searchDuration  metric.Float64Histogram
	filesScanned    metric.Int64Counter
)

func initInstruments() {
	meter := otel.Meter(instrumentationName)

	var err error
	searchDuration, err = meter.Float64Histogram(
		"kwsearch.search.duration",
		metric.WithDescription("Wall-clock duration of one search run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		log.Printf("search: failed to create duration histogram: %v", err)
	}

	filesScanned, err = meter.Int64Counter(
		"kwsearch.files.scanned",
		metric.WithDescription("Files handed to search workers"),
		metric.WithUnit("{files}"),
	)
	if err != nil {
		log.Printf("search: failed to create files counter: %v", err)
	}
}

func startSearchSpan(ctx context.Context, strategy types.Strategy, files, keywords, workers int) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, "search."+string(strategy),
		trace.WithAttributes(
			attribute.String("search.strategy", string(strategy)),
			attribute.Int("search.files", files),
			attribute.Int("search.keywords", keywords),
			attribute.Int("search.workers", workers),
		),
	)
}

func recordSearch(ctx context.Context, strategy types.Strategy, files int, elapsed time.Duration) {
	instrumentsOnce.Do(initInstruments)

	attrs := metric.WithAttributes(attribute.String("strategy", string(strategy)))
	if searchDuration != nil {
		searchDuration.Record(ctx, elapsed.Seconds(), attrs)
	}
	if filesScanned != nil {
		filesScanned.Add(ctx, int64(files), attrs)
	}
}
