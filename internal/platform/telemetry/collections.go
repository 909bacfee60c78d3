package telemetry

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// CountFunc reports the number of records held by each collection.
type CountFunc func(ctx context.Context) (map[string]int, error)

// CollectionGauge exports biblioteca_collection_items{collection=...}.
type CollectionGauge struct {
	items  *prometheus.GaugeVec
	count  CountFunc
	logger *slog.Logger
}

// NewCollectionGauge registers the gauge with reg. Call Refresh once at
// startup and pass Observe as the services' change hook.
func NewCollectionGauge(reg prometheus.Registerer, count CountFunc, logger *slog.Logger) (*CollectionGauge, error) {
	if logger == nil {
		logger = slog.Default()
	}

	items := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "biblioteca",
		Name:      "collection_items",
		Help:      "Number of records stored per collection.",
	}, []string{"collection"})

	if err := reg.Register(items); err != nil {
		return nil, err
	}

	return &CollectionGauge{
		items:  items,
		count:  count,
		logger: logger.With(slog.String("component", "telemetry.CollectionGauge")),
	}, nil
}

// Refresh recounts every collection.
func (g *CollectionGauge) Refresh(ctx context.Context) error {
	counts, err := g.count(ctx)
	if err != nil {
		return err
	}

	for collection, n := range counts {
		g.items.WithLabelValues(collection).Set(float64(n))
	}

	return nil
}

// Observe refreshes the gauge after a mutation of table. Failures are
// logged; a stale gauge never fails the write that triggered it.
func (g *CollectionGauge) Observe(ctx context.Context, table string) {
	if err := g.Refresh(ctx); err != nil {
		g.logger.WarnContext(ctx, "refreshing collection gauge",
			slog.String("collection", table),
			slog.Any("error", err),
		)
	}
}
