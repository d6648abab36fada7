// Package dataset holds immutable, versioned order datasets and the
// refresher that rebuilds them from a source.
package dataset

import (
	"sort"
	"time"

	"github.com/lucsky/cuid"

	"github.com/chrisdamba/darkstoremetrics/internal/ingest"
	"github.com/chrisdamba/darkstoremetrics/internal/metrics"
	"github.com/chrisdamba/darkstoremetrics/internal/models"
	"github.com/chrisdamba/darkstoremetrics/internal/timeparse"
)

// Dataset is one normalized batch. It is never mutated once published.
type Dataset struct {
	Version      string
	Source       string
	FetchedAt    time.Time
	Fallback     bool
	Notice       string
	Orders       []models.Order
	HasDelivery  bool
	Stores       []string
	Brands       []string
	Skipped      int
	UnparsedRows int

	pair [2]models.MetricKey
}

type BuildOptions struct {
	Parser   *timeparse.Parser
	Source   string
	Fallback bool
	Notice   string

	// PairedMetrics selects the metrics behind the combined fast rate.
	PairedMetrics [2]models.MetricKey
	Now           func() time.Time
}

func (o BuildOptions) pair() [2]models.MetricKey {
	if o.PairedMetrics[0] == "" || o.PairedMetrics[1] == "" {
		return [2]models.MetricKey{models.MetricImportCutoff, models.MetricPickupCutoff}
	}
	return o.PairedMetrics
}

// Build decodes and normalizes a raw CSV payload.
func Build(raw []byte, opts BuildOptions) (*Dataset, error) {
	headers, records, err := ingest.DecodeBytes(raw)
	if err != nil {
		return nil, err
	}

	normalizer := ingest.NewNormalizer(opts.Parser, ingest.ResolveHeaders(headers))
	res := normalizer.NormalizeAll(records)

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}

	ds := &Dataset{
		Version:     cuid.New(),
		Source:      opts.Source,
		FetchedAt:   now(),
		Fallback:    opts.Fallback,
		Notice:      opts.Notice,
		Orders:      res.Orders,
		HasDelivery: res.HasDelivery,
		Skipped:     res.Skipped,
		pair:        opts.pair(),
	}

	stores := make(map[string]struct{})
	brands := make(map[string]struct{})
	for _, o := range res.Orders {
		stores[o.StoreName] = struct{}{}
		brands[o.BrandName] = struct{}{}
		if o.HasUnparsed() {
			ds.UnparsedRows++
		}
	}
	ds.Stores = sortedKeys(stores)
	ds.Brands = sortedKeys(brands)
	return ds, nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// MetricKeys lists the metrics this dataset reports on.
func (d *Dataset) MetricKeys() []models.MetricKey {
	return models.MetricsFor(d.HasDelivery)
}

// PairedMetrics returns the metrics behind the combined fast rate.
func (d *Dataset) PairedMetrics() [2]models.MetricKey {
	return d.pair
}

// View is the filtered projection of a dataset that every output reads from.
type View struct {
	Orders     []models.Order                               `json:"orders"`
	Summary    metrics.Summary                              `json:"summary"`
	Metrics    map[models.MetricKey]metrics.MetricBucketSet `json:"metrics"`
	MetricKeys []models.MetricKey                           `json:"metricKeys"`
}

func (d *Dataset) View(criteria ...metrics.Criteria) View {
	orders := metrics.Filter(d.Orders, criteria...)
	keys := d.MetricKeys()
	pair := d.PairedMetrics()
	return View{
		Orders: orders,
		Summary: metrics.Summarize(orders,
			metrics.WithRateMetrics(keys...),
			metrics.WithPairedMetrics(pair[0], pair[1]),
		),
		Metrics:    metrics.AggregateAll(orders, keys),
		MetricKeys: keys,
	}
}

// Drill returns the orders behind one bucket of one metric. MetricAll yields
// every filtered order; an unreported metric or an unknown bucket yields none.
func (v View) Drill(metric models.MetricKey, bucket metrics.Bucket) []models.Order {
	if metric == models.MetricAll {
		return v.Orders
	}
	set, ok := v.Metrics[metric]
	if !ok {
		return []models.Order{}
	}
	group, ok := set.Group(bucket)
	if !ok {
		return []models.Order{}
	}
	return group.Orders
}
