package metrics

import (
	"math"

	"github.com/chrisdamba/darkstoremetrics/internal/models"
)

// Summary is the scalar rollup of an order collection. Averages are rounded
// minutes; rates are fractions in [0, 1].
type Summary struct {
	TotalOrders            int `json:"totalOrders"`
	AvgImportTime          int `json:"avgImportTime"`
	AvgInventoryAssignTime int `json:"avgInventoryAssignTime"`
	AvgPickupAndBatchTime  int `json:"avgPickupAndBatchTime"`
	AvgLabelCutoffTime     int `json:"avgLabelCutoffTime"`
	AvgPickupCutoffTime    int `json:"avgPickupCutoffTime"`
	AvgDeliveryCutoffTime  int `json:"avgDeliveryCutoffTime"`
	AvgTotalTime           int `json:"avgTotalTime"`

	FastRates      map[models.MetricKey]float64 `json:"fastRates"`
	PairedMetrics  [2]models.MetricKey          `json:"pairedMetrics"`
	PairedFastRate float64                      `json:"pairedFastRate"`
	UnparsedOrders int                          `json:"unparsedOrders"`
}

type summaryOptions struct {
	pair    [2]models.MetricKey
	metrics []models.MetricKey
}

type SummaryOption func(*summaryOptions)

// WithPairedMetrics selects the two metrics behind PairedFastRate.
func WithPairedMetrics(a, b models.MetricKey) SummaryOption {
	return func(o *summaryOptions) {
		o.pair = [2]models.MetricKey{a, b}
	}
}

// WithRateMetrics selects the metrics reported in FastRates.
func WithRateMetrics(metrics ...models.MetricKey) SummaryOption {
	return func(o *summaryOptions) {
		o.metrics = metrics
	}
}

func Summarize(orders []models.Order, opts ...SummaryOption) Summary {
	cfg := summaryOptions{
		pair:    [2]models.MetricKey{models.MetricImportCutoff, models.MetricPickupCutoff},
		metrics: models.StageMetrics,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := Summary{
		TotalOrders:   len(orders),
		FastRates:     make(map[models.MetricKey]float64, len(cfg.metrics)),
		PairedMetrics: cfg.pair,
	}
	for _, m := range cfg.metrics {
		s.FastRates[m] = 0
	}
	if len(orders) == 0 {
		return s
	}

	var sums [7]int
	fast := make(map[models.MetricKey]int, len(cfg.metrics))
	paired := 0
	for _, o := range orders {
		sums[0] += o.ImportLatency
		sums[1] += o.AssignLatency
		sums[2] += o.BatchPickLatency
		sums[3] += o.LabelLatency
		sums[4] += o.PickupLatency
		sums[5] += o.DeliveryLatency
		sums[6] += o.TotalLatency
		for _, m := range cfg.metrics {
			if Classify(o.Latency(m)) == BucketFast {
				fast[m]++
			}
		}
		if Classify(o.Latency(cfg.pair[0])) == BucketFast && Classify(o.Latency(cfg.pair[1])) == BucketFast {
			paired++
		}
		if o.HasUnparsed() {
			s.UnparsedOrders++
		}
	}

	n := len(orders)
	s.AvgImportTime = mean(sums[0], n)
	s.AvgInventoryAssignTime = mean(sums[1], n)
	s.AvgPickupAndBatchTime = mean(sums[2], n)
	s.AvgLabelCutoffTime = mean(sums[3], n)
	s.AvgPickupCutoffTime = mean(sums[4], n)
	s.AvgDeliveryCutoffTime = mean(sums[5], n)
	s.AvgTotalTime = mean(sums[6], n)
	for _, m := range cfg.metrics {
		s.FastRates[m] = float64(fast[m]) / float64(n)
	}
	s.PairedFastRate = float64(paired) / float64(n)
	return s
}

func mean(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}
