package models

import (
	"fmt"
	"strings"
)

type MetricKey string

const (
	MetricImportCutoff    MetricKey = "importCutoff"
	MetricInventoryAssign MetricKey = "inventoryAssign"
	MetricBatchPick       MetricKey = "batchPick"
	MetricLabelPrint      MetricKey = "labelPrint"
	MetricPickupCutoff    MetricKey = "pickupCutoff"
	MetricDeliveryCutoff  MetricKey = "deliveryCutoff"

	// MetricAll selects every order of a view instead of one bucket.
	MetricAll MetricKey = "all"
)

// StageMetrics are the metrics every dataset carries, in display order.
var StageMetrics = []MetricKey{
	MetricImportCutoff,
	MetricInventoryAssign,
	MetricBatchPick,
	MetricLabelPrint,
	MetricPickupCutoff,
}

var metricTitles = map[MetricKey]string{
	MetricImportCutoff:    "Import Cutoff Time",
	MetricInventoryAssign: "Inventory Assign Cutoff",
	MetricBatchPick:       "Batch & Pick Cutoff",
	MetricLabelPrint:      "Label Cutoff Time",
	MetricPickupCutoff:    "Pickup Cutoff Time",
	MetricDeliveryCutoff:  "Delivery Cutoff Time",
}

// MetricsFor returns the metric set for a batch, adding the delivery stage
// only when delivery timestamps are present.
func MetricsFor(hasDelivery bool) []MetricKey {
	metrics := make([]MetricKey, 0, len(StageMetrics)+1)
	metrics = append(metrics, StageMetrics...)
	if hasDelivery {
		metrics = append(metrics, MetricDeliveryCutoff)
	}
	return metrics
}

func (m MetricKey) Title() string {
	if title, ok := metricTitles[m]; ok {
		return title
	}
	return string(m)
}

func (m MetricKey) Valid() bool {
	_, ok := metricTitles[m]
	return ok
}

// ParseMetricKey accepts a metric key in any letter case.
func ParseMetricKey(s string) (MetricKey, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, string(MetricAll)) {
		return MetricAll, nil
	}
	for key := range metricTitles {
		if strings.EqualFold(s, string(key)) {
			return key, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}
