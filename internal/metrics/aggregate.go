package metrics

import "github.com/chrisdamba/darkstoremetrics/internal/models"

type BucketGroup struct {
	Range  Bucket         `json:"range"`
	Count  int            `json:"count"`
	Orders []models.Order `json:"orders"`
}

// MetricBucketSet holds the three tiers of one metric in Buckets order.
type MetricBucketSet [3]BucketGroup

// Aggregate partitions orders into the three tiers of metric. Empty tiers
// are kept with a zero count and an empty order list.
func Aggregate(orders []models.Order, metric models.MetricKey) MetricBucketSet {
	var set MetricBucketSet
	for i, b := range Buckets {
		set[i] = BucketGroup{Range: b, Orders: []models.Order{}}
	}
	for _, o := range orders {
		i := Classify(o.Latency(metric)).Index()
		set[i].Orders = append(set[i].Orders, o)
		set[i].Count++
	}
	return set
}

// AggregateAll runs Aggregate once per metric.
func AggregateAll(orders []models.Order, metrics []models.MetricKey) map[models.MetricKey]MetricBucketSet {
	out := make(map[models.MetricKey]MetricBucketSet, len(metrics))
	for _, m := range metrics {
		out[m] = Aggregate(orders, m)
	}
	return out
}

func (s MetricBucketSet) Group(b Bucket) (BucketGroup, bool) {
	i := b.Index()
	if i < 0 {
		return BucketGroup{}, false
	}
	return s[i], true
}

func (s MetricBucketSet) Total() int {
	total := 0
	for _, g := range s {
		total += g.Count
	}
	return total
}
