package models

import (
	"math"
	"time"
)

// Order is the canonical, normalized form of one lifecycle row. Values are
// never mutated once built; filters and aggregations work on copies.
type Order struct {
	ID           string     `json:"id"`
	StoreName    string     `json:"darkstoreName"`
	BrandName    string     `json:"brandName"`
	CreatedAt    time.Time  `json:"createdAt"`
	ImportedAt   time.Time  `json:"importAt"`
	AssignedAt   time.Time  `json:"assignedAt"`
	ConfirmedAt  time.Time  `json:"confirmedAt"`
	PrintedAt    time.Time  `json:"printedAt"`
	ManifestedAt time.Time  `json:"manifestAt"`
	DeliveredAt  *time.Time `json:"deliveredAt,omitempty"`
	HasDelivery  bool       `json:"hasDelivery"`

	ImportLatency     int `json:"importCutoff"`
	AssignLatency     int `json:"inventoryAssignCutoff"`
	BatchPickLatency  int `json:"batchPickCutoff"`
	LabelLatency      int `json:"labelCutoff"`
	PickupLatency     int `json:"pickupCutoff"`
	DeliveryLatency   int `json:"deliveryCutoff"`
	TotalLatency      int `json:"totalTime"`
	ProcessingLatency int `json:"totalProcessingTime"`

	// Unparsed lists the stages whose timestamp could not be parsed and was
	// replaced by the parse-time clock.
	Unparsed []Stage `json:"unparsed,omitempty"`
}

// Latencies fills the derived minute fields from the lifecycle instants.
func (o *Order) Latencies() {
	o.ImportLatency = MinutesBetween(o.CreatedAt, o.ImportedAt)
	o.AssignLatency = MinutesBetween(o.ImportedAt, o.AssignedAt)
	o.BatchPickLatency = MinutesBetween(o.AssignedAt, o.ConfirmedAt)
	o.LabelLatency = MinutesBetween(o.ConfirmedAt, o.PrintedAt)
	o.PickupLatency = MinutesBetween(o.PrintedAt, o.ManifestedAt)
	o.TotalLatency = MinutesBetween(o.CreatedAt, o.ManifestedAt)
	o.ProcessingLatency = MinutesBetween(o.ImportedAt, o.ManifestedAt)
	o.DeliveryLatency = 0
	if o.HasDelivery && o.DeliveredAt != nil {
		o.DeliveryLatency = MinutesBetween(o.ManifestedAt, *o.DeliveredAt)
	}
}

// Latency returns the minutes recorded for the given metric.
func (o Order) Latency(metric MetricKey) int {
	switch metric {
	case MetricImportCutoff:
		return o.ImportLatency
	case MetricInventoryAssign:
		return o.AssignLatency
	case MetricBatchPick:
		return o.BatchPickLatency
	case MetricLabelPrint:
		return o.LabelLatency
	case MetricPickupCutoff:
		return o.PickupLatency
	case MetricDeliveryCutoff:
		return o.DeliveryLatency
	}
	return 0
}

// HasUnparsed reports whether any lifecycle timestamp fell back to the clock.
func (o Order) HasUnparsed() bool {
	return len(o.Unparsed) > 0
}

// MinutesBetween rounds b-a to whole minutes, clamping negatives to zero.
func MinutesBetween(a, b time.Time) int {
	m := math.Round(b.Sub(a).Minutes())
	if m < 0 {
		return 0
	}
	return int(m)
}
