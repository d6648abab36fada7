package ingest

import (
	"fmt"
	"time"

	"github.com/chrisdamba/darkstoremetrics/internal/models"
	"github.com/chrisdamba/darkstoremetrics/internal/timeparse"
)

// Normalizer turns raw records of one batch into canonical orders. The
// header resolution is fixed at construction, so it happens once per batch.
type Normalizer struct {
	parser  *timeparse.Parser
	headers HeaderMap
}

func NewNormalizer(parser *timeparse.Parser, headers HeaderMap) *Normalizer {
	if parser == nil {
		parser = timeparse.New(time.Local)
	}
	return &Normalizer{parser: parser, headers: headers}
}

func (n *Normalizer) Headers() HeaderMap {
	return n.headers
}

// HasDelivery reports whether the batch carries a delivered-at column.
func (n *Normalizer) HasDelivery() bool {
	return n.headers.Has(FieldDelivered)
}

// Accept reports whether a record carries both a creation and an import
// timestamp; other rows are dropped before normalization.
func (n *Normalizer) Accept(rec Record) bool {
	return n.headers.Value(rec, FieldCreated) != "" && n.headers.Value(rec, FieldImported) != ""
}

// Normalize builds the canonical order for rec. index is the 0-based position
// among accepted rows and only feeds the fallback id.
func (n *Normalizer) Normalize(rec Record, index int) models.Order {
	order := models.Order{
		ID:        n.headers.Value(rec, FieldID),
		StoreName: n.headers.Value(rec, FieldStore),
		BrandName: n.headers.Value(rec, FieldBrand),
	}
	if order.ID == "" {
		order.ID = FallbackID(index)
	}
	if order.StoreName == "" {
		order.StoreName = models.UnknownStore
	}
	if order.BrandName == "" {
		order.BrandName = models.UnknownBrand
	}

	order.CreatedAt = n.instant(rec, FieldCreated, models.StageCreated, &order)
	order.ImportedAt = n.instant(rec, FieldImported, models.StageImported, &order)
	order.AssignedAt = n.instant(rec, FieldAssigned, models.StageAssigned, &order)
	order.ConfirmedAt = n.instant(rec, FieldConfirmed, models.StageConfirmed, &order)
	order.PrintedAt = n.instant(rec, FieldPrinted, models.StagePrinted, &order)
	order.ManifestedAt = n.instant(rec, FieldManifested, models.StageManifested, &order)
	if n.HasDelivery() {
		order.HasDelivery = true
		delivered := n.instant(rec, FieldDelivered, models.StageDelivered, &order)
		order.DeliveredAt = &delivered
	}

	order.Latencies()
	return order
}

func (n *Normalizer) instant(rec Record, f Field, stage models.Stage, order *models.Order) time.Time {
	t, err := n.parser.ParseStrict(n.headers.Value(rec, f))
	if err != nil {
		order.Unparsed = append(order.Unparsed, stage)
		return n.parser.Parse("")
	}
	return t
}

// Result is the outcome of normalizing one batch.
type Result struct {
	Orders      []models.Order
	Skipped     int
	HasDelivery bool
}

// NormalizeAll filters out incomplete rows and normalizes the rest, keeping
// input order.
func (n *Normalizer) NormalizeAll(records []Record) Result {
	res := Result{
		Orders:      make([]models.Order, 0, len(records)),
		HasDelivery: n.HasDelivery(),
	}
	for _, rec := range records {
		if !n.Accept(rec) {
			res.Skipped++
			continue
		}
		res.Orders = append(res.Orders, n.Normalize(rec, len(res.Orders)))
	}
	return res
}

// FallbackID formats the generated id for the order at a 0-based index.
func FallbackID(index int) string {
	return fmt.Sprintf("%s%04d", models.OrderIDPrefix, index+1)
}
