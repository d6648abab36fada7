package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/darkstoremetrics/internal/models"
	"github.com/chrisdamba/darkstoremetrics/internal/timeparse"
)

const andheriCSV = `Darkstore Name,Brand Name,Created At,Import At,Assigned At,Confirmed At,Printed At,Manifest At
Andheri,Myntra,8/1/2025 10:20:00 AM,8/1/2025 10:29:00 AM,8/1/2025 10:31:00 AM,8/1/2025 10:40:00 AM,8/1/2025 10:50:00 AM,8/1/2025 10:55:00 AM
`

var clock = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

func testParser() *timeparse.Parser {
	p := timeparse.New(time.UTC)
	p.Now = func() time.Time { return clock }
	return p
}

func normalizeCSV(t *testing.T, payload string) Result {
	t.Helper()
	headers, records, err := Decode(strings.NewReader(payload))
	require.NoError(t, err)
	return NewNormalizer(testParser(), ResolveHeaders(headers)).NormalizeAll(records)
}

func TestNormalizeDerivesStageLatencies(t *testing.T) {
	res := normalizeCSV(t, andheriCSV)
	require.Len(t, res.Orders, 1)
	assert.Zero(t, res.Skipped)
	assert.False(t, res.HasDelivery)

	o := res.Orders[0]
	assert.Equal(t, "ORD-0001", o.ID)
	assert.Equal(t, "Andheri", o.StoreName)
	assert.Equal(t, "Myntra", o.BrandName)
	assert.Equal(t, 9, o.ImportLatency)
	assert.Equal(t, 2, o.AssignLatency)
	assert.Equal(t, 9, o.BatchPickLatency)
	assert.Equal(t, 10, o.LabelLatency)
	assert.Equal(t, 5, o.PickupLatency)
	assert.Equal(t, 35, o.TotalLatency)
	assert.Equal(t, 26, o.ProcessingLatency)
	assert.Zero(t, o.DeliveryLatency)
	assert.Empty(t, o.Unparsed)
}

func TestNormalizeDropsRowsWithoutCreatedOrImport(t *testing.T) {
	payload := `Order ID,Created At,Import At
A1,8/1/2025 10:20:00 AM,8/1/2025 10:29:00 AM
A2,,8/1/2025 10:29:00 AM
A3,8/1/2025 10:20:00 AM,
A4,  ,  
A5,8/2/2025 10:20:00 AM,8/2/2025 10:25:00 AM
`
	res := normalizeCSV(t, payload)
	require.Len(t, res.Orders, 2)
	assert.Equal(t, 3, res.Skipped)
	assert.Equal(t, "A1", res.Orders[0].ID)
	assert.Equal(t, "A5", res.Orders[1].ID)
}

func TestNormalizeDefaultsMissingFields(t *testing.T) {
	payload := `Created At,Import At,Assigned At
8/1/2025 10:20:00 AM,8/1/2025 10:29:00 AM,garbage
8/1/2025 10:20:00 AM,8/1/2025 10:29:00 AM,8/1/2025 10:30:00 AM
`
	res := normalizeCSV(t, payload)
	require.Len(t, res.Orders, 2)

	first := res.Orders[0]
	assert.Equal(t, "ORD-0001", first.ID)
	assert.Equal(t, models.UnknownStore, first.StoreName)
	assert.Equal(t, models.UnknownBrand, first.BrandName)
	assert.Equal(t, clock, first.AssignedAt)
	assert.Equal(t, []models.Stage{
		models.StageAssigned, models.StageConfirmed, models.StagePrinted, models.StageManifested,
	}, first.Unparsed)
	assert.Equal(t, "ORD-0002", res.Orders[1].ID)
}

func TestNormalizeClampsNegativeLatencies(t *testing.T) {
	payload := `Created At,Import At,Assigned At,Confirmed At,Printed At,Manifest At
8/1/2025 10:30:00 AM,8/1/2025 10:00:00 AM,8/1/2025 9:00:00 AM,8/1/2025 9:10:00 AM,8/1/2025 9:05:00 AM,8/1/2025 9:30:00 AM
`
	o := normalizeCSV(t, payload).Orders[0]
	assert.Zero(t, o.ImportLatency)
	assert.Zero(t, o.AssignLatency)
	assert.Equal(t, 10, o.BatchPickLatency)
	assert.Zero(t, o.LabelLatency)
	assert.Equal(t, 25, o.PickupLatency)
	assert.Zero(t, o.TotalLatency)
}

func TestNormalizeDeliveryColumn(t *testing.T) {
	payload := `ID,Store,Brand,Created At,Import At,Assigned At,Confirmed At,Printed At,Manifest At,Delivered At
X-1,Powai,Samsung,8/23/2025 2:45:00 PM,8/23/2025 2:55:00 PM,8/23/2025 2:57:00 PM,8/23/2025 3:05:00 PM,8/23/2025 3:15:00 PM,8/23/2025 3:20:00 PM,8/23/2025 3:52:00 PM
`
	res := normalizeCSV(t, payload)
	require.True(t, res.HasDelivery)
	o := res.Orders[0]
	assert.Equal(t, "X-1", o.ID)
	assert.Equal(t, "Powai", o.StoreName)
	assert.True(t, o.HasDelivery)
	require.NotNil(t, o.DeliveredAt)
	assert.Equal(t, 32, o.DeliveryLatency)
	assert.Equal(t, 32, o.Latency(models.MetricDeliveryCutoff))
}

func TestResolveHeadersPrefersFirstAlias(t *testing.T) {
	hm := ResolveHeaders([]string{"Store", "Darkstore Name", " Order ID ", "ID"})

	col, ok := hm.Column(FieldStore)
	require.True(t, ok)
	assert.Equal(t, "Darkstore Name", col)

	col, ok = hm.Column(FieldID)
	require.True(t, ok)
	assert.Equal(t, "Order ID", col)

	assert.False(t, hm.Has(FieldDelivered))
}

func TestResolveHeadersToleratesCasing(t *testing.T) {
	hm := ResolveHeaders([]string{"created at", "IMPORT AT", "Created Date"})

	col, ok := hm.Column(FieldCreated)
	require.True(t, ok)
	assert.Equal(t, "Created Date", col, "exact alias beats a case-folded one")

	col, ok = hm.Column(FieldImported)
	require.True(t, ok)
	assert.Equal(t, "IMPORT AT", col)
}

func TestDecodeHandlesBOMAndShortRows(t *testing.T) {
	headers, records, err := Decode(strings.NewReader("\ufeffOrder ID , Darkstore Name\nA1\n\nA2,Thane\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"Order ID", "Darkstore Name"}, headers)
	require.Len(t, records, 2)
	assert.Equal(t, "", records[0]["Darkstore Name"])
	assert.Equal(t, "Thane", records[1]["Darkstore Name"])
}

func TestDecodeEmptyPayload(t *testing.T) {
	_, _, err := Decode(strings.NewReader(""))
	require.ErrorIs(t, err, ErrNoHeader)
}

func TestFallbackID(t *testing.T) {
	assert.Equal(t, "ORD-0001", FallbackID(0))
	assert.Equal(t, "ORD-0042", FallbackID(41))
	assert.Equal(t, "ORD-12345", FallbackID(12344))
}
