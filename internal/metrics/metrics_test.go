package metrics

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chrisdamba/darkstoremetrics/internal/models"
)

var base = time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

// order builds an order from stage gaps in minutes.
func order(id, store, brand string, created time.Time, gaps ...int) models.Order {
	o := models.Order{ID: id, StoreName: store, BrandName: brand, CreatedAt: created}
	stamps := []*time.Time{&o.ImportedAt, &o.AssignedAt, &o.ConfirmedAt, &o.PrintedAt, &o.ManifestedAt}
	prev := created
	for i, p := range stamps {
		gap := 0
		if i < len(gaps) {
			gap = gaps[i]
		}
		*p = prev.Add(time.Duration(gap) * time.Minute)
		prev = *p
	}
	o.Latencies()
	return o
}

func randomOrders(n int, seed int64) []models.Order {
	rng := rand.New(rand.NewSource(seed))
	stores := []string{"Andheri", "Thane", "Kolaba"}
	brands := []string{"Myntra", "Ajio", "Puma"}
	out := make([]models.Order, n)
	for i := range out {
		created := base.Add(time.Duration(rng.Intn(20*24*60)) * time.Minute)
		out[i] = order(fmt.Sprintf("O%d", i), stores[rng.Intn(len(stores))], brands[rng.Intn(len(brands))], created,
			rng.Intn(40), rng.Intn(40), rng.Intn(40), rng.Intn(40), rng.Intn(40))
	}
	return out
}

func TestClassifyBoundaries(t *testing.T) {
	assert.Equal(t, BucketFast, Classify(0))
	assert.Equal(t, BucketFast, Classify(15))
	assert.Equal(t, BucketMedium, Classify(16))
	assert.Equal(t, BucketMedium, Classify(25))
	assert.Equal(t, BucketSlow, Classify(26))
	assert.Equal(t, BucketSlow, Classify(10_000))
}

func TestClassifyIsMonotonic(t *testing.T) {
	prev := Classify(0).Index()
	for m := 1; m <= 200; m++ {
		idx := Classify(m).Index()
		require.GreaterOrEqual(t, idx, prev, "minutes=%d", m)
		require.GreaterOrEqual(t, idx, 0)
		prev = idx
	}
}

func TestAggregatePartitionsOrders(t *testing.T) {
	orders := randomOrders(200, 7)
	for _, metric := range models.MetricsFor(true) {
		set := Aggregate(orders, metric)
		require.Equal(t, len(orders), set.Total(), metric)

		seen := make(map[string]int)
		for i, g := range set {
			assert.Equal(t, Buckets[i], g.Range)
			assert.Len(t, g.Orders, g.Count)
			for _, o := range g.Orders {
				assert.Equal(t, g.Range, Classify(o.Latency(metric)))
				seen[o.ID]++
			}
		}
		require.Len(t, seen, len(orders))
		for id, n := range seen {
			require.Equal(t, 1, n, "order %s in %d buckets", id, n)
		}
	}
}

func TestAggregateKeepsEmptyBuckets(t *testing.T) {
	set := Aggregate(nil, models.MetricImportCutoff)
	for i, g := range set {
		assert.Equal(t, Buckets[i], g.Range)
		assert.Zero(t, g.Count)
		assert.NotNil(t, g.Orders)
		assert.Empty(t, g.Orders)
	}

	one := []models.Order{order("A", "Andheri", "Myntra", base, 9, 2, 9, 10, 5)}
	set = Aggregate(one, models.MetricImportCutoff)
	assert.Equal(t, 1, set[0].Count)
	assert.Equal(t, 0, set[1].Count)
	assert.Equal(t, 0, set[2].Count)

	g, ok := set.Group(BucketFast)
	require.True(t, ok)
	assert.Equal(t, "A", g.Orders[0].ID)
	_, ok = set.Group("10-20 mins")
	assert.False(t, ok)
}

func TestAggregateAll(t *testing.T) {
	orders := randomOrders(30, 3)
	all := AggregateAll(orders, models.StageMetrics)
	assert.Len(t, all, 5)
	_, ok := all[models.MetricDeliveryCutoff]
	assert.False(t, ok)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.TotalOrders)
	assert.Zero(t, s.AvgImportTime)
	assert.Zero(t, s.AvgInventoryAssignTime)
	assert.Zero(t, s.AvgPickupAndBatchTime)
	assert.Zero(t, s.AvgLabelCutoffTime)
	assert.Zero(t, s.AvgPickupCutoffTime)
	assert.Zero(t, s.AvgDeliveryCutoffTime)
	assert.Zero(t, s.AvgTotalTime)
	assert.Zero(t, s.PairedFastRate)
	for m, r := range s.FastRates {
		assert.Zero(t, r, m)
	}
}

func TestSummarizeAveragesAndRates(t *testing.T) {
	orders := []models.Order{
		order("A", "Andheri", "Myntra", base, 9, 2, 9, 10, 5),
		order("B", "Andheri", "Myntra", base, 20, 2, 9, 10, 30),
		order("C", "Thane", "Ajio", base, 10, 3, 9, 10, 5),
		order("D", "Thane", "Ajio", base, 30, 2, 9, 11, 5),
	}
	s := Summarize(orders)
	assert.Equal(t, 4, s.TotalOrders)
	assert.Equal(t, 17, s.AvgImportTime)
	assert.Equal(t, 2, s.AvgInventoryAssignTime)
	assert.Equal(t, 9, s.AvgPickupAndBatchTime)
	assert.Equal(t, 10, s.AvgLabelCutoffTime)
	assert.Equal(t, 11, s.AvgPickupCutoffTime)
	assert.InDelta(t, 0.5, s.FastRates[models.MetricImportCutoff], 1e-9)
	assert.InDelta(t, 0.75, s.FastRates[models.MetricPickupCutoff], 1e-9)
	// A and C are fast on both import and pickup
	assert.InDelta(t, 0.5, s.PairedFastRate, 1e-9)

	s = Summarize(orders, WithPairedMetrics(models.MetricBatchPick, models.MetricLabelPrint))
	assert.InDelta(t, 1.0, s.PairedFastRate, 1e-9)
}

func TestSummarizeRoundsHalfUp(t *testing.T) {
	orders := []models.Order{
		order("A", "", "", base, 1),
		order("B", "", "", base, 2),
	}
	assert.Equal(t, 2, Summarize(orders).AvgImportTime)
}

func TestFilterStoreAndBrand(t *testing.T) {
	orders := randomOrders(100, 11)
	got := Filter(orders, Criteria{Store: "Andheri"})
	for _, o := range got {
		assert.Equal(t, "Andheri", o.StoreName)
	}
	want := 0
	for _, o := range orders {
		if o.StoreName == "Andheri" {
			want++
		}
	}
	assert.Len(t, got, want)

	assert.Equal(t, orders, Filter(orders, Criteria{Store: models.FilterAll, Brand: ""}))
	assert.Empty(t, Filter(orders, Criteria{Store: "andheri"}))
}

func TestFilterDateRangeIsInclusiveByDay(t *testing.T) {
	orders := []models.Order{
		order("early", "", "", time.Date(2025, 7, 31, 23, 59, 0, 0, time.UTC)),
		order("start", "", "", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)),
		order("end-late", "", "", time.Date(2025, 8, 20, 23, 30, 0, 0, time.UTC)),
		order("after", "", "", time.Date(2025, 8, 21, 0, 0, 0, 0, time.UTC)),
	}
	r, err := ParseDateRange("2025-08-01", "2025-08-20", time.UTC)
	require.NoError(t, err)
	got := Filter(orders, Criteria{Dates: r})
	require.Len(t, got, 2)
	assert.Equal(t, "start", got[0].ID)
	assert.Equal(t, "end-late", got[1].ID)
}

func TestFilterDateRangeReadsOrdersInRangeLocation(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	orders := []models.Order{
		order("utc-evening", "", "", time.Date(2025, 8, 1, 19, 0, 0, 0, time.UTC)),
		order("utc-morning", "", "", time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC)),
	}
	r, err := ParseDateRange("2025-08-02", "2025-08-02", ist)
	require.NoError(t, err)
	got := Filter(orders, Criteria{Dates: r})
	require.Len(t, got, 1)
	assert.Equal(t, "utc-evening", got[0].ID)
}

func TestParseDateRange(t *testing.T) {
	r, err := ParseDateRange("", "2025-08-20", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = ParseDateRange("2025-08-01", " ", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, r)

	_, err = ParseDateRange("08/01/2025", "2025-08-20", time.UTC)
	require.ErrorIs(t, err, ErrInvalidDate)
}

func TestFilterIsIdempotentAndCommutative(t *testing.T) {
	orders := randomOrders(300, 5)
	dates, err := ParseDateRange("2025-08-03", "2025-08-12", time.UTC)
	require.NoError(t, err)

	a := Criteria{Store: "Thane"}
	b := Criteria{Brand: "Ajio", Dates: dates}

	ab := Filter(Filter(orders, a), b)
	ba := Filter(Filter(orders, b), a)
	combined := Filter(orders, a, b)
	single := Filter(orders, Criteria{Store: "Thane", Brand: "Ajio", Dates: dates})

	assert.Equal(t, ab, ba)
	assert.Equal(t, ab, combined)
	assert.Equal(t, ab, single)
	assert.Equal(t, combined, Filter(combined, a, b))
}

func TestFilterThenAggregateMatchesDirectComputation(t *testing.T) {
	orders := randomOrders(150, 9)
	c := Criteria{Store: "Kolaba"}
	filtered := Filter(orders, c)

	set := Aggregate(filtered, models.MetricBatchPick)
	var manual [3]int
	for _, o := range orders {
		if o.StoreName == "Kolaba" {
			manual[Classify(o.BatchPickLatency).Index()]++
		}
	}
	for i := range set {
		assert.Equal(t, manual[i], set[i].Count)
	}
}

func TestFilterReturnsCopy(t *testing.T) {
	orders := randomOrders(5, 1)
	got := Filter(orders)
	require.Equal(t, orders, got)
	got[0].StoreName = "mutated"
	assert.NotEqual(t, "mutated", orders[0].StoreName)
}

func TestParseBucket(t *testing.T) {
	for in, want := range map[string]Bucket{
		"0-15 mins":  BucketFast,
		"15-25_mins": BucketMedium,
		"25+ MINS":   BucketSlow,
		" slow ":     BucketSlow,
		"fast":       BucketFast,
	} {
		got, ok := ParseBucket(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseBucket("45+ mins")
	assert.False(t, ok)
}
