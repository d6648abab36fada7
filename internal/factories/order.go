package factories

import (
	"encoding/csv"
	"io"
	"math/rand"
	"time"

	"github.com/jaswdr/faker"
	"github.com/lucsky/cuid"
)

const rowTimeLayout = "1/2/2006 3:04:05 PM"

var orderRowHeaders = []string{
	"Order ID",
	"Darkstore Name",
	"Brand Name",
	"Created At",
	"Import At",
	"Assigned At",
	"Confirmed At",
	"Printed At",
	"Manifest At",
}

type OrderRowOptions struct {
	Seed         int64
	Stores       int
	Brands       int
	Start        time.Time
	Days         int
	WithDelivery bool
}

// OrderRowFactory creates synthetic order lifecycle rows in the export layout
// of the operations sheet.
type OrderRowFactory struct {
	fake         faker.Faker
	rng          *rand.Rand
	stores       []string
	brands       []string
	start        time.Time
	days         int
	withDelivery bool
}

func NewOrderRowFactory(opts OrderRowOptions) *OrderRowFactory {
	if opts.Stores <= 0 {
		opts.Stores = 5
	}
	if opts.Brands <= 0 {
		opts.Brands = 7
	}
	if opts.Days <= 0 {
		opts.Days = 30
	}
	if opts.Start.IsZero() {
		opts.Start = time.Now().AddDate(0, 0, -opts.Days).Truncate(24 * time.Hour)
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	f := &OrderRowFactory{
		fake:         faker.NewWithSeed(rand.NewSource(opts.Seed)),
		rng:          rand.New(rand.NewSource(opts.Seed)),
		start:        opts.Start,
		days:         opts.Days,
		withDelivery: opts.WithDelivery,
	}
	f.stores = uniqueNames(opts.Stores, func() string { return f.fake.Address().City() })
	f.brands = uniqueNames(opts.Brands, func() string { return f.fake.Company().Name() })
	return f
}

func uniqueNames(n int, next func() string) []string {
	seen := make(map[string]struct{}, n)
	names := make([]string, 0, n)
	for attempts := 0; len(names) < n && attempts < n*20; attempts++ {
		name := next()
		if _, ok := seen[name]; ok || name == "" {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

func (f *OrderRowFactory) Headers() []string {
	headers := append([]string(nil), orderRowHeaders...)
	if f.withDelivery {
		headers = append(headers, "Delivered At")
	}
	return headers
}

func (f *OrderRowFactory) Stores() []string {
	return f.stores
}

func (f *OrderRowFactory) Brands() []string {
	return f.brands
}

func (f *OrderRowFactory) CreateRow() []string {
	created := f.start.
		AddDate(0, 0, f.rng.Intn(f.days)).
		Add(time.Duration(8*60+f.rng.Intn(12*60)) * time.Minute)

	stamps := []time.Time{created}
	stages := len(orderRowHeaders) - 4
	if f.withDelivery {
		stages++
	}
	at := created
	for i := 0; i < stages; i++ {
		at = at.Add(time.Duration(f.stageGap()) * time.Minute)
		stamps = append(stamps, at)
	}

	row := []string{
		cuid.New(),
		f.stores[f.rng.Intn(len(f.stores))],
		f.brands[f.rng.Intn(len(f.brands))],
	}
	for _, t := range stamps {
		row = append(row, t.Format(rowTimeLayout))
	}
	return row
}

// stageGap draws a stage duration in minutes: mostly fast, some medium and a
// slow tail.
func (f *OrderRowFactory) stageGap() int {
	r := f.rng.Float64()
	switch {
	case r < 0.6:
		return 1 + f.rng.Intn(15)
	case r < 0.85:
		return 16 + f.rng.Intn(10)
	}
	return 26 + f.rng.Intn(45)
}

// Write emits a header and n rows as CSV, calling onRow after each row.
func (f *OrderRowFactory) Write(w io.Writer, n int, onRow func()) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Headers()); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(f.CreateRow()); err != nil {
			return err
		}
		if onRow != nil {
			onRow()
		}
	}
	cw.Flush()
	return cw.Error()
}
