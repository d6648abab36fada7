package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chrisdamba/darkstoremetrics/internal/metrics"
	"github.com/chrisdamba/darkstoremetrics/internal/models"
)

// ExportHeaders is the column layout of every order export.
var ExportHeaders = []string{
	"Order ID",
	"Darkstore",
	"Brand",
	"Created At",
	"Import At",
	"Assigned At",
	"Confirmed At",
	"Printed At",
	"Manifest At",
	"Metric Value (mins)",
}

type ExportRow struct {
	OrderID     string `json:"orderId" parquet:"name=orderId,type=BYTE_ARRAY,convertedtype=UTF8"`
	Darkstore   string `json:"darkstore" parquet:"name=darkstore,type=BYTE_ARRAY,convertedtype=UTF8"`
	Brand       string `json:"brand" parquet:"name=brand,type=BYTE_ARRAY,convertedtype=UTF8"`
	CreatedAt   string `json:"createdAt" parquet:"name=createdAt,type=BYTE_ARRAY,convertedtype=UTF8"`
	ImportAt    string `json:"importAt" parquet:"name=importAt,type=BYTE_ARRAY,convertedtype=UTF8"`
	AssignedAt  string `json:"assignedAt" parquet:"name=assignedAt,type=BYTE_ARRAY,convertedtype=UTF8"`
	ConfirmedAt string `json:"confirmedAt" parquet:"name=confirmedAt,type=BYTE_ARRAY,convertedtype=UTF8"`
	PrintedAt   string `json:"printedAt" parquet:"name=printedAt,type=BYTE_ARRAY,convertedtype=UTF8"`
	ManifestAt  string `json:"manifestAt" parquet:"name=manifestAt,type=BYTE_ARRAY,convertedtype=UTF8"`
	MetricValue int64  `json:"metricValueMins" parquet:"name=metricValueMins,type=INT64"`
}

func (r ExportRow) record() []string {
	return []string{
		r.OrderID,
		r.Darkstore,
		r.Brand,
		r.CreatedAt,
		r.ImportAt,
		r.AssignedAt,
		r.ConfirmedAt,
		r.PrintedAt,
		r.ManifestAt,
		strconv.FormatInt(r.MetricValue, 10),
	}
}

// ExportRows renders orders for export. The metric value column carries the
// order's latency for metric, or its total latency for MetricAll.
func ExportRows(orders []models.Order, metric models.MetricKey) []ExportRow {
	rows := make([]ExportRow, len(orders))
	for i, o := range orders {
		value := o.Latency(metric)
		if metric == models.MetricAll {
			value = o.TotalLatency
		}
		rows[i] = ExportRow{
			OrderID:     o.ID,
			Darkstore:   o.StoreName,
			Brand:       o.BrandName,
			CreatedAt:   formatTime(o.CreatedAt),
			ImportAt:    formatTime(o.ImportedAt),
			AssignedAt:  formatTime(o.AssignedAt),
			ConfirmedAt: formatTime(o.ConfirmedAt),
			PrintedAt:   formatTime(o.PrintedAt),
			ManifestAt:  formatTime(o.ManifestedAt),
			MetricValue: int64(value),
		}
	}
	return rows
}

func formatTime(t time.Time) string {
	return t.Format(models.ExportTimeLayout)
}

func WriteCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeaders); err != nil {
		return err
	}
	for _, row := range rows {
		if err := cw.Write(row.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFileName names the export of one bucket, e.g.
// importCutoff_0-15_mins_orders.csv.
func ExportFileName(metric models.MetricKey, bucket metrics.Bucket, format string) string {
	if format == "" {
		format = FormatCSV
	}
	if bucket == "" {
		return fmt.Sprintf("%s_orders.%s", metric, format)
	}
	return fmt.Sprintf("%s_%s_orders.%s", metric, strings.ReplaceAll(string(bucket), " ", "_"), format)
}
