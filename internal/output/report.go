package output

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/chrisdamba/darkstoremetrics/internal/dataset"
)

const reportTimeLayout = "2006-01-02 15:04:05 MST"

// WriteReport renders a dataset view as a plain-text report.
func WriteReport(w io.Writer, ds *dataset.Dataset, v dataset.View) error {
	fmt.Fprintf(w, "Dark Store Metrics\n")
	fmt.Fprintf(w, "Source: %s (version %s)\n", ds.Source, ds.Version)
	fmt.Fprintf(w, "Fetched: %s\n", ds.FetchedAt.Format(reportTimeLayout))
	if ds.Notice != "" {
		fmt.Fprintf(w, "Notice: %s\n", ds.Notice)
	}
	fmt.Fprintf(w, "Orders: %d | Skipped rows: %d | Unparsed: %d\n\n", v.Summary.TotalOrders, ds.Skipped, v.Summary.UnparsedOrders)

	s := v.Summary
	fmt.Fprintf(w, "Averages (mins)\n")
	fmt.Fprintf(w, "  Import: %d | Inventory Assign: %d | Batch & Pick: %d | Label: %d | Pickup: %d",
		s.AvgImportTime, s.AvgInventoryAssignTime, s.AvgPickupAndBatchTime, s.AvgLabelCutoffTime, s.AvgPickupCutoffTime)
	if ds.HasDelivery {
		fmt.Fprintf(w, " | Delivery: %d", s.AvgDeliveryCutoffTime)
	}
	fmt.Fprintf(w, " | Total: %d\n", s.AvgTotalTime)
	fmt.Fprintf(w, "  Fast rate (%s + %s): %.1f%%\n\n", s.PairedMetrics[0], s.PairedMetrics[1], s.PairedFastRate*100)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\t0-15 MINS\t15-25 MINS\t25+ MINS\tFAST RATE")
	for _, key := range v.MetricKeys {
		set := v.Metrics[key]
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%.1f%%\n", key.Title(), set[0].Count, set[1].Count, set[2].Count, s.FastRates[key]*100)
	}
	return tw.Flush()
}
