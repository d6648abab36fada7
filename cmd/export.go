package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chrisdamba/darkstoremetrics/internal/metrics"
	"github.com/chrisdamba/darkstoremetrics/internal/models"
	"github.com/chrisdamba/darkstoremetrics/internal/output"
)

var (
	exportMetric string
	exportBucket string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the orders of one metric bucket",
	Example: `  darkstoremetrics export --metric importCutoff --bucket "25+ mins"
  darkstoremetrics export --metric all --output-format parquet`,
	RunE: func(cmd *cobra.Command, args []string) error {
		metric, err := models.ParseMetricKey(exportMetric)
		if err != nil {
			return err
		}
		var bucket metrics.Bucket
		if metric != models.MetricAll {
			b, ok := metrics.ParseBucket(exportBucket)
			if !ok {
				return fmt.Errorf("unknown bucket %q", exportBucket)
			}
			bucket = b
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		criteria, err := a.criteria()
		if err != nil {
			return err
		}
		exporter, err := a.exporter(cmd.Context())
		if err != nil {
			return err
		}
		ds, err := a.loadOnce(cmd.Context())
		if err != nil {
			return err
		}

		orders := ds.View(criteria).Drill(metric, bucket)
		name := output.ExportFileName(metric, bucket, exporter.Format())
		location, err := exporter.Export(cmd.Context(), name, output.ExportRows(orders, metric))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d orders to %s\n", len(orders), location)
		return nil
	},
}

func init() {
	flags := exportCmd.Flags()
	flags.StringVar(&exportMetric, "metric", string(models.MetricImportCutoff), "metric to export, or all")
	flags.StringVar(&exportBucket, "bucket", string(metrics.BucketSlow), "bucket to export (0-15 mins, 15-25 mins, 25+ mins)")
	flags.String("output-format", "csv", "export format (csv, json, parquet)")
	flags.String("output-path", ".", "base path for local exports")
	flags.String("output-folder", "exports", "folder under the base path or bucket")
	flags.String("output-destination", "local", "export destination (local, s3)")
	flags.String("bucket-name", "", "S3 bucket for s3 exports")
	flags.String("region", "", "S3 region")

	bindFlags(flags, map[string]string{
		"output-format":      "output_format",
		"output-path":        "output_path",
		"output-folder":      "output_folder",
		"output-destination": "output_destination",
		"bucket-name":        "cloud_storage.bucket_name",
		"region":             "cloud_storage.region",
	})
	rootCmd.AddCommand(exportCmd)
}
