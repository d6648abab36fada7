package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/chrisdamba/darkstoremetrics/internal/output"
)

var reportJSON bool

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Fetch the dataset once and print the summary and bucket counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		criteria, err := a.criteria()
		if err != nil {
			return err
		}
		ds, err := a.loadOnce(cmd.Context())
		if err != nil {
			return err
		}
		view := ds.View(criteria)

		if reportJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]any{
				"version":  ds.Version,
				"source":   ds.Source,
				"fallback": ds.Fallback,
				"notice":   ds.Notice,
				"summary":  view.Summary,
				"metrics":  view.Metrics,
			})
		}
		return output.WriteReport(os.Stdout, ds, view)
	},
}

func init() {
	reportCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
	rootCmd.AddCommand(reportCmd)
}
