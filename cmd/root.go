package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/chrisdamba/darkstoremetrics/internal/models"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "darkstoremetrics",
	Short: "Order fulfilment latency metrics for dark stores",
	Long: `darkstoremetrics ingests order lifecycle exports from dark store operations,
derives per-stage latencies and buckets them into 0-15, 15-25 and 25+ minute tiers.
It can serve the metrics over HTTP, print a report, export bucket drill-downs or
generate synthetic lifecycle data.`,
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./darkstoremetrics.yaml)")
	flags.String("source", models.DefaultSourceID, "data source: sheet id, http(s) URL, s3://bucket/key, postgres:// DSN or file path")
	flags.String("source-query", "", "SQL used to read rows from a postgres source")
	flags.Duration("fetch-timeout", models.DefaultFetchTimeout, "timeout for a single source fetch")
	flags.String("timezone", "Local", "IANA zone used to read timestamps and date filters")
	flags.String("store", models.FilterAll, "darkstore filter")
	flags.String("brand", models.FilterAll, "brand filter")
	flags.String("start-date", "", "inclusive start date filter (YYYY-MM-DD)")
	flags.String("end-date", "", "inclusive end date filter (YYYY-MM-DD)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")

	bindFlags(flags, map[string]string{
		"source":        "source_id",
		"source-query":  "source_query",
		"fetch-timeout": "fetch_timeout",
		"timezone":      "timezone",
		"store":         "store",
		"brand":         "brand",
		"start-date":    "start_date",
		"end-date":      "end_date",
		"log-level":     "log_level",
	})
}

// bindFlags binds each named flag to its config key.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for name, key := range keys {
		cobra.CheckErr(viper.BindPFlag(key, flags.Lookup(name)))
	}
}

func loadConfig() (*models.Config, error) {
	cfg, err := models.LoadConfig(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, err
	}
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintln(os.Stderr, "Using config file:", used)
	}
	return cfg, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
