package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/chrisdamba/darkstoremetrics/internal/factories"
)

var (
	generateRows     int
	generateSeed     int64
	generateDays     int
	generateStores   int
	generateBrands   int
	generateStart    string
	generateDelivery bool
	generateOut      string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a synthetic order lifecycle CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := factories.OrderRowOptions{
			Seed:         generateSeed,
			Stores:       generateStores,
			Brands:       generateBrands,
			Days:         generateDays,
			WithDelivery: generateDelivery,
		}
		if generateStart != "" {
			start, err := time.ParseInLocation("2006-01-02", generateStart, time.Local)
			if err != nil {
				return fmt.Errorf("invalid --start %q: %w", generateStart, err)
			}
			opts.Start = start
		}

		var w io.Writer = cmd.OutOrStdout()
		if generateOut != "" && generateOut != "-" {
			f, err := os.Create(generateOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		bar := progressbar.NewOptions(generateRows,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("generating orders"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
		factory := factories.NewOrderRowFactory(opts)
		if err := factory.Write(w, generateRows, func() { _ = bar.Add(1) }); err != nil {
			return err
		}
		return bar.Finish()
	},
}

func init() {
	flags := generateCmd.Flags()
	flags.IntVar(&generateRows, "rows", 500, "number of orders to generate")
	flags.Int64Var(&generateSeed, "seed", 42, "random seed")
	flags.IntVar(&generateDays, "days", 30, "number of days the orders span")
	flags.IntVar(&generateStores, "stores", 5, "number of darkstores")
	flags.IntVar(&generateBrands, "brands", 7, "number of brands")
	flags.StringVar(&generateStart, "start", "", "first order date (YYYY-MM-DD), default is --days ago")
	flags.BoolVar(&generateDelivery, "delivery", false, "include a Delivered At column")
	flags.StringVarP(&generateOut, "out", "o", "", "output file (default stdout)")
	rootCmd.AddCommand(generateCmd)
}
