package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/solar-crm/internal/batch"
)

var (
	batchCSV         string
	batchCharset     string
	batchLimit       int
	batchConcurrency int
	batchOutput      string
	batchFormat      string
	batchWatts       float64
	batchHeight      float64
	batchWidth       float64
	batchModel       string
	batchQuality     string
	batchDryRun      bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Size every site in a CSV",
	Long: `Reads a site CSV with a header naming id, name, address, latitude and
longitude columns. Sites without coordinates are geocoded from their address.
Every site is sized with the same panel; a failed site is reported and the
rest continue.`,
	Example: `  solar-crm batch --csv sites.csv --model rec-alpha-pure-r-430 --output sizing.xlsx
  solar-crm batch --csv sites.csv --watts 400 --height 1.879 --width 1.045 --format json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		sites, err := batch.ReadSites(batchCSV, batchCharset)
		if err != nil {
			return err
		}
		zap.L().Info("parsed csv", zap.Int("sites", len(sites)))

		if batchLimit > 0 && batchLimit < len(sites) {
			sites = sites[:batchLimit]
		}

		if batchDryRun {
			return writeJSONOutput(cmd.OutOrStdout(), "", sites)
		}

		format, err := batch.FormatFor(batchFormat, batchOutput)
		if err != nil {
			return err
		}
		if format == batch.FormatXLSX && batchOutput == "" {
			return eris.New("xlsx output needs --output")
		}

		env, err := initEnv(cfg, nil)
		if err != nil {
			return err
		}

		concurrency := batchConcurrency
		if concurrency <= 0 {
			concurrency = cfg.Batch.Concurrency
		}

		report, err := batch.NewRunner(env.Service, env.Geocoder, concurrency).Run(ctx, sites, batch.Panel{
			Model:           batchModel,
			CapacityWatts:   batchWatts,
			HeightMeters:    batchHeight,
			WidthMeters:     batchWidth,
			RequiredQuality: batchQuality,
		})
		if err != nil {
			return err
		}

		if batchOutput == "" {
			return batch.Export(cmd.OutOrStdout(), report, format)
		}
		if err := batch.ExportFile(batchOutput, report, format); err != nil {
			return err
		}
		zap.L().Info("batch report written", zap.String("path", batchOutput), zap.String("format", format))
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchCSV, "csv", "", "path to site CSV (required)")
	batchCmd.Flags().StringVar(&batchCharset, "charset", "", "CSV character set, e.g. windows-1252 (default: UTF-8/UTF-16 by BOM)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max sites to process (0 = all)")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "max sites to size concurrently (default from config)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "write report to file (default: stdout)")
	batchCmd.Flags().StringVar(&batchFormat, "format", "", "report format: json or xlsx (default from --output extension)")
	batchCmd.Flags().Float64Var(&batchWatts, "watts", 0, "panel capacity in watts")
	batchCmd.Flags().Float64Var(&batchHeight, "height", 0, "panel height in meters")
	batchCmd.Flags().Float64Var(&batchWidth, "width", 0, "panel width in meters")
	batchCmd.Flags().StringVar(&batchModel, "model", "", "panel model from the catalog")
	batchCmd.Flags().StringVar(&batchQuality, "quality", "", "required imagery quality (default from config)")
	batchCmd.Flags().BoolVar(&batchDryRun, "dry-run", false, "parse the CSV and print sites, skip sizing")
	_ = batchCmd.MarkFlagRequired("csv")
	rootCmd.AddCommand(batchCmd)
}
