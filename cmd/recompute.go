package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/solar-crm/internal/service"
)

var (
	recomputeLat     float64
	recomputeLng     float64
	recomputeAddress string
	recomputeWatts   float64
	recomputeHeight  float64
	recomputeWidth   float64
	recomputeModel   string
	recomputeQuality string
	recomputeOutput  string
	recomputeSummary bool
)

var recomputeCmd = &cobra.Command{
	Use:   "recompute",
	Short: "Resize a building's panel configurations for a specific panel",
	Long: `Fetches the building insight for a location and recalculates panel
configurations at 25, 50, 75 and 100 percent of the roof's capacity for the
given panel, allocating each across roof segments by area.

Panel values come from --watts/--height/--width, from a catalog --model, or
both (explicit values win).`,
	Example: `  solar-crm recompute --lat 37.4449 --lng -122.1391 --watts 430 --height 1.73 --width 1.118
  solar-crm recompute --address "1 Main St, Palo Alto, CA" --model rec-alpha-pure-r-430 --summary`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(cfg, nil)
		if err != nil {
			return err
		}

		lat, lng, err := resolveLocation(ctx, env, recomputeLat, recomputeLng, recomputeAddress)
		if err != nil {
			return err
		}

		rc, err := env.Service.Recompute(ctx, service.RecomputeRequest{
			Latitude:           lat,
			Longitude:          lng,
			PanelCapacityWatts: recomputeWatts,
			PanelHeightMeters:  recomputeHeight,
			PanelWidthMeters:   recomputeWidth,
			PanelModel:         recomputeModel,
			RequiredQuality:    recomputeQuality,
		})
		if err != nil {
			return err
		}

		if recomputeSummary {
			return printRecomputeSummary(cmd.OutOrStdout(), rc)
		}
		return writeJSONOutput(cmd.OutOrStdout(), recomputeOutput, rc.Response)
	},
}

func printRecomputeSummary(w io.Writer, rc *service.Recomputation) error {
	res := rc.Sizing
	fmt.Fprintf(w, "Building:    %s\n", rc.Insight.Name)
	fmt.Fprintf(w, "Panel:       %gW, %gm x %gm (%.3f m2)\n",
		res.Panel.CapacityWatts, res.Panel.HeightMeters, res.Panel.WidthMeters, res.PanelAreaMeters2)
	fmt.Fprintf(w, "Max panels:  %d\n", res.MaxPanels)
	fmt.Fprintf(w, "Sun hours:   %.2f per day\n\n", res.PeakSunHoursPerDay)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PANELS\tKWH/YR (DC)\tSEGMENTS\tALLOCATED")
	for _, c := range res.Configs {
		allocated := 0
		for _, s := range c.RoofSegmentSummaries {
			allocated += s.PanelsCount
		}
		fmt.Fprintf(tw, "%d\t%.1f\t%d\t%d\n", c.PanelsCount, c.YearlyEnergyDcKwh, len(c.RoofSegmentSummaries), allocated)
	}
	return tw.Flush()
}

func init() {
	recomputeCmd.Flags().Float64Var(&recomputeLat, "lat", 0, "latitude")
	recomputeCmd.Flags().Float64Var(&recomputeLng, "lng", 0, "longitude")
	recomputeCmd.Flags().StringVar(&recomputeAddress, "address", "", "street address to geocode when --lat/--lng are not given")
	recomputeCmd.Flags().Float64Var(&recomputeWatts, "watts", 0, "panel capacity in watts")
	recomputeCmd.Flags().Float64Var(&recomputeHeight, "height", 0, "panel height in meters")
	recomputeCmd.Flags().Float64Var(&recomputeWidth, "width", 0, "panel width in meters")
	recomputeCmd.Flags().StringVar(&recomputeModel, "model", "", "panel model from the catalog")
	recomputeCmd.Flags().StringVar(&recomputeQuality, "quality", "", "required imagery quality: HIGH, MEDIUM or LOW (default from config)")
	recomputeCmd.Flags().StringVar(&recomputeOutput, "output", "", "write JSON to file (default: stdout)")
	recomputeCmd.Flags().BoolVar(&recomputeSummary, "summary", false, "print a table instead of JSON")
	rootCmd.AddCommand(recomputeCmd)
}
