package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/solar-crm/internal/service"
)

var (
	insightLat     float64
	insightLng     float64
	insightAddress string
	insightQuality string
	insightOutput  string
)

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Fetch the Google building insight for a location",
	Example: `  solar-crm insight --lat 37.4449 --lng -122.1391
  solar-crm insight --address "1600 Amphitheatre Pkwy, Mountain View, CA" --output insight.json`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(cfg, nil)
		if err != nil {
			return err
		}

		lat, lng, err := resolveLocation(ctx, env, insightLat, insightLng, insightAddress)
		if err != nil {
			return err
		}

		out, err := env.Service.Insight(ctx, service.InsightRequest{
			Latitude:        lat,
			Longitude:       lng,
			RequiredQuality: insightQuality,
		})
		if err != nil {
			return err
		}
		return writeJSONOutput(cmd.OutOrStdout(), insightOutput, out)
	},
}

func init() {
	insightCmd.Flags().Float64Var(&insightLat, "lat", 0, "latitude")
	insightCmd.Flags().Float64Var(&insightLng, "lng", 0, "longitude")
	insightCmd.Flags().StringVar(&insightAddress, "address", "", "street address to geocode when --lat/--lng are not given")
	insightCmd.Flags().StringVar(&insightQuality, "quality", "", "required imagery quality: HIGH, MEDIUM or LOW (default from config)")
	insightCmd.Flags().StringVar(&insightOutput, "output", "", "write JSON to file (default: stdout)")
	rootCmd.AddCommand(insightCmd)
}
