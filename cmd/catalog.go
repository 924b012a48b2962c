package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/solar-crm/internal/catalog"
)

var catalogJSON bool

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the panel catalog",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cat, err := loadCatalog(cfg.Catalog)
		if err != nil {
			return err
		}
		if catalogJSON {
			return writeJSONOutput(cmd.OutOrStdout(), "", map[string]any{"panels": cat.Panels()})
		}
		return printCatalog(cmd.OutOrStdout(), cat)
	},
}

func printCatalog(w io.Writer, cat *catalog.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "MODEL\tMANUFACTURER\tWATTS\tHEIGHT (M)\tWIDTH (M)\tAREA (M2)")
	for _, p := range cat.Panels() {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%.3f\t%.3f\t%.3f\n",
			p.Model, p.Manufacturer, p.CapacityWatts, p.HeightMeters, p.WidthMeters, p.Spec().Area())
	}
	return tw.Flush()
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "print JSON instead of a table")
	rootCmd.AddCommand(catalogCmd)
}
