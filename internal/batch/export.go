package batch

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatXLSX = "xlsx"
)

var (
	sitesHeader = []string{
		"Site ID", "Name", "Address", "Latitude", "Longitude", "Geocoded",
		"Building", "Postal Code", "Imagery Quality", "Building Match", "Distance (m)",
		"Max Panels", "Largest Config Panels", "Largest Config kWh/yr", "Error",
	}
	configsHeader = []string{
		"Site ID", "Building", "Panels", "Yearly Energy DC (kWh)", "Segments Used", "Segment Panels",
	}
)

// FormatFor picks an export format from an explicit name or the output
// path's extension.
func FormatFor(format, path string) (string, error) {
	if format == "" {
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			return FormatXLSX, nil
		}
		return FormatJSON, nil
	}
	switch f := strings.ToLower(format); f {
	case FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", eris.Errorf("batch: unknown export format %q", format)
	}
}

// Export writes report to w.
func Export(w io.Writer, report *Report, format string) error {
	switch format {
	case FormatXLSX:
		return WriteXLSX(w, report)
	case FormatJSON, "":
		return WriteJSON(w, report)
	default:
		return eris.Errorf("batch: unknown export format %q", format)
	}
}

// ExportFile writes report to path.
func ExportFile(path string, report *Report, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "batch: create output")
	}
	if err := Export(f, report, format); err != nil {
		_ = f.Close()
		return err
	}
	return eris.Wrap(f.Close(), "batch: close output")
}

// WriteJSON writes report as indented JSON.
func WriteJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(report), "batch: encode json")
}

// WriteXLSX writes report as a workbook with a Sites sheet and a Configs sheet.
func WriteXLSX(w io.Writer, report *Report) error {
	f := xlsx.NewFile()

	sites, err := f.AddSheet("Sites")
	if err != nil {
		return eris.Wrap(err, "batch: add sites sheet")
	}
	configs, err := f.AddSheet("Configs")
	if err != nil {
		return eris.Wrap(err, "batch: add configs sheet")
	}

	addStrings(sites.AddRow(), sitesHeader...)
	addStrings(configs.AddRow(), configsHeader...)

	for _, o := range report.Outcomes {
		row := sites.AddRow()
		addStrings(row, o.Site.ID, o.Site.Name, o.Site.Address)
		row.AddCell().SetFloat(o.Location.Latitude)
		row.AddCell().SetFloat(o.Location.Longitude)
		row.AddCell().SetBool(o.Geocoded)
		addStrings(row, o.Building, o.PostalCode, o.ImageryQuality)
		if o.Match != nil {
			addStrings(row, o.Match.Class)
			row.AddCell().SetFloat(o.Match.CenterMeters)
		} else {
			addStrings(row, "", "")
		}
		row.AddCell().SetInt(o.MaxPanels)
		if n := len(o.Configs); n > 0 {
			row.AddCell().SetInt(o.Configs[n-1].PanelsCount)
			row.AddCell().SetFloat(o.Configs[n-1].YearlyEnergyDcKwh)
		} else {
			addStrings(row, "", "")
		}
		addStrings(row, o.Error)

		for _, c := range o.Configs {
			cr := configs.AddRow()
			addStrings(cr, o.Site.ID, o.Building)
			cr.AddCell().SetInt(c.PanelsCount)
			cr.AddCell().SetFloat(c.YearlyEnergyDcKwh)
			cr.AddCell().SetInt(c.SegmentsUsed)
			cr.AddCell().SetInt(c.SegmentPanels)
		}
	}

	return eris.Wrap(f.Write(w), "batch: write xlsx")
}

func addStrings(row *xlsx.Row, vals ...string) {
	for _, v := range vals {
		row.AddCell().SetString(v)
	}
}
