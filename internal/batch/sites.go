// Package batch sizes solar installations for a list of CRM sites.
package batch

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Site is one row of a site list.
type Site struct {
	ID        string  `json:"id"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// HasCoordinates reports whether the row carried a usable coordinate.
func (s Site) HasCoordinates() bool {
	return s.Latitude != 0 && s.Longitude != 0
}

// ReadSites parses the site CSV at path.
func ReadSites(path, charset string) ([]Site, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open csv")
	}
	defer f.Close() //nolint:errcheck

	return ParseSites(f, charset)
}

// ParseSites reads a CSV with a header row naming some of id, name,
// address, latitude and longitude. Column names are case-insensitive.
// An empty charset accepts UTF-8 with or without a byte order mark, and
// UTF-16 with one.
func ParseSites(r io.Reader, charset string) ([]Site, error) {
	dec, err := decoderFor(charset)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(transform.NewReader(r, dec))
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "batch: read csv")
	}
	if len(records) < 2 {
		return nil, eris.New("batch: csv has no data rows")
	}

	colIdx := make(map[string]int, len(records[0]))
	for i, col := range records[0] {
		colIdx[strings.ToLower(strings.TrimSpace(col))] = i
	}

	_, hasAddr := colIdx["address"]
	_, hasLat := colIdx["latitude"]
	_, hasLng := colIdx["longitude"]
	if !hasAddr && !(hasLat && hasLng) {
		return nil, eris.New("batch: csv needs an address column or latitude and longitude columns")
	}

	var sites []Site
	for n, row := range records[1:] {
		line := n + 2
		if blank(row) {
			continue
		}

		site := Site{
			ID:      getCol(row, colIdx, "id"),
			Name:    getCol(row, colIdx, "name"),
			Address: getCol(row, colIdx, "address"),
		}
		if site.ID == "" {
			site.ID = strconv.Itoa(line - 1)
		}

		if site.Latitude, err = parseCoord(getCol(row, colIdx, "latitude")); err != nil {
			return nil, eris.Wrapf(err, "batch: row %d: latitude", line)
		}
		if site.Longitude, err = parseCoord(getCol(row, colIdx, "longitude")); err != nil {
			return nil, eris.Wrapf(err, "batch: row %d: longitude", line)
		}

		sites = append(sites, site)
	}

	if len(sites) == 0 {
		return nil, eris.New("batch: csv has no data rows")
	}
	return sites, nil
}

func decoderFor(charset string) (transform.Transformer, error) {
	if charset == "" {
		return unicode.BOMOverride(unicode.UTF8.NewDecoder()), nil
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "batch: unsupported charset %q", charset)
	}
	return enc.NewDecoder(), nil
}

func getCol(row []string, colIdx map[string]int, col string) string {
	idx, ok := colIdx[col]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseCoord(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, eris.Errorf("not a number: %q", s)
	}
	return v, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
