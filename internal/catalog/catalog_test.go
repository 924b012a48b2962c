package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	assert.Equal(t, 6, c.Len())

	p, err := c.Lookup("GOOGLE-REFERENCE-400")
	require.NoError(t, err)
	assert.InDelta(t, 400.0, p.CapacityWatts, 1e-9)
	assert.InDelta(t, 1.879, p.Spec().HeightMeters, 1e-9)
	assert.InDelta(t, 1.045, p.Spec().WidthMeters, 1e-9)
}

func TestPanelsSorted(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	panels := c.Panels()
	for i := 1; i < len(panels); i++ {
		prev, cur := panels[i-1], panels[i]
		assert.True(t, prev.Manufacturer < cur.Manufacturer ||
			(prev.Manufacturer == cur.Manufacturer && prev.Model <= cur.Model))
	}

	// Callers get a copy.
	panels[0].Model = "mutated"
	assert.NotEqual(t, "mutated", c.Panels()[0].Model)
}

func TestLookupUnknown(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, err = c.Lookup("no-such-panel")
	assert.True(t, errors.Is(err, ErrUnknownModel))
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "panels.yaml")
	doc := `
catalog:
  panels:
    - model: test-500
      manufacturer: Acme
      capacity_watts: 500
      height_meters: 2
      width_meters: 1
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	p, err := c.Lookup("test-500")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, p.Spec().Area(), 1e-9)
}

func TestLoadEmptyPathUsesDefault(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 6, c.Len())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"bad yaml", "catalog: [", "parse"},
		{"no model", "catalog:\n  panels:\n    - capacity_watts: 1\n      height_meters: 1\n      width_meters: 1\n", "no model"},
		{"duplicate", "catalog:\n  panels:\n    - {model: a, capacity_watts: 1, height_meters: 1, width_meters: 1}\n    - {model: A, capacity_watts: 1, height_meters: 1, width_meters: 1}\n", "duplicate"},
		{"zero watts", "catalog:\n  panels:\n    - {model: a, capacity_watts: 0, height_meters: 1, width_meters: 1}\n", "capacity_watts"},
		{"zero width", "catalog:\n  panels:\n    - {model: a, capacity_watts: 1, height_meters: 1, width_meters: 0}\n", "width_meters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
