// Package catalog holds the panel models offered in quotes.
package catalog

import (
	_ "embed"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/solar-crm/internal/sizing"
)

//go:embed panels.yaml
var defaultPanels []byte

// ErrUnknownModel is returned by Lookup for a model not in the catalog.
var ErrUnknownModel = eris.New("catalog: unknown panel model")

// Panel is one catalog entry.
type Panel struct {
	Model         string  `yaml:"model" json:"model"`
	Manufacturer  string  `yaml:"manufacturer" json:"manufacturer"`
	CapacityWatts float64 `yaml:"capacity_watts" json:"capacityWatts"`
	HeightMeters  float64 `yaml:"height_meters" json:"heightMeters"`
	WidthMeters   float64 `yaml:"width_meters" json:"widthMeters"`
}

// Spec returns the sizing spec of the panel.
func (p Panel) Spec() sizing.PanelSpec {
	return sizing.PanelSpec{
		CapacityWatts: p.CapacityWatts,
		HeightMeters:  p.HeightMeters,
		WidthMeters:   p.WidthMeters,
	}
}

// Catalog is an immutable set of panels keyed by lower-cased model name.
type Catalog struct {
	panels []Panel
	byName map[string]Panel
}

// Default returns the built-in catalog.
func Default() (*Catalog, error) {
	return Parse(defaultPanels)
}

// Load reads a catalog from a YAML file. An empty path loads the built-in catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "catalog: read %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte) (*Catalog, error) {
	// The YAML has a top-level "catalog" key
	var wrapper struct {
		Catalog struct {
			Panels []Panel `yaml:"panels"`
		} `yaml:"catalog"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "catalog: parse")
	}

	c := &Catalog{byName: make(map[string]Panel, len(wrapper.Catalog.Panels))}
	for i, p := range wrapper.Catalog.Panels {
		p.Model = strings.TrimSpace(p.Model)
		if p.Model == "" {
			return nil, eris.Errorf("catalog: panel %d has no model", i)
		}
		key := strings.ToLower(p.Model)
		if _, dup := c.byName[key]; dup {
			return nil, eris.Errorf("catalog: duplicate model %q", p.Model)
		}
		if p.CapacityWatts <= 0 {
			return nil, eris.Errorf("catalog: %s: capacity_watts must be positive", p.Model)
		}
		if p.HeightMeters <= 0 || p.WidthMeters <= 0 {
			return nil, eris.Errorf("catalog: %s: height_meters and width_meters must be positive", p.Model)
		}
		c.byName[key] = p
		c.panels = append(c.panels, p)
	}

	sort.Slice(c.panels, func(i, j int) bool {
		if c.panels[i].Manufacturer != c.panels[j].Manufacturer {
			return c.panels[i].Manufacturer < c.panels[j].Manufacturer
		}
		return c.panels[i].Model < c.panels[j].Model
	})
	return c, nil
}

// Panels returns every panel sorted by manufacturer, then model.
func (c *Catalog) Panels() []Panel {
	out := make([]Panel, len(c.panels))
	copy(out, c.panels)
	return out
}

// Len is the number of panels.
func (c *Catalog) Len() int { return len(c.panels) }

// Lookup finds a panel by model name, ignoring case.
func (c *Catalog) Lookup(model string) (Panel, error) {
	p, ok := c.byName[strings.ToLower(strings.TrimSpace(model))]
	if !ok {
		return Panel{}, eris.Wrapf(ErrUnknownModel, "%q", model)
	}
	return p, nil
}
