// Package catalog holds the fixed vocabularies listings are validated against:
// sale categories, the accepted states, their metro cities and the map center.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"github.com/goccy/go-yaml"
)

//go:embed catalog.yaml
var catalogYAML []byte

// State is an accepted two-letter state and the metro cities inside it.
type State struct {
	Code   string   `yaml:"code" json:"code"`
	Name   string   `yaml:"name" json:"name"`
	Cities []string `yaml:"cities" json:"cities"`
}

// Point is a latitude/longitude pair.
type Point struct {
	Lat float64 `yaml:"lat" json:"lat"`
	Lng float64 `yaml:"lng" json:"lng"`
}

// Catalog is the parsed vocabulary file. It is read-only after Parse.
type Catalog struct {
	Categories []string `yaml:"categories" json:"categories"`
	States     []State  `yaml:"states" json:"states"`
	Center     Point    `yaml:"center" json:"center"`
}

// Parse decodes a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	if len(c.Categories) == 0 {
		return nil, fmt.Errorf("catalog has no categories")
	}
	if len(c.States) == 0 {
		return nil, fmt.Errorf("catalog has no states")
	}
	return &c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded catalog, parsing it on first use.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(catalogYAML)
	})
	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultCatalog
}

// IsCategory reports whether name is one of the sale categories.
func (c *Catalog) IsCategory(name string) bool {
	return slices.Contains(c.Categories, name)
}

// IsState reports whether code is an accepted state code.
func (c *Catalog) IsState(code string) bool {
	return slices.ContainsFunc(c.States, func(s State) bool { return s.Code == code })
}

// StateCodes lists the accepted state codes in catalog order.
func (c *Catalog) StateCodes() []string {
	codes := make([]string, 0, len(c.States))
	for _, s := range c.States {
		codes = append(codes, s.Code)
	}
	return codes
}

// CitiesIn returns the metro cities listed for a state, or nil.
func (c *Catalog) CitiesIn(code string) []string {
	for _, s := range c.States {
		if s.Code == code {
			return s.Cities
		}
	}
	return nil
}
