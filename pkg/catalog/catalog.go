// Package catalog holds the built-in compliance standard catalogs and parses
// uploaded custom standards into normalized control records.
package catalog

import (
	"embed"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/securereq/securereq-engine/pkg/models"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Standard is one built-in compliance standard: its controls plus the map
// from requirement categories to the control-id prefixes that cover them.
type Standard struct {
	Name       string              `yaml:"name"`
	Categories map[string][]string `yaml:"categories"`
	Controls   []models.Control    `yaml:"controls"`
}

// ControlsByPrefix returns the standard's controls whose id starts with prefix.
func (s *Standard) ControlsByPrefix(prefix string) []models.Control {
	var out []models.Control
	for _, c := range s.Controls {
		if strings.HasPrefix(c.ControlID, prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Catalog is the process-wide set of built-in standards. It is loaded once at
// startup and read-only afterwards, so it is safe to share across goroutines.
type Catalog struct {
	standards map[string]*Standard
	names     []string
}

// Load parses the embedded standard data files.
func Load() (*Catalog, error) {
	entries, err := dataFS.ReadDir("data")
	if err != nil {
		return nil, fmt.Errorf("read embedded catalog data: %w", err)
	}

	cat := &Catalog{standards: make(map[string]*Standard, len(entries))}
	for _, entry := range entries {
		raw, err := dataFS.ReadFile("data/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}

		var std Standard
		if err := yaml.Unmarshal(raw, &std); err != nil {
			return nil, fmt.Errorf("parse %s: %w", entry.Name(), err)
		}
		if std.Name == "" {
			return nil, fmt.Errorf("%s: standard has no name", entry.Name())
		}
		cat.standards[std.Name] = &std
		cat.names = append(cat.names, std.Name)
	}

	sort.Strings(cat.names)
	return cat, nil
}

// Names returns the built-in standard names in deterministic order.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Standard returns a built-in standard by name, or nil if unknown.
func (c *Catalog) Standard(name string) *Standard {
	return c.standards[name]
}

// CategoryPrefixes returns the control-id prefixes covering a requirement
// category within a standard. Unknown categories yield nil.
func (c *Catalog) CategoryPrefixes(standard, category string) []string {
	std := c.standards[standard]
	if std == nil {
		return nil
	}
	return std.Categories[category]
}
