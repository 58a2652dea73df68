package region

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

// fsaYAML is the built-in reference table: administrative region → FSAs
// (forward sortation areas, the first three characters of a postal code).
// Derived from Postes Canada and MAMH data. Known to be incomplete; lookups
// that miss fall back to the coarse first-letter buckets in region.go.
//
//go:embed fsa.yaml
var fsaYAML []byte

// Table maps a 3-character FSA to an administrative region name.
// Built once at startup and treated as read-only.
type Table map[string]string

// DefaultTable parses the embedded reference data. Each FSA must appear
// under exactly one region.
func DefaultTable() (Table, error) {
	var byRegion map[string][]string
	if err := yaml.Unmarshal(fsaYAML, &byRegion); err != nil {
		return nil, fmt.Errorf("region: parse embedded table: %w", err)
	}

	t := make(Table)
	for region, fsas := range byRegion {
		for _, fsa := range fsas {
			if prev, dup := t[fsa]; dup {
				return nil, fmt.Errorf("region: FSA %s mapped to both %s and %s", fsa, prev, region)
			}
			t[fsa] = region
		}
	}
	return t, nil
}
