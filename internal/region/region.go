// Package region resolves Québec administrative regions from postal codes.
package region

import "strings"

// Region names returned outside of table hits.
const (
	Unknown       = "Inconnue"
	OutOfProvince = "Hors Québec (Canada)"
	International = "International"
)

// Coarse first-letter buckets, used only when an in-province FSA is missing
// from the table. Best-effort fallback, not a precise resolution.
const (
	FallbackMontreal = "Montréal (région)"
	FallbackEast     = "Est du Québec"
	FallbackWest     = "Ouest du Québec"
)

// Locator answers region and locality questions from supplier postal codes.
// All methods are pure; the table is injected and never mutated.
type Locator struct {
	table Table
}

// NewLocator creates a Locator over the given FSA table.
func NewLocator(table Table) *Locator {
	return &Locator{table: table}
}

// RegionFor maps a postal code and country name to an administrative region.
// Codes that do not start with G, H or J resolve to OutOfProvince for
// Canadian suppliers and International otherwise.
func (l *Locator) RegionFor(postal, country string) string {
	pc := normalize(postal)
	if len(pc) < 3 {
		return Unknown
	}

	first := pc[0]
	if first != 'G' && first != 'H' && first != 'J' {
		if isDomesticCountry(country) {
			return OutOfProvince
		}
		return International
	}

	if region, ok := l.table[pc[:3]]; ok {
		return region
	}

	switch first {
	case 'H':
		return FallbackMontreal
	case 'G':
		return FallbackEast
	case 'J':
		return FallbackWest
	}
	return Unknown
}

// IsLocalSupplier reports whether the postal code belongs to a Québec
// supplier (first letter G, H or J), whether or not the FSA is in the table.
func (l *Locator) IsLocalSupplier(postal string) bool {
	pc := normalize(postal)
	if pc == "" {
		return false
	}
	c := pc[0]
	return c == 'G' || c == 'H' || c == 'J'
}

// normalize strips whitespace and uppercases, matching how postal codes are
// keyed in the table.
func normalize(postal string) string {
	pc := strings.ToUpper(strings.TrimSpace(postal))
	return strings.ReplaceAll(pc, " ", "")
}

// isDomesticCountry matches the country values the source data actually
// carries for Canadian addresses.
func isDomesticCountry(country string) bool {
	switch strings.ToUpper(strings.TrimSpace(country)) {
	case "CA", "CAN", "CANADA":
		return true
	}
	return false
}
