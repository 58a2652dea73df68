package pipeline

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/boreal-data/seaoflow/internal/model"
)

// Stats summarizes a deduplicated record set. Observability only; nothing
// here is persisted.
type Stats struct {
	Unique   int
	Local    int
	Overruns int
	Regions  map[string]int
	Years    map[string]int
}

// Collect computes summary statistics over the final record set.
func Collect(records []model.ContractRecord) Stats {
	s := Stats{
		Regions: make(map[string]int),
		Years:   make(map[string]int),
	}
	for _, r := range records {
		s.Unique++
		s.Regions[r.Region]++
		s.Years[r.Year()]++
		if r.IsLocal {
			s.Local++
		}
		if r.OverrunRate > 0 {
			s.Overruns++
		}
	}
	return s
}

// LocalPercent returns the share of Québec suppliers, 0 on an empty set.
func (s Stats) LocalPercent() float64 {
	if s.Unique == 0 {
		return 0
	}
	return 100 * float64(s.Local) / float64(s.Unique)
}

// TopRegions returns up to n regions by descending count, names as
// tie-break so the output is stable.
func (s Stats) TopRegions(n int) []string {
	names := make([]string, 0, len(s.Regions))
	for name := range s.Regions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if s.Regions[names[i]] != s.Regions[names[j]] {
			return s.Regions[names[i]] > s.Regions[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > n {
		names = names[:n]
	}
	return names
}

// Log writes the batch summary through the given logger.
func (s Stats) Log(log *slog.Logger) {
	log.Info("dataset summary",
		"unique", s.Unique,
		"local_suppliers", s.Local,
		"local_pct", fmt.Sprintf("%.1f", s.LocalPercent()),
		"with_overrun", s.Overruns)
	for _, name := range s.TopRegions(10) {
		log.Info("region", "name", name, "contracts", s.Regions[name])
	}
}
