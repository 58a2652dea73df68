package extract

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/boreal-data/seaoflow/internal/model"
)

// batch is the top-level shape of one weekly SEAO file. Releases stay raw so
// each one decodes independently.
type batch struct {
	Releases []json.RawMessage `json:"releases"`
}

// ExtractFile reads one source file and flattens every release in it.
// A release that fails to decode is logged with its ocid (or "?") and
// dropped; the rest of the batch continues. Returns the extracted records
// and the number of releases skipped.
func (e *Extractor) ExtractFile(path string) ([]model.ContractRecord, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("extract: read %s: %w", path, err)
	}

	var b batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, 0, fmt.Errorf("extract: parse %s: %w", path, err)
	}

	records := make([]model.ContractRecord, 0, len(b.Releases))
	skipped := 0
	for _, raw := range b.Releases {
		var rel Release
		if err := json.Unmarshal(raw, &rel); err != nil {
			slog.Warn("skipping malformed release",
				"file", filepath.Base(path),
				"ocid", probeOCID(raw),
				"error", err)
			skipped++
			continue
		}
		records = append(records, e.Extract(rel))
	}
	return records, skipped, nil
}

// probeOCID best-effort extracts the identifier from a release that failed
// full decoding, for the skip log line.
func probeOCID(raw json.RawMessage) string {
	var probe struct {
		OCID string `json:"ocid"`
	}
	if err := json.Unmarshal(raw, &probe); err == nil && probe.OCID != "" {
		return probe.OCID
	}
	return "?"
}
