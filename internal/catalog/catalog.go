// Package catalog resolves and caches the Données Québec resource index.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/boreal-data/seaoflow/internal/fetch"
	"github.com/boreal-data/seaoflow/internal/model"
)

// DefaultIndexURL is the CKAN package_show endpoint for the SEAO dataset.
const DefaultIndexURL = "https://www.donneesquebec.ca/recherche/api/3/action/package_show?id=systeme-electronique-dappel-doffres-seao"

// fallbackYear is assumed when a resource name carries no date token.
const fallbackYear = 2021

// Manager obtains the catalog of downloadable source files, preferring the
// local cache unconditionally. Staleness is the caller's responsibility:
// delete the cache file to force a refresh.
type Manager struct {
	client *fetch.Client
	path   string // local cache file (index.json)
	url    string // remote catalog API
}

// NewManager creates a Manager caching at path. An empty url selects
// DefaultIndexURL.
func NewManager(client *fetch.Client, path, url string) *Manager {
	if url == "" {
		url = DefaultIndexURL
	}
	return &Manager{client: client, path: path, url: url}
}

// Get returns the catalog: from the cache file when present (no network),
// otherwise fetched from the API and persisted. When there is no cache and
// the fetch fails, the pipeline cannot proceed; the error says so plainly.
func (m *Manager) Get(ctx context.Context) (*model.Catalog, error) {
	if cat, err := m.load(); err == nil {
		slog.Info("loaded cached index", "path", m.path, "resources", cat.ResourceCount)
		return cat, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	cat, err := m.fetchRemote(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog: no local index at %s and remote fetch failed: %w", m.path, err)
	}

	if err := m.save(cat); err != nil {
		return nil, err
	}
	slog.Info("fetched index", "resources", cat.ResourceCount)
	return cat, nil
}

func (m *Manager) load() (*model.Catalog, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, err
	}
	var cat model.Catalog
	if err := json.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", m.path, err)
	}
	return &cat, nil
}

func (m *Manager) save(cat *model.Catalog) error {
	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("catalog: encode index: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0o644); err != nil {
		return fmt.Errorf("catalog: write %s: %w", m.path, err)
	}
	return nil
}

// CKAN API response shapes (unexported).

type ckanResponse struct {
	Success bool        `json:"success"`
	Result  ckanPackage `json:"result"`
}

type ckanPackage struct {
	Name      string         `json:"name"`
	Resources []ckanResource `json:"resources"`
}

type ckanResource struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Format       string `json:"format"`
	URL          string `json:"url"`
	Size         int64  `json:"size"`
	Created      string `json:"created"`
	LastModified string `json:"last_modified"`
}

// fetchRemote pulls the CKAN package and keeps only JSON resources whose
// URL actually ends in .json (the dataset also lists XML archives).
func (m *Manager) fetchRemote(ctx context.Context) (*model.Catalog, error) {
	var resp ckanResponse
	if err := m.client.GetJSON(ctx, m.url, &resp); err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("catalog API returned success=false")
	}

	cat := &model.Catalog{
		Dataset:     resp.Result.Name,
		ExtractedAt: time.Now().Format(time.RFC3339),
	}
	for _, r := range resp.Result.Resources {
		if !strings.EqualFold(r.Format, "JSON") || !strings.HasSuffix(r.URL, ".json") {
			continue
		}
		name := r.Name
		if name == "" {
			parts := strings.Split(r.URL, "/")
			name = parts[len(parts)-1]
		}
		cat.Resources = append(cat.Resources, model.SourceResource{
			ID:        r.ID,
			Name:      name,
			Format:    "JSON",
			URL:       r.URL,
			Size:      r.Size,
			SizeHuman: fmt.Sprintf("%.1f Mo", float64(r.Size)/1e6),
			Year:      inferYear(name),
			Created:   r.Created,
			Modified:  r.LastModified,
		})
	}
	cat.ResourceCount = len(cat.Resources)
	return cat, nil
}

// inferYear scans name segments for an 8-digit date-like token (e.g.
// 20240115) and takes its first 4 digits. fallbackYear when none is found.
func inferYear(name string) int {
	for _, part := range strings.Split(strings.ReplaceAll(name, "_", "-"), "-") {
		if len(part) == 8 && isDigits(part) {
			year := 0
			for _, c := range part[:4] {
				year = year*10 + int(c-'0')
			}
			return year
		}
	}
	return fallbackYear
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
