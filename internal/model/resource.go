package model

// SourceResource is one downloadable file in the Données Québec catalog.
// Immutable once the catalog is built. JSON keys match the persisted
// index.json produced by earlier runs so existing caches keep loading.
type SourceResource struct {
	ID        string `json:"id"`
	Name      string `json:"nom"`
	Format    string `json:"format"`
	URL       string `json:"url"`
	Size      int64  `json:"taille"`
	SizeHuman string `json:"taille_lisible"`
	Year      int    `json:"annee"`
	Created   string `json:"date_creation"`
	Modified  string `json:"date_modification"`
}

// Catalog is the resolved index of source files, persisted locally so later
// runs skip the catalog API entirely.
type Catalog struct {
	Dataset       string           `json:"dataset"`
	ExtractedAt   string           `json:"date_extraction"`
	ResourceCount int              `json:"nombre_ressources"`
	Resources     []SourceResource `json:"ressources"`
}
