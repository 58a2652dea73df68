// Package output writes the enriched dataset as fixed-schema CSV files.
package output

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/boreal-data/seaoflow/internal/model"
)

// File names of the consolidated and per-year outputs.
const (
	SingleFileName = "SEAO_ENRICHI.csv"
	yearFilePrefix = "SEAO_ENRICHI_"
)

// Columns is the output schema, in emission order. The reporting surface
// reads these names verbatim; the order and spelling are a stable contract.
var Columns = []string{
	"ocid", "annee", "date", "date_signature", "annee_signature",
	"organisme", "organisme_id", "est_municipal",
	"fournisseur", "fournisseur_id", "neq",
	"code_postal_fournisseur", "ville_fournisseur", "pays_fournisseur",
	"region_admin", "est_quebecois",
	"mode_adjudication", "justification_mode",
	"secteur_unspsc", "secteur_description",
	"secteur_unspsc_parent", "secteur_description_parent",
	"montant_adjuge", "montant_final", "ecart_prix", "taux_depassement",
	"nb_amendments", "titre", "statut",
}

// Row renders one record into the column order above.
func Row(r model.ContractRecord) []string {
	local := "0"
	if r.IsLocal {
		local = "1"
	}
	return []string{
		r.OCID, r.PubYear, r.PubDate, r.SignatureDate, r.SignatureYear,
		r.Buyer, r.BuyerID, r.Municipal,
		r.Supplier, r.SupplierID, r.NEQ,
		r.SupplierPostal, r.SupplierCity, r.SupplierCountry,
		r.Region, local,
		r.ProcurementMode, r.ModeRationale,
		r.SectorCode, r.SectorDesc,
		r.ParentSectorCode, r.ParentSectorDesc,
		amount(r.AwardAmount), amount(r.FinalAmount),
		amount(r.Overrun), amount(r.OverrunRate),
		strconv.Itoa(r.Amendments), r.Title, r.Status,
	}
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteSingle writes all records to one consolidated file at path,
// creating directories and overwriting any existing file.
func WriteSingle(records []model.ContractRecord, path string) error {
	return writeFile(path, records)
}

// WriteByYear writes one file per year bucket (signature year, else
// publication year, else "inconnu") into dir.
func WriteByYear(records []model.ContractRecord, dir string) error {
	byYear := make(map[string][]model.ContractRecord)
	for _, r := range records {
		y := r.Year()
		byYear[y] = append(byYear[y], r)
	}
	for year, recs := range byYear {
		path := filepath.Join(dir, yearFilePrefix+year+".csv")
		if err := writeFile(path, recs); err != nil {
			return err
		}
	}
	return nil
}

// writeFile emits header + rows as UTF-8 with a BOM, which is what the
// downstream spreadsheet-adjacent tooling expects from this dataset.
func writeFile(path string, records []model.ContractRecord) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("output: create %s: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}

	bom := transform.NewWriter(f, unicode.UTF8BOM.NewEncoder())
	w := csv.NewWriter(bom)

	err = w.Write(Columns)
	for _, r := range records {
		if err != nil {
			break
		}
		err = w.Write(Row(r))
	}
	if err == nil {
		w.Flush()
		err = w.Error()
	}
	if cerr := bom.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("output: write %s: %w", path, err)
	}

	slog.Info("wrote output", "path", path, "rows", len(records))
	return nil
}
