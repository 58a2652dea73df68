package model

// ContractRecord is seaoflow's output type — one contracting process,
// flattened and enriched. Built once by the extractor and never mutated;
// deduplication replaces whole records.
type ContractRecord struct {
	OCID          string // contracting process identifier (primary key)
	PubYear       string // first 4 chars of PubDate, "" if unparsable
	PubDate       string // publication date, ISO-8601 string as published
	SignatureDate string
	SignatureYear string

	Buyer     string
	BuyerID   string
	Municipal string // "1" if the buyer is municipal, "0" otherwise

	Supplier       string
	SupplierID     string
	NEQ            string // Numéro d'entreprise du Québec
	SupplierPostal string
	SupplierCity   string
	SupplierCountry string

	Region  string // administrative region derived from the postal FSA
	IsLocal bool   // supplier postal code starts with G, H or J

	ProcurementMode string
	ModeRationale   string

	SectorCode       string // UNSPSC classification of the first tender item
	SectorDesc       string
	ParentSectorCode string
	ParentSectorDesc string

	AwardAmount float64
	FinalAmount float64
	Overrun     float64 // FinalAmount - AwardAmount when AwardAmount > 0, else 0
	OverrunRate float64 // Overrun / AwardAmount × 100, 2 decimals, else 0

	Amendments int
	Title      string
	Status     string
}

// Year returns the bucket used for per-year partitioning: signature year
// when known, else publication year, else "inconnu".
func (r ContractRecord) Year() string {
	if r.SignatureYear != "" {
		return r.SignatureYear
	}
	if r.PubYear != "" {
		return r.PubYear
	}
	return "inconnu"
}
