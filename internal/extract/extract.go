// Package extract flattens OCDS releases into enriched contract records.
package extract

import (
	"math"

	"github.com/boreal-data/seaoflow/internal/model"
	"github.com/boreal-data/seaoflow/internal/region"
)

// Extractor converts raw releases into flat ContractRecords, deriving the
// supplier region and locality flag through the injected locator.
type Extractor struct {
	locator *region.Locator
}

// New creates an Extractor.
func New(locator *region.Locator) *Extractor {
	return &Extractor{locator: locator}
}

// Extract flattens one release. Missing optional substructures yield empty
// or zero fields, never an error; upstream data quality is too uneven to
// treat absence as failure.
func (e *Extractor) Extract(rel Release) model.ContractRecord {
	// Last-wins party scan: when several parties carry the same role, the
	// last one encountered supplies the fields.
	var buyer, supplier Party
	for _, p := range rel.Parties {
		if p.HasRole("buyer") {
			buyer = p
		}
		if p.HasRole("supplier") {
			supplier = p
		}
	}

	// Sector classification comes from the first tender item only.
	var sector, parent Classification
	if len(rel.Tender.Items) > 0 {
		item := rel.Tender.Items[0]
		sector = item.Classification
		if len(item.AdditionalClassifications) > 0 {
			parent = item.AdditionalClassifications[0]
		}
	}

	var award Award
	if len(rel.Awards) > 0 {
		award = rel.Awards[0]
	}
	var contract Contract
	if len(rel.Contracts) > 0 {
		contract = rel.Contracts[0]
	}

	awardAmount := award.Value.Amount
	finalAmount := contract.Value.Amount

	// Overrun metrics are defined only against a positive award amount.
	var overrun, overrunRate float64
	if awardAmount > 0 {
		overrun = round2(finalAmount - awardAmount)
		overrunRate = round2((finalAmount - awardAmount) / awardAmount * 100)
	}

	municipal := string(buyer.Details.Municipal)
	if municipal == "" {
		municipal = "0"
	}

	status := contract.Status
	if status == "" {
		status = award.Status
	}

	postal := supplier.Address.PostalCode
	country := supplier.Address.CountryName

	return model.ContractRecord{
		OCID:          rel.OCID,
		PubYear:       yearOf(rel.Date),
		PubDate:       rel.Date,
		SignatureDate: contract.DateSigned,
		SignatureYear: yearOf(contract.DateSigned),

		Buyer:     buyer.Name,
		BuyerID:   buyer.ID,
		Municipal: municipal,

		Supplier:        supplier.Name,
		SupplierID:      supplier.ID,
		NEQ:             string(supplier.Details.NEQ),
		SupplierPostal:  postal,
		SupplierCity:    supplier.Address.Locality,
		SupplierCountry: country,

		Region:  e.locator.RegionFor(postal, country),
		IsLocal: e.locator.IsLocalSupplier(postal),

		ProcurementMode: rel.Tender.ProcurementMethodDetails,
		ModeRationale:   rel.Tender.ProcurementMethodRationale,

		SectorCode:       sector.ID,
		SectorDesc:       sector.Description,
		ParentSectorCode: parent.ID,
		ParentSectorDesc: parent.Description,

		AwardAmount: awardAmount,
		FinalAmount: finalAmount,
		Overrun:     overrun,
		OverrunRate: overrunRate,

		Amendments: len(contract.Amendments),
		Title:      rel.Tender.Title,
		Status:     status,
	}
}

// yearOf takes the first 4 characters of a date string, "" when too short.
// Publication and signature years are derived independently; no
// cross-validation.
func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
