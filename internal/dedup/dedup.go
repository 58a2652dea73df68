// Package dedup collapses repeated observations of a contracting process.
package dedup

import "github.com/boreal-data/seaoflow/internal/model"

// Deduplicator keeps one record per ocid across a stream of extracted rows.
// A stored record is replaced only when a newer observation's publication
// date string sorts strictly greater. Relies on ISO-8601 date strings
// comparing correctly as text; the comparison is deliberately literal.
type Deduplicator struct {
	byID  map[string]int // ocid → index into records
	order []string
	recs  []model.ContractRecord
}

// New creates an empty Deduplicator.
func New() *Deduplicator {
	return &Deduplicator{byID: make(map[string]int)}
}

// Add feeds one record. Records with an empty ocid are excluded entirely.
func (d *Deduplicator) Add(rec model.ContractRecord) {
	if rec.OCID == "" {
		return
	}
	if i, seen := d.byID[rec.OCID]; seen {
		if rec.PubDate > d.recs[i].PubDate {
			d.recs[i] = rec
		}
		return
	}
	d.byID[rec.OCID] = len(d.recs)
	d.order = append(d.order, rec.OCID)
	d.recs = append(d.recs, rec)
}

// AddAll feeds a batch of records.
func (d *Deduplicator) AddAll(recs []model.ContractRecord) {
	for _, r := range recs {
		d.Add(r)
	}
}

// Len returns the number of unique contracting processes seen so far.
func (d *Deduplicator) Len() int {
	return len(d.recs)
}

// Records returns the surviving records in first-insertion order.
func (d *Deduplicator) Records() []model.ContractRecord {
	out := make([]model.ContractRecord, len(d.recs))
	copy(out, d.recs)
	return out
}
