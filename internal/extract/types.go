package extract

import (
	"encoding/json"
	"strconv"
)

// Raw OCDS release shapes, limited to the fields the extractor consumes.
// Unknown source fields are ignored by encoding/json.

// Release is one open-contracting disclosure of a contracting process.
type Release struct {
	OCID      string     `json:"ocid"`
	Date      string     `json:"date"`
	Parties   []Party    `json:"parties"`
	Tender    Tender     `json:"tender"`
	Awards    []Award    `json:"awards"`
	Contracts []Contract `json:"contracts"`
}

// Party is a buyer or supplier organization.
type Party struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Roles   []string     `json:"roles"`
	Address Address      `json:"address"`
	Details PartyDetails `json:"details"`
}

// HasRole reports whether the party's role set contains the given role.
func (p Party) HasRole(role string) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Address holds the supplier address fields used for enrichment.
type Address struct {
	PostalCode  string `json:"postalCode"`
	CountryName string `json:"countryName"`
	Locality    string `json:"locality"`
}

// PartyDetails carries SEAO-specific extensions on a party.
type PartyDetails struct {
	Municipal FlexString `json:"municipal"`
	NEQ       FlexString `json:"neq"`
}

// Tender describes the procurement itself.
type Tender struct {
	Title                      string `json:"title"`
	ProcurementMethodDetails   string `json:"procurementMethodDetails"`
	ProcurementMethodRationale string `json:"procurementMethodRationale"`
	Items                      []Item `json:"items"`
}

// Item is one procured line item with its UNSPSC classification.
type Item struct {
	Classification            Classification   `json:"classification"`
	AdditionalClassifications []Classification `json:"additionalClassifications"`
}

// Classification is a UNSPSC code and description pair.
type Classification struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

// Award is one award decision.
type Award struct {
	Date   string `json:"date"`
	Status string `json:"status"`
	Value  Value  `json:"value"`
}

// Contract is one signed contract, with its amendment history.
type Contract struct {
	DateSigned string            `json:"dateSigned"`
	Status     string            `json:"status"`
	Value      Value             `json:"value"`
	Amendments []json.RawMessage `json:"amendments"`
}

// Value is a monetary amount. A null amount decodes to zero.
type Value struct {
	Amount float64 `json:"amount"`
}

// FlexString decodes a JSON string, number, bool or null into a string.
// SEAO batches are inconsistent about the encoding of flag-like fields
// (notably details.municipal), so the extractor tolerates all of them.
type FlexString string

func (f *FlexString) UnmarshalJSON(data []byte) error {
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexString(s)
	case 't':
		*f = "1"
	case 'f':
		*f = "0"
	case 'n':
		*f = ""
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*f = FlexString(strconv.FormatFloat(n, 'f', -1, 64))
	}
	return nil
}
