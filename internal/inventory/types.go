// Package inventory defines the core data model: raw inventory rows, their
// normalized search projections, and the dated snapshot that holds one day's
// working set in memory.
package inventory

import (
	"time"

	"github.com/senirlioglu/Ara/internal/normalize"
)

// Record is one row of the daily inventory table: a (store, product) pair
// with on-hand quantity. Identity is (StoreCode, ProductCode). Immutable
// once loaded.
type Record struct {
	StoreCode    string   `json:"store_code"`
	StoreName    string   `json:"store_name"`
	RegionCode   string   `json:"region_code"`
	DistrictCode string   `json:"district_code"`
	ProductCode  string   `json:"product_code"`
	ProductName  string   `json:"product_name"`
	Attribute    string   `json:"attribute,omitempty"`
	Quantity     int      `json:"quantity"`
	UnitPrice    *float64 `json:"unit_price,omitempty"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// Key returns the record's identity within a snapshot.
func (r Record) Key() string {
	return r.StoreCode + "\x00" + r.ProductCode
}

// NormalizedRecord is a Record plus the four derived matching fields,
// computed once at load time. The derivation is a pure function of the
// source record.
type NormalizedRecord struct {
	Record
	CodeUpper string `json:"-"`
	NameUpper string `json:"-"`
	CodeASCII string `json:"-"`
	NameASCII string `json:"-"`
}

// NewNormalizedRecord derives the matching fields for r.
func NewNormalizedRecord(n *normalize.Normalizer, r Record) NormalizedRecord {
	return NormalizedRecord{
		Record:    r,
		CodeUpper: normalize.Upper(r.ProductCode),
		NameUpper: normalize.Upper(r.ProductName),
		CodeASCII: n.Normalize(r.ProductCode),
		NameASCII: n.Normalize(r.ProductName),
	}
}

// Snapshot is one dated, immutable in-memory copy of the inventory table.
// Once published it is read-only; any number of searches may scan it
// concurrently without locking.
type Snapshot struct {
	Key      string
	Records  []NormalizedRecord
	LoadedAt time.Time
}

// Len returns the number of records in the snapshot.
func (s *Snapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}
