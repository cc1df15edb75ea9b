// Package aggregate turns raw matched rows into display-ready product
// groups: grouped by product code in first-seen order, with per-store stock
// detail sorted by quantity and a severity tier attached.
package aggregate

import (
	"sort"

	"github.com/senirlioglu/Ara/internal/inventory"
	"github.com/senirlioglu/Ara/internal/match"
)

// StoreStock is one store's holding of a product.
type StoreStock struct {
	StoreCode    string               `json:"store_code"`
	StoreName    string               `json:"store_name"`
	RegionCode   string               `json:"region_code"`
	DistrictCode string               `json:"district_code"`
	Quantity     int                  `json:"quantity"`
	Level        inventory.StockLevel `json:"level"`
	UnitPrice    *float64             `json:"unit_price,omitempty"`
	Latitude     *float64             `json:"latitude,omitempty"`
	Longitude    *float64             `json:"longitude,omitempty"`
}

// ProductGroup is the aggregation output for one product.
type ProductGroup struct {
	ProductCode     string       `json:"product_code"`
	ProductName     string       `json:"product_name"`
	Attribute       string       `json:"attribute,omitempty"`
	StoresWithStock int          `json:"stores_with_stock"`
	Stores          []StoreStock `json:"stores"`
}

// Group builds product groups from a match result. Group order follows the
// first occurrence of each product in the result: the row order may carry a
// backing-store relevance rank, so an unordered group-by would destroy it.
// Within a group, stores are sorted by descending quantity.
func Group(result *match.Result) []ProductGroup {
	if result == nil || len(result.Rows) == 0 {
		return []ProductGroup{}
	}

	index := make(map[string]int, len(result.Rows))
	groups := make([]ProductGroup, 0)

	for _, row := range result.Rows {
		i, ok := index[row.ProductCode]
		if !ok {
			i = len(groups)
			index[row.ProductCode] = i
			groups = append(groups, ProductGroup{
				ProductCode: row.ProductCode,
				ProductName: row.ProductName,
				Attribute:   row.Attribute,
			})
		}

		g := &groups[i]
		if g.ProductName == "" {
			g.ProductName = row.ProductName
		}
		if g.Attribute == "" {
			g.Attribute = row.Attribute
		}
		if row.Quantity > 0 {
			g.StoresWithStock++
		}
		g.Stores = append(g.Stores, StoreStock{
			StoreCode:    row.StoreCode,
			StoreName:    row.StoreName,
			RegionCode:   row.RegionCode,
			DistrictCode: row.DistrictCode,
			Quantity:     row.Quantity,
			Level:        inventory.ClassifyStock(row.Quantity),
			UnitPrice:    row.UnitPrice,
			Latitude:     row.Latitude,
			Longitude:    row.Longitude,
		})
	}

	for i := range groups {
		stores := groups[i].Stores
		sort.SliceStable(stores, func(a, b int) bool {
			return stores[a].Quantity > stores[b].Quantity
		})
	}

	return groups
}
