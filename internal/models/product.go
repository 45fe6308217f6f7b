package models

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// ProductStatus is the availability state shown on the storefront.
type ProductStatus string

const (
	StatusInStock    ProductStatus = "in-stock"
	StatusOutOfStock ProductStatus = "out-of-stock"
	StatusPreOrder   ProductStatus = "pre-order"
)

// ProductStatuses lists every status in display order.
var ProductStatuses = []ProductStatus{StatusInStock, StatusOutOfStock, StatusPreOrder}

// Valid reports whether s is a known status.
func (s ProductStatus) Valid() bool {
	for _, st := range ProductStatuses {
		if st == s {
			return true
		}
	}
	return false
}

type Product struct {
	BaseModel
	Slug                       string                             `gorm:"uniqueIndex;not null" json:"slug"`
	Title                      string                             `gorm:"not null" json:"title"`
	Brand                      string                             `json:"brand"`
	SKU                        string                             `gorm:"index" json:"sku"`
	Price                      int64                              `json:"price"`
	Summary                    string                             `json:"summary"`
	Description                string                             `json:"description"`
	Status                     ProductStatus                      `gorm:"index" json:"status"`
	Featured                   bool                               `gorm:"index" json:"featured"`
	Premium                    bool                               `json:"premium"`
	HeroImage                  string                             `json:"hero_image"`
	Gallery                    pq.StringArray                     `gorm:"type:text[]" json:"gallery"`
	CategoryID                 *uuid.UUID                         `gorm:"type:uuid;index" json:"category_id"`
	AdditionalCategoryIDs      pq.StringArray                     `gorm:"type:text[]" json:"additional_category_ids"`
	BrandCategoryID            *uuid.UUID                         `gorm:"type:uuid;index" json:"brand_category_id"`
	AdditionalBrandCategoryIDs pq.StringArray                     `gorm:"type:text[]" json:"additional_brand_category_ids"`
	BusinessTypeSlugs          pq.StringArray                     `gorm:"type:text[]" json:"business_type_slugs"`
	Specifications             datatypes.JSONSlice[Specification] `gorm:"type:jsonb" json:"specifications"`
	Filters                    datatypes.JSONSlice[Filter]        `gorm:"type:jsonb" json:"filters"`
	ColorVariants              datatypes.JSONSlice[ColorVariant]  `gorm:"type:jsonb" json:"color_variants"`
	RelatedProductIDs          pq.StringArray                     `gorm:"type:text[]" json:"related_product_ids"`
	Tags                       pq.StringArray                     `gorm:"type:text[]" json:"tags"`
	ManualTags                 pq.StringArray                     `gorm:"type:text[]" json:"manual_tags"`
}

type Specification struct {
	Label string `json:"label"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

type Filter struct {
	Key    string   `json:"key"`
	Values []string `json:"values"`
}

type ColorVariant struct {
	ColorName string   `json:"color_name"`
	ColorHex  string   `json:"color_hex"`
	Images    []string `json:"images,omitempty"`
	IsDefault bool     `json:"is_default"`
}

// PriceOnRequest reports the "0 / null" price sentinel.
func (p *Product) PriceOnRequest() bool {
	return p.Price <= 0
}

// CategoryIDs returns the primary category followed by the additional ones.
func (p *Product) CategoryIDs() []uuid.UUID {
	return collectIDs(p.CategoryID, p.AdditionalCategoryIDs)
}

// BrandCategoryIDs returns the primary brand node followed by the additional ones.
func (p *Product) BrandCategoryIDs() []uuid.UUID {
	return collectIDs(p.BrandCategoryID, p.AdditionalBrandCategoryIDs)
}

// RelatedIDs parses the manual related list, skipping malformed entries.
func (p *Product) RelatedIDs() []uuid.UUID {
	return collectIDs(nil, p.RelatedProductIDs)
}

// FilterValues returns the values stored under key, if any.
func (p *Product) FilterValues(key string) []string {
	for _, f := range p.Filters {
		if f.Key == key {
			return f.Values
		}
	}
	return nil
}

// DefaultVariant returns the default color variant; the first one when none is flagged.
func (p *Product) DefaultVariant() *ColorVariant {
	if len(p.ColorVariants) == 0 {
		return nil
	}
	for i := range p.ColorVariants {
		if p.ColorVariants[i].IsDefault {
			return &p.ColorVariants[i]
		}
	}
	return &p.ColorVariants[0]
}

// NormalizeVariants clears every default flag after the first one and reports
// whether anything had to change.
func (p *Product) NormalizeVariants() bool {
	seen := false
	changed := false
	for i := range p.ColorVariants {
		if !p.ColorVariants[i].IsDefault {
			continue
		}
		if seen {
			p.ColorVariants[i].IsDefault = false
			changed = true
			continue
		}
		seen = true
	}
	return changed
}

// HasVariant reports whether a color variant with the given name exists.
func (p *Product) HasVariant(colorName string) bool {
	for _, v := range p.ColorVariants {
		if v.ColorName == colorName {
			return true
		}
	}
	return false
}

func collectIDs(primary *uuid.UUID, extra []string) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(extra)+1)
	seen := make(map[uuid.UUID]struct{}, len(extra)+1)
	if primary != nil && *primary != uuid.Nil {
		ids = append(ids, *primary)
		seen[*primary] = struct{}{}
	}
	for _, raw := range extra {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

var errFilterShape = errors.New("filters must be a list of {key, values} or an object of arrays")

// ParseFilters decodes product filters from either the list shape
// [{"key": "Size", "values": ["30cm"]}] or the legacy object shape
// {"Size": ["30cm"]}. Legacy keys come out sorted so the result is stable.
func ParseFilters(raw json.RawMessage) ([]Filter, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list []Filter
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var legacy map[string][]string
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, errFilterShape
	}

	keys := make([]string, 0, len(legacy))
	for k := range legacy {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	filters := make([]Filter, 0, len(keys))
	for _, k := range keys {
		filters = append(filters, Filter{Key: k, Values: legacy[k]})
	}
	return filters, nil
}

// EnsureDefaultFilters makes sure the conventional Material and Size keys exist.
func EnsureDefaultFilters(filters []Filter) []Filter {
	for _, key := range []string{"Material", "Size"} {
		found := false
		for _, f := range filters {
			if f.Key == key {
				found = true
				break
			}
		}
		if !found {
			filters = append(filters, Filter{Key: key, Values: []string{}})
		}
	}
	return filters
}
