package products

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/models"
)

// Input is the writable shape of a product. Filters accept the list shape or
// the legacy object-of-arrays shape. ID only identifies a draft of an existing
// product; writes take the id from the route.
type Input struct {
	ID                         *uuid.UUID             `json:"id,omitempty"`
	Slug                       string                 `json:"slug"`
	Title                      string                 `json:"title"`
	Brand                      string                 `json:"brand"`
	SKU                        string                 `json:"sku"`
	Price                      *int64                 `json:"price"`
	Summary                    string                 `json:"summary"`
	Description                string                 `json:"description"`
	Status                     models.ProductStatus   `json:"status"`
	Featured                   bool                   `json:"featured"`
	Premium                    bool                   `json:"premium"`
	HeroImage                  string                 `json:"hero_image"`
	Gallery                    []string               `json:"gallery"`
	CategoryID                 *uuid.UUID             `json:"category_id"`
	AdditionalCategoryIDs      []string               `json:"additional_category_ids"`
	BrandCategoryID            *uuid.UUID             `json:"brand_category_id"`
	AdditionalBrandCategoryIDs []string               `json:"additional_brand_category_ids"`
	BusinessTypeSlugs          []string               `json:"business_type_slugs"`
	Specifications             []models.Specification `json:"specifications"`
	Filters                    json.RawMessage        `json:"filters"`
	ColorVariants              []models.ColorVariant  `json:"color_variants"`
	RelatedProductIDs          []string               `json:"related_product_ids"`
	Tags                       []string               `json:"tags"`
}

// FromProduct renders p back into an Input, the inverse of toProduct.
func FromProduct(p *models.Product) Input {
	price := p.Price
	filters, _ := json.Marshal([]models.Filter(p.Filters))
	id := p.ID
	return Input{
		ID:                         &id,
		Slug:                       p.Slug,
		Title:                      p.Title,
		Brand:                      p.Brand,
		SKU:                        p.SKU,
		Price:                      &price,
		Summary:                    p.Summary,
		Description:                p.Description,
		Status:                     p.Status,
		Featured:                   p.Featured,
		Premium:                    p.Premium,
		HeroImage:                  p.HeroImage,
		Gallery:                    p.Gallery,
		CategoryID:                 p.CategoryID,
		AdditionalCategoryIDs:      p.AdditionalCategoryIDs,
		BrandCategoryID:            p.BrandCategoryID,
		AdditionalBrandCategoryIDs: p.AdditionalBrandCategoryIDs,
		BusinessTypeSlugs:          p.BusinessTypeSlugs,
		Specifications:             p.Specifications,
		Filters:                    filters,
		ColorVariants:              p.ColorVariants,
		RelatedProductIDs:          p.RelatedProductIDs,
		Tags:                       p.Tags,
	}
}

// toProduct copies the shape of in onto p without checking references.
func (in Input) toProduct(p *models.Product) error {
	filters, err := models.ParseFilters(in.Filters)
	if err != nil {
		return apperr.Validation(err.Error())
	}

	p.Slug = strings.TrimSpace(in.Slug)
	p.Title = strings.TrimSpace(in.Title)
	p.Brand = strings.TrimSpace(in.Brand)
	p.SKU = strings.TrimSpace(in.SKU)
	p.Price = 0
	if in.Price != nil {
		p.Price = *in.Price
	}
	p.Summary = in.Summary
	p.Description = in.Description
	p.Status = in.Status
	if p.Status == "" {
		p.Status = models.StatusInStock
	}
	p.Featured = in.Featured
	p.Premium = in.Premium
	p.HeroImage = strings.TrimSpace(in.HeroImage)
	p.Gallery = pq.StringArray(nonEmpty(in.Gallery))
	p.CategoryID = nilIfZero(in.CategoryID)
	p.AdditionalCategoryIDs = pq.StringArray(nonEmpty(in.AdditionalCategoryIDs))
	p.BrandCategoryID = nilIfZero(in.BrandCategoryID)
	p.AdditionalBrandCategoryIDs = pq.StringArray(nonEmpty(in.AdditionalBrandCategoryIDs))
	p.BusinessTypeSlugs = pq.StringArray(dedupe(nonEmpty(in.BusinessTypeSlugs)))
	p.Specifications = in.Specifications
	p.Filters = models.EnsureDefaultFilters(filters)
	p.ColorVariants = in.ColorVariants
	p.RelatedProductIDs = pq.StringArray(dedupe(nonEmpty(in.RelatedProductIDs)))
	p.Tags = pq.StringArray(in.Tags)
	return nil
}

func nilIfZero(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	v := *id
	return &v
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
