package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/search"
	"github.com/example/horeca/internal/stats"
)

const (
	textMatchSQL = "(title ILIKE ? OR brand ILIKE ? OR summary ILIKE ? OR description ILIKE ? " +
		"OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE ?))"
	filterMatchSQL = "EXISTS (SELECT 1 FROM jsonb_array_elements(COALESCE(filters, '[]'::jsonb)) AS f, " +
		"jsonb_array_elements_text(COALESCE(f->'values', '[]'::jsonb)) AS v " +
		"WHERE lower(f->>'key') = ? AND lower(v) = ANY(?::text[]))"
	relevanceSQL = "CASE WHEN title ILIKE ? THEN 0 WHEN ? = ANY(tags) THEN 1 ELSE 2 END, created_at DESC"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps s for a substring ILIKE, escaping its wildcards.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

func idStrings(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

// searchScope applies every criterion except status.
func (r *ProductRepository) searchScope(ctx context.Context, c search.Criteria) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	if c.CategoryIDs != nil {
		query = query.Where("(category_id IN ? OR additional_category_ids && ?::text[])", c.CategoryIDs, idStrings(c.CategoryIDs))
	}
	if c.BrandIDs != nil {
		query = query.Where("(brand_category_id IN ? OR additional_brand_category_ids && ?::text[])", c.BrandIDs, idStrings(c.BrandIDs))
	}
	if text := c.Text(); text != "" {
		like := likePattern(text)
		query = query.Where(textMatchSQL, like, like, like, like, like)
	}
	if c.BusinessType != "" {
		query = query.Where("? = ANY(business_type_slugs)", c.BusinessType)
	}

	keys := make([]string, 0, len(c.Filters))
	for key := range c.Filters {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		values := make(pq.StringArray, 0, len(c.Filters[key]))
		for _, v := range c.Filters[key] {
			values = append(values, strings.ToLower(v))
		}
		query = query.Where(filterMatchSQL, strings.ToLower(key), values)
	}

	if c.PriceMin != nil || c.PriceMax != nil {
		query = query.Where("price > 0")
		if c.PriceMin != nil {
			query = query.Where("price >= ?", *c.PriceMin)
		}
		if c.PriceMax != nil {
			query = query.Where("price <= ?", *c.PriceMax)
		}
	}
	if c.Featured != nil {
		query = query.Where("featured = ?", *c.Featured)
	}
	return query
}

func orderSearch(query *gorm.DB, c search.Criteria) *gorm.DB {
	switch c.Order() {
	case search.SortRelevance:
		text := c.Text()
		return query.Clauses(clause.OrderBy{Expression: clause.Expr{
			SQL:                relevanceSQL,
			Vars:               []interface{}{likePattern(text), text},
			WithoutParentheses: true,
		}})
	case search.SortPriceAsc:
		return query.Order("price <= 0, price ASC, created_at DESC")
	case search.SortPriceDesc:
		return query.Order("price <= 0, price DESC, created_at DESC")
	default:
		return query.Order("created_at DESC")
	}
}

// Search returns one page of products matching c, and the total.
func (r *ProductRepository) Search(ctx context.Context, c search.Criteria) ([]models.Product, int64, error) {
	query := r.searchScope(ctx, c)
	if c.Status != "" {
		query = query.Where("status = ?", c.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Product
	err := orderSearch(query, c).
		Limit(c.Page.Limit).
		Offset(c.Page.Skip).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CountByStatus counts matches of c per status, ignoring c.Status.
func (r *ProductRepository) CountByStatus(ctx context.Context, c search.Criteria) (map[models.ProductStatus]int64, error) {
	var rows []struct {
		Status models.ProductStatus
		Count  int64
	}
	err := r.searchScope(ctx, c).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.ProductStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Candidates lists products filed under one of categoryIDs, plus the products
// in include, newest first. Nil categoryIDs lists the whole catalog.
func (r *ProductRepository) Candidates(ctx context.Context, categoryIDs, include []uuid.UUID) ([]models.Product, error) {
	var products []models.Product
	if err := r.candidates(ctx, categoryIDs, include).Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *ProductRepository) candidates(ctx context.Context, categoryIDs, include []uuid.UUID) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Product{}).Order("created_at DESC")
	if categoryIDs == nil {
		return query
	}
	if len(include) > 0 {
		return query.Where("category_id IN ? OR id IN ?", categoryIDs, include)
	}
	return query.Where("category_id IN ?", categoryIDs)
}

// StatusTotals aggregates the catalog per status for the dashboard.
func (r *ProductRepository) StatusTotals(ctx context.Context) ([]stats.StatusTotal, error) {
	var rows []stats.StatusTotal
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Select("status, COUNT(*) AS count, " +
			"COUNT(*) FILTER (WHERE featured) AS featured, " +
			"COUNT(*) FILTER (WHERE premium) AS premium, " +
			"COUNT(*) FILTER (WHERE price <= 0) AS price_on_request").
		Group("status").
		Scan(&rows).Error
	return rows, err
}

// Recent returns the n newest products.
func (r *ProductRepository) Recent(ctx context.Context, n int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Select("id, slug, title, status, hero_image, created_at").
		Order("created_at DESC").
		Limit(n).
		Find(&products).Error
	return products, err
}
