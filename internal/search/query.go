package search

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/utils"
)

type Sort string

const (
	SortRelevance Sort = "relevance"
	SortPriceAsc  Sort = "price-asc"
	SortPriceDesc Sort = "price-desc"
	SortNewest    Sort = "newest"
)

func (s Sort) Valid() bool {
	switch s {
	case SortRelevance, SortPriceAsc, SortPriceDesc, SortNewest:
		return true
	}
	return false
}

// Query is a storefront or admin product search.
type Query struct {
	Text         string
	Category     string
	Brand        string
	BusinessType string
	// Filters maps a filter key to its accepted values: AND across keys, OR within.
	Filters  map[string][]string
	Status   models.ProductStatus
	PriceMin *int64
	PriceMax *int64
	Featured *bool
	Sort     Sort
	Page     utils.Pagination
}

// ParseQuery reads a Query from request parameters. Filters come as
// repeated filter.<Key>=<value> parameters, or comma separated values.
func ParseQuery(c *fiber.Ctx) (Query, error) {
	q := Query{
		Text:         strings.TrimSpace(c.Query("search")),
		Category:     c.Query("category"),
		Brand:        c.Query("brand"),
		BusinessType: c.Query("business_type"),
		Status:       models.ProductStatus(c.Query("status")),
		Sort:         Sort(c.Query("sort", string(SortRelevance))),
		Page:         utils.ParsePagination(c),
	}
	if q.Status != "" && !q.Status.Valid() {
		return q, apperr.Validationf("unknown status %q", q.Status)
	}
	if !q.Sort.Valid() {
		return q, apperr.Validationf("unknown sort %q", q.Sort)
	}

	var err error
	if q.PriceMin, err = optionalInt(c.Query("price_min")); err != nil {
		return q, apperr.Validation("price_min must be an integer")
	}
	if q.PriceMax, err = optionalInt(c.Query("price_max")); err != nil {
		return q, apperr.Validation("price_max must be an integer")
	}
	if raw := c.Query("featured"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return q, apperr.Validation("featured must be true or false")
		}
		q.Featured = &v
	}

	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		if !strings.HasPrefix(k, "filter.") {
			return
		}
		name := strings.TrimPrefix(k, "filter.")
		for _, v := range strings.Split(string(value), ",") {
			if v = strings.TrimSpace(v); v != "" && name != "" {
				if q.Filters == nil {
					q.Filters = map[string][]string{}
				}
				q.Filters[name] = append(q.Filters[name], v)
			}
		}
	})
	return q, nil
}

func optionalInt(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
