// Package search resolves storefront and admin product searches against the
// taxonomy and hands the filtering, ordering and paging to the store.
package search

import (
	"strings"

	"github.com/google/uuid"

	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/taxonomy"
)

// Result is one page of a search.
type Result struct {
	Items []models.Product `json:"items"`
	Total int64            `json:"total"`
	// Counts holds per-status totals over the filtered set, ignoring the status filter.
	Counts map[models.ProductStatus]int64 `json:"counts"`
}

// Criteria is a Query with its taxonomy slugs resolved to node ids. A nil
// id list means no filter on that taxonomy.
type Criteria struct {
	Query
	CategoryIDs []uuid.UUID
	BrandIDs    []uuid.UUID
}

// Text returns the lowercased, trimmed search text.
func (c Criteria) Text() string {
	return strings.ToLower(strings.TrimSpace(c.Query.Text))
}

// Order returns the sort the store applies. Relevance without text falls
// back to newest first.
func (c Criteria) Order() Sort {
	if c.Sort == "" || (c.Sort == SortRelevance && c.Text() == "") {
		return SortNewest
	}
	return c.Sort
}

// subtree resolves slug to the node and its descendants. ok is false when the
// slug is unknown.
func subtree(f *taxonomy.Forest, slug string) ([]uuid.UUID, bool) {
	if f == nil {
		return nil, false
	}
	node, found := f.BySlug(slug)
	if !found {
		return nil, false
	}
	return append([]uuid.UUID{node.ID}, f.Descendants(node.ID)...), true
}

// PruneRelated drops related ids that no longer resolve to a product.
func PruneRelated(ids []string, known map[string]struct{}) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func emptyCounts() map[models.ProductStatus]int64 {
	counts := make(map[models.ProductStatus]int64, len(models.ProductStatuses))
	for _, st := range models.ProductStatuses {
		counts[st] = 0
	}
	return counts
}
