package search

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/taxonomy"
	"github.com/example/horeca/internal/utils"
)

// ProductFinder runs resolved searches in the store.
type ProductFinder interface {
	// Search returns one page matching every criterion, and the total.
	Search(ctx context.Context, c Criteria) ([]models.Product, int64, error)
	// CountByStatus counts matches per status, ignoring the status criterion.
	CountByStatus(ctx context.Context, c Criteria) (map[models.ProductStatus]int64, error)
	ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type ForestSource interface {
	Forest(ctx context.Context, kind models.TaxonomyKind) (*taxonomy.Forest, error)
}

type Service struct {
	products ProductFinder
	forests  ForestSource
}

func NewService(products ProductFinder, forests ForestSource) *Service {
	return &Service{products: products, forests: forests}
}

func (s *Service) Search(ctx context.Context, q Query) (*Result, error) {
	q.Page = utils.NewPagination(q.Page.Limit, q.Page.Skip)
	c, ok, err := s.resolve(ctx, q)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &Result{Items: []models.Product{}, Counts: emptyCounts()}, nil
	}

	items, total, err := s.products.Search(ctx, c)
	if err != nil {
		return nil, apperr.FromStore(err, "product")
	}
	byStatus, err := s.products.CountByStatus(ctx, c)
	if err != nil {
		return nil, apperr.FromStore(err, "product")
	}
	counts := emptyCounts()
	for st, n := range byStatus {
		counts[st] = n
	}

	if err := s.prune(ctx, items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []models.Product{}
	}
	return &Result{Items: items, Total: total, Counts: counts}, nil
}

// resolve turns category and brand slugs into subtree ids. ok is false when
// a slug is unknown and nothing can match.
func (s *Service) resolve(ctx context.Context, q Query) (Criteria, bool, error) {
	c := Criteria{Query: q}
	if q.Category != "" {
		forest, err := s.forests.Forest(ctx, models.KindCategory)
		if err != nil {
			return c, false, err
		}
		ids, found := subtree(forest, q.Category)
		if !found {
			return c, false, nil
		}
		c.CategoryIDs = ids
	}
	if q.Brand != "" {
		forest, err := s.forests.Forest(ctx, models.KindBrand)
		if err != nil {
			return c, false, err
		}
		ids, found := subtree(forest, q.Brand)
		if !found {
			return c, false, nil
		}
		c.BrandIDs = ids
	}
	return c, true, nil
}

// prune repairs the page in place: dangling related ids and duplicate
// default variants never leave the service.
func (s *Service) prune(ctx context.Context, items []models.Product) error {
	var related []uuid.UUID
	for i := range items {
		related = append(related, items[i].RelatedIDs()...)
	}
	known := map[string]struct{}{}
	if len(related) > 0 {
		existing, err := s.products.ExistingIDs(ctx, related)
		if err != nil {
			return apperr.FromStore(err, "product")
		}
		for _, id := range existing {
			known[id.String()] = struct{}{}
		}
	}
	for i := range items {
		items[i].RelatedProductIDs = PruneRelated(items[i].RelatedProductIDs, known)
		items[i].NormalizeVariants()
	}
	return nil
}
