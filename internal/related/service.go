package related

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/logging"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/taxonomy"
)

// ProductSource loads the target product and its candidates.
type ProductSource interface {
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	// Candidates lists products under categoryIDs plus include; nil
	// categoryIDs lists every product.
	Candidates(ctx context.Context, categoryIDs, include []uuid.UUID) ([]models.Product, error)
}

type ForestSource interface {
	Forest(ctx context.Context, kind models.TaxonomyKind) (*taxonomy.Forest, error)
}

const DefaultLimit = 8

type Service struct {
	products ProductSource
	forests  ForestSource
	log      *slog.Logger
}

func NewService(products ProductSource, forests ForestSource, log *slog.Logger) *Service {
	return &Service{products: products, forests: forests, log: logging.Component(log, "related")}
}

// candidates loads the products that can enter the pool of p, or join it as
// manual picks.
func (s *Service) candidates(ctx context.Context, p *models.Product) ([]models.Product, *taxonomy.Forest, error) {
	forest, err := s.forests.Forest(ctx, models.KindCategory)
	if err != nil {
		return nil, nil, err
	}
	all, err := s.products.Candidates(ctx, Scope(p, forest), p.RelatedIDs())
	if err != nil {
		return nil, nil, apperr.FromStore(err, "product")
	}
	return all, forest, nil
}

// ForSlug ranks the related products of the product at slug.
func (s *Service) ForSlug(ctx context.Context, slug string, limit int) ([]Candidate, error) {
	target, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, apperr.FromStore(err, "product")
	}
	all, forest, err := s.candidates(ctx, target)
	if err != nil {
		return nil, err
	}

	ranked := Rank(target, all, forest)
	if limit <= 0 {
		limit = DefaultLimit
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// Suggest runs the admin auto-suggest for a draft product.
func (s *Service) Suggest(ctx context.Context, draft *models.Product) ([]Candidate, error) {
	all, forest, err := s.candidates(ctx, draft)
	if err != nil {
		return nil, err
	}
	out := AutoSuggest(Rank(draft, all, forest))
	s.log.Debug("related suggestions", "slug", draft.Slug, "count", len(out))
	return out, nil
}
