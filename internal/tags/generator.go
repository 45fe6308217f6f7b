package tags

import (
	"context"
	"log/slog"

	"github.com/example/horeca/internal/logging"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/taxonomy"
)

// ForestSource yields the memoized category and brand forests.
type ForestSource interface {
	Forest(ctx context.Context, kind models.TaxonomyKind) (*taxonomy.Forest, error)
}

// NameSource resolves business-type slugs to display names.
type NameSource interface {
	Names(ctx context.Context) (map[string]string, error)
}

// Generator runs the pipeline against live taxonomy data.
type Generator struct {
	forests ForestSource
	names   NameSource
	log     *slog.Logger
}

func NewGenerator(forests ForestSource, names NameSource, log *slog.Logger) *Generator {
	return &Generator{forests: forests, names: names, log: logging.Component(log, "tags")}
}

// Sources loads the lookup context once so callers can reuse it for many products.
func (g *Generator) Sources(ctx context.Context) (Sources, error) {
	cats, err := g.forests.Forest(ctx, models.KindCategory)
	if err != nil {
		return Sources{}, err
	}
	brands, err := g.forests.Forest(ctx, models.KindBrand)
	if err != nil {
		return Sources{}, err
	}
	names, err := g.names.Names(ctx)
	if err != nil {
		return Sources{}, err
	}
	return Sources{Categories: cats, Brands: brands, BusinessTypes: names}, nil
}

// Generate derives the tags of p.
func (g *Generator) Generate(ctx context.Context, p *models.Product) ([]string, error) {
	src, err := g.Sources(ctx)
	if err != nil {
		return nil, err
	}
	out := Build(p, src)
	g.log.Debug("tags generated", "slug", p.Slug, "count", len(out))
	return out, nil
}

// GenerateManual backs the admin button: the result is always the union of
// the draft's existing tags and the generated ones.
func (g *Generator) GenerateManual(ctx context.Context, p *models.Product) ([]string, error) {
	generated, err := g.Generate(ctx, p)
	if err != nil {
		return nil, err
	}
	return Union(p.Tags, generated), nil
}
