// Package products owns product writes: validation against the taxonomy,
// tag derivation, variant normalization and related-list hygiene.
package products

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/cache"
	"github.com/example/horeca/internal/logging"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/tags"
	"github.com/example/horeca/internal/utils"
)

// Repository persists products.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	// SlugTaken reports whether another product than except uses slug.
	SlugTaken(ctx context.Context, slug string, except uuid.UUID) (bool, error)
	// ExistingIDs returns the subset of ids that resolve to products.
	ExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	// Delete removes the product and strips its id from every related list.
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateFlags(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
}

// Taxonomy checks node references.
type Taxonomy interface {
	Exists(ctx context.Context, kind models.TaxonomyKind, ids ...uuid.UUID) error
}

// BusinessTypes resolves business-type slugs to names.
type BusinessTypes interface {
	Names(ctx context.Context) (map[string]string, error)
}

// TagSource loads the lookup context of the tag pipeline.
type TagSource interface {
	Sources(ctx context.Context) (tags.Sources, error)
}

type Service struct {
	repo     Repository
	taxonomy Taxonomy
	btypes   BusinessTypes
	tagger   TagSource
	cache    cache.Store
	log      *slog.Logger
}

func NewService(repo Repository, taxonomy Taxonomy, btypes BusinessTypes, tagger TagSource, store cache.Store, log *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		taxonomy: taxonomy,
		btypes:   btypes,
		tagger:   tagger,
		cache:    store,
		log:      logging.Component(log, "products"),
	}
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "product")
	}
	return s.hydrate(ctx, p)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, apperr.FromStore(err, "product")
	}
	return s.hydrate(ctx, p)
}

// hydrate repairs what a read must never expose: several default variants
// and related ids that no longer resolve.
func (s *Service) hydrate(ctx context.Context, p *models.Product) (*models.Product, error) {
	if p.NormalizeVariants() {
		s.log.Error("product has more than one default color variant, first one kept",
			"id", p.ID, "slug", p.Slug, "code", apperr.CodeInternal)
	}

	ids := p.RelatedIDs()
	if len(ids) == 0 {
		p.RelatedProductIDs = []string{}
		return p, nil
	}
	existing, err := s.repo.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, apperr.FromStore(err, "product")
	}
	known := make(map[uuid.UUID]struct{}, len(existing))
	for _, id := range existing {
		known[id] = struct{}{}
	}
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := known[id]; ok && id != p.ID {
			kept = append(kept, id.String())
		}
	}
	p.RelatedProductIDs = kept
	return p, nil
}

// Draft builds an unsaved product from in for tag generation and related
// suggestions. Only the shape is checked. A draft of an existing product
// keeps its id so it never suggests itself.
func (s *Service) Draft(in Input) (*models.Product, error) {
	p := &models.Product{}
	if err := in.toProduct(p); err != nil {
		return nil, err
	}
	if in.ID != nil {
		p.ID = *in.ID
	}
	if p.Slug == "" {
		p.Slug = utils.Slugify(p.Title)
	}
	p.NormalizeVariants()
	return p, nil
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Product, error) {
	p := &models.Product{}
	if err := s.prepare(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.FromStore(err, "product")
	}
	s.changed(ctx)
	s.log.Info("product created", "id", p.ID, "slug", p.Slug, "tags", len(p.Tags))
	return p, nil
}

// Update replaces the writable fields of the product.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in Input) (*models.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "product")
	}
	if err := s.prepare(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, apperr.FromStore(err, "product")
	}
	s.changed(ctx)
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return apperr.FromStore(err, "product")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return apperr.FromStore(err, "product")
	}
	s.changed(ctx)
	s.log.Info("product deleted", "id", id)
	return nil
}

// prepare validates in and fills p: slug, references, variants, tags.
func (s *Service) prepare(ctx context.Context, p *models.Product, in Input) error {
	stored, storedManual := []string(p.Tags), []string(p.ManualTags)
	if in.Tags == nil {
		in.Tags = stored
	}
	if err := in.toProduct(p); err != nil {
		return err
	}

	if p.Title == "" {
		return apperr.Validation("title is required")
	}
	if p.HeroImage == "" {
		return apperr.Validation("hero image is required")
	}
	if p.Price < 0 {
		return apperr.Validation("price must not be negative")
	}
	if !p.Status.Valid() {
		return apperr.Validationf("unknown status %q", p.Status)
	}

	if p.Slug == "" {
		p.Slug = utils.Slugify(p.Title)
	}
	if !utils.ValidSlug(p.Slug) {
		return apperr.Validationf("slug %q must match [a-z0-9-]+", p.Slug)
	}
	taken, err := s.repo.SlugTaken(ctx, p.Slug, p.ID)
	if err != nil {
		return apperr.FromStore(err, "product")
	}
	if taken {
		return apperr.Conflict(apperr.CodeSlugConflict, fmt.Sprintf("product slug %q already exists", p.Slug))
	}

	if err := s.checkReferences(ctx, p); err != nil {
		return err
	}

	if p.NormalizeVariants() {
		s.log.Warn("multiple default color variants submitted, first one kept", "slug", p.Slug)
	}

	src, err := s.tagger.Sources(ctx)
	if err != nil {
		return err
	}
	generated := tags.Build(p, src)
	manual := tags.UserSet(in.Tags, stored, storedManual, generated)
	p.ManualTags = pq.StringArray(manual)
	p.Tags = pq.StringArray(tags.OnSave(manual, generated))
	return nil
}

func (s *Service) checkReferences(ctx context.Context, p *models.Product) error {
	if err := checkIDs(p.AdditionalCategoryIDs, "additional category"); err != nil {
		return err
	}
	if err := checkIDs(p.AdditionalBrandCategoryIDs, "additional brand"); err != nil {
		return err
	}
	if err := checkIDs(p.RelatedProductIDs, "related product"); err != nil {
		return err
	}

	if err := s.taxonomy.Exists(ctx, models.KindCategory, p.CategoryIDs()...); err != nil {
		return err
	}
	if err := s.taxonomy.Exists(ctx, models.KindBrand, p.BrandCategoryIDs()...); err != nil {
		return err
	}

	if len(p.BusinessTypeSlugs) > 0 {
		names, err := s.btypes.Names(ctx)
		if err != nil {
			return err
		}
		for _, slug := range p.BusinessTypeSlugs {
			if _, ok := names[slug]; !ok {
				return apperr.Validationf("unknown business type %q", slug)
			}
		}
	}

	related := p.RelatedIDs()
	for _, id := range related {
		if p.ID != uuid.Nil && id == p.ID {
			return apperr.Validation("a product cannot be related to itself")
		}
	}
	if len(related) > 0 {
		existing, err := s.repo.ExistingIDs(ctx, related)
		if err != nil {
			return apperr.FromStore(err, "product")
		}
		if len(existing) != len(related) {
			return apperr.Validation("related products must exist")
		}
	}
	return nil
}

func checkIDs(raw []string, what string) error {
	for _, v := range raw {
		if _, err := uuid.Parse(v); err != nil {
			return apperr.Validationf("%s id %q is not a valid id", what, v)
		}
	}
	return nil
}

// changed drops aggregates derived from the catalog.
func (s *Service) changed(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cache.KeyAdminStats); err != nil {
		s.log.Warn("stats cache invalidation failed", "error", err)
	}
}
