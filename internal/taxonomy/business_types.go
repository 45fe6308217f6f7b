package taxonomy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/logging"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/utils"
)

// BusinessTypeRepository persists the flat buyer-segment list.
type BusinessTypeRepository interface {
	ListBusinessTypes(ctx context.Context) ([]models.BusinessType, error)
	GetBusinessType(ctx context.Context, id uuid.UUID) (*models.BusinessType, error)
	CreateBusinessType(ctx context.Context, bt *models.BusinessType) error
	UpdateBusinessType(ctx context.Context, bt *models.BusinessType) error
	DeleteBusinessType(ctx context.Context, id uuid.UUID) error
	CountProductsWithBusinessType(ctx context.Context, slug string) (int64, error)
}

type BusinessTypeInput struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type BusinessTypeService struct {
	repo BusinessTypeRepository
	log  *slog.Logger
}

func NewBusinessTypeService(repo BusinessTypeRepository, log *slog.Logger) *BusinessTypeService {
	return &BusinessTypeService{repo: repo, log: logging.Component(log, "business-types")}
}

func (s *BusinessTypeService) List(ctx context.Context) ([]models.BusinessType, error) {
	items, err := s.repo.ListBusinessTypes(ctx)
	if err != nil {
		return nil, apperr.FromStore(err, "business type")
	}
	return items, nil
}

// Names maps slug to display name.
func (s *BusinessTypeService) Names(ctx context.Context) (map[string]string, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(items))
	for _, bt := range items {
		names[bt.Slug] = bt.Name
	}
	return names, nil
}

func (s *BusinessTypeService) Get(ctx context.Context, id uuid.UUID) (*models.BusinessType, error) {
	bt, err := s.repo.GetBusinessType(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "business type")
	}
	return bt, nil
}

func (s *BusinessTypeService) Create(ctx context.Context, in BusinessTypeInput) (*models.BusinessType, error) {
	bt := &models.BusinessType{}
	if err := s.apply(ctx, bt, in); err != nil {
		return nil, err
	}
	if err := s.repo.CreateBusinessType(ctx, bt); err != nil {
		return nil, apperr.FromStore(err, "business type")
	}
	return bt, nil
}

// Update edits a business type. Renaming the slug of a referenced type is refused.
func (s *BusinessTypeService) Update(ctx context.Context, id uuid.UUID, in BusinessTypeInput) (*models.BusinessType, error) {
	bt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldSlug := bt.Slug
	if err := s.apply(ctx, bt, in); err != nil {
		return nil, err
	}
	if bt.Slug != oldSlug {
		refs, err := s.repo.CountProductsWithBusinessType(ctx, oldSlug)
		if err != nil {
			return nil, apperr.FromStore(err, "business type")
		}
		if refs > 0 {
			return nil, apperr.Conflict(apperr.CodeTaxonomyInUse,
				fmt.Sprintf("business type %q is used by %d product(s); its slug cannot change", oldSlug, refs))
		}
	}
	if err := s.repo.UpdateBusinessType(ctx, bt); err != nil {
		return nil, apperr.FromStore(err, "business type")
	}
	return bt, nil
}

func (s *BusinessTypeService) Delete(ctx context.Context, id uuid.UUID) error {
	bt, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	refs, err := s.repo.CountProductsWithBusinessType(ctx, bt.Slug)
	if err != nil {
		return apperr.FromStore(err, "business type")
	}
	if refs > 0 {
		return apperr.Conflict(apperr.CodeTaxonomyInUse,
			fmt.Sprintf("business type %q is used by %d product(s)", bt.Slug, refs))
	}
	if err := s.repo.DeleteBusinessType(ctx, id); err != nil {
		return apperr.FromStore(err, "business type")
	}
	s.log.Info("business type deleted", "slug", bt.Slug)
	return nil
}

func (s *BusinessTypeService) apply(ctx context.Context, bt *models.BusinessType, in BusinessTypeInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return apperr.Validation("name is required")
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = utils.Slugify(name)
	}
	if !utils.ValidSlug(slug) {
		return apperr.Validationf("slug %q must match [a-z0-9-]+", slug)
	}

	existing, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, other := range existing {
		if other.Slug == slug && other.ID != bt.ID {
			return apperr.Conflict(apperr.CodeSlugConflict, fmt.Sprintf("business type slug %q already exists", slug))
		}
	}

	bt.Name = name
	bt.Slug = slug
	bt.Description = strings.TrimSpace(in.Description)
	bt.Image = strings.TrimSpace(in.Image)
	return nil
}
