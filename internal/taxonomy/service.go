package taxonomy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/logging"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/utils"
)

// Repository persists the category and brand forests.
type Repository interface {
	List(ctx context.Context, kind models.TaxonomyKind) ([]models.TaxonomyNode, error)
	Create(ctx context.Context, kind models.TaxonomyKind, node *models.TaxonomyNode) error
	Update(ctx context.Context, kind models.TaxonomyKind, node *models.TaxonomyNode) error
	Delete(ctx context.Context, kind models.TaxonomyKind, id uuid.UUID) error
	// CountProductReferences counts products pointing at id as primary or additional node.
	CountProductReferences(ctx context.Context, kind models.TaxonomyKind, id uuid.UUID) (int64, error)
}

// NodeInput is the writable part of a node.
type NodeInput struct {
	Name     string       `json:"name"`
	Slug     string       `json:"slug"`
	Tagline  string       `json:"tagline"`
	Level    models.Level `json:"level"`
	ParentID *uuid.UUID   `json:"parent_id"`
}

const forestTTL = time.Minute

type cachedForest struct {
	forest   *Forest
	loadedAt time.Time
}

// Service owns taxonomy validation and the memoized forests.
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time

	mu      sync.RWMutex
	forests map[models.TaxonomyKind]cachedForest
}

func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		log:     logging.Component(log, "taxonomy"),
		now:     time.Now,
		forests: make(map[models.TaxonomyKind]cachedForest),
	}
}

// Forest returns the memoized forest for kind, reloading after writes or TTL.
func (s *Service) Forest(ctx context.Context, kind models.TaxonomyKind) (*Forest, error) {
	if !kind.Valid() {
		return nil, apperr.Validationf("unknown taxonomy kind %q", kind)
	}

	s.mu.RLock()
	cached, ok := s.forests[kind]
	s.mu.RUnlock()
	if ok && s.now().Sub(cached.loadedAt) < forestTTL {
		return cached.forest, nil
	}

	nodes, err := s.repo.List(ctx, kind)
	if err != nil {
		return nil, apperr.FromStore(err, string(kind))
	}
	forest := NewForest(kind, nodes, s.log)

	s.mu.Lock()
	s.forests[kind] = cachedForest{forest: forest, loadedAt: s.now()}
	s.mu.Unlock()
	return forest, nil
}

func (s *Service) invalidate(kind models.TaxonomyKind) {
	s.mu.Lock()
	delete(s.forests, kind)
	s.mu.Unlock()
}

func (s *Service) List(ctx context.Context, kind models.TaxonomyKind) ([]models.TaxonomyNode, error) {
	f, err := s.Forest(ctx, kind)
	if err != nil {
		return nil, err
	}
	return f.Nodes(), nil
}

func (s *Service) Tree(ctx context.Context, kind models.TaxonomyKind) ([]*TreeNode, error) {
	f, err := s.Forest(ctx, kind)
	if err != nil {
		return nil, err
	}
	return f.Tree(), nil
}

func (s *Service) Get(ctx context.Context, kind models.TaxonomyKind, id uuid.UUID) (*models.TaxonomyNode, error) {
	f, err := s.Forest(ctx, kind)
	if err != nil {
		return nil, err
	}
	n, ok := f.Node(id)
	if !ok {
		return nil, apperr.NotFound(string(kind))
	}
	return &n, nil
}

func (s *Service) GetBySlug(ctx context.Context, kind models.TaxonomyKind, slug string) (*models.TaxonomyNode, error) {
	f, err := s.Forest(ctx, kind)
	if err != nil {
		return nil, err
	}
	n, ok := f.BySlug(slug)
	if !ok {
		return nil, apperr.NotFound(string(kind))
	}
	return &n, nil
}

// FindByParent lists the children of parentID, or the roots when nil.
func (s *Service) FindByParent(ctx context.Context, kind models.TaxonomyKind, parentID *uuid.UUID) ([]models.TaxonomyNode, error) {
	f, err := s.Forest(ctx, kind)
	if err != nil {
		return nil, err
	}
	key := uuid.Nil
	if parentID != nil {
		if _, ok := f.Node(*parentID); !ok {
			return nil, apperr.NotFound(string(kind))
		}
		key = *parentID
	}
	return f.Children(key), nil
}

// Path returns the root-first chain ending at id.
func (s *Service) Path(ctx context.Context, kind models.TaxonomyKind, id uuid.UUID) ([]models.TaxonomyNode, error) {
	f, err := s.Forest(ctx, kind)
	if err != nil {
		return nil, err
	}
	if _, ok := f.Node(id); !ok {
		return nil, apperr.NotFound(string(kind))
	}
	return f.Path(id), nil
}

func (s *Service) Descendants(ctx context.Context, kind models.TaxonomyKind, id uuid.UUID) ([]uuid.UUID, error) {
	f, err := s.Forest(ctx, kind)
	if err != nil {
		return nil, err
	}
	if _, ok := f.Node(id); !ok {
		return nil, apperr.NotFound(string(kind))
	}
	return f.Descendants(id), nil
}

// Exists reports whether every id is a node of kind.
func (s *Service) Exists(ctx context.Context, kind models.TaxonomyKind, ids ...uuid.UUID) error {
	f, err := s.Forest(ctx, kind)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := f.Node(id); !ok {
			return apperr.Validationf("unknown %s %s", kind, id)
		}
	}
	return nil
}

func (s *Service) Create(ctx context.Context, kind models.TaxonomyKind, in NodeInput) (*models.TaxonomyNode, error) {
	f, err := s.Forest(ctx, kind)
	if err != nil {
		return nil, err
	}

	node := models.TaxonomyNode{Kind: kind}
	if err := s.apply(f, &node, in); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, kind, &node); err != nil {
		return nil, apperr.FromStore(err, string(kind))
	}
	s.invalidate(kind)

	s.log.Info("taxonomy node created", "kind", kind, "id", node.ID, "slug", node.Slug)
	return &node, nil
}

func (s *Service) Update(ctx context.Context, kind models.TaxonomyKind, id uuid.UUID, in NodeInput) (*models.TaxonomyNode, error) {
	f, err := s.Forest(ctx, kind)
	if err != nil {
		return nil, err
	}

	existing, ok := f.Node(id)
	if !ok {
		return nil, apperr.NotFound(string(kind))
	}

	node := existing
	if err := s.apply(f, &node, in); err != nil {
		return nil, err
	}
	if node.Level != existing.Level && len(f.Children(id)) > 0 {
		return nil, apperr.Validation("cannot change the level of a node that has children")
	}

	if err := s.repo.Update(ctx, kind, &node); err != nil {
		return nil, apperr.FromStore(err, string(kind))
	}
	s.invalidate(kind)
	return &node, nil
}

// Delete removes a leaf node that no product references.
func (s *Service) Delete(ctx context.Context, kind models.TaxonomyKind, id uuid.UUID) error {
	f, err := s.Forest(ctx, kind)
	if err != nil {
		return err
	}
	node, ok := f.Node(id)
	if !ok {
		return apperr.NotFound(string(kind))
	}

	if children := f.Children(id); len(children) > 0 {
		return apperr.Conflict(apperr.CodeTaxonomyHasChildren,
			fmt.Sprintf("%s %q has %d child node(s)", kind, node.Name, len(children))).
			WithDetails(map[string]interface{}{"children": len(children)})
	}

	refs, err := s.repo.CountProductReferences(ctx, kind, id)
	if err != nil {
		return apperr.FromStore(err, string(kind))
	}
	if refs > 0 {
		return apperr.Conflict(apperr.CodeTaxonomyInUse,
			fmt.Sprintf("%s %q is used by %d product(s)", kind, node.Name, refs)).
			WithDetails(map[string]interface{}{"products": refs})
	}

	if err := s.repo.Delete(ctx, kind, id); err != nil {
		return apperr.FromStore(err, string(kind))
	}
	s.invalidate(kind)
	s.log.Info("taxonomy node deleted", "kind", kind, "id", id, "slug", node.Slug)
	return nil
}

// apply validates in against the forest and copies it onto node.
func (s *Service) apply(f *Forest, node *models.TaxonomyNode, in NodeInput) error {
	kind := f.Kind()

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
	if other, ok := f.BySlug(slug); ok && other.ID != node.ID {
		return apperr.Conflict(apperr.CodeSlugConflict, fmt.Sprintf("%s slug %q already exists", kind, slug))
	}

	levelIdx := kind.LevelIndex(in.Level)
	if levelIdx < 0 {
		return apperr.Validationf("level %q is not valid for %s", in.Level, kind)
	}

	if levelIdx == 0 {
		if in.ParentID != nil {
			return apperr.Validation("a department cannot have a parent")
		}
	} else {
		if in.ParentID == nil {
			return apperr.Validationf("a %s requires a parent", in.Level)
		}
		if node.ID != uuid.Nil && (*in.ParentID == node.ID || f.IsAncestor(node.ID, *in.ParentID)) {
			return apperr.Conflict(apperr.CodeTaxonomyCycle, "a node cannot be its own ancestor")
		}
		parent, ok := f.Node(*in.ParentID)
		if !ok {
			return apperr.Validationf("parent %s does not exist", *in.ParentID)
		}
		if kind.LevelIndex(parent.Level) != levelIdx-1 {
			return apperr.Validationf("parent of a %s must be a %s, got %s",
				in.Level, kind.Levels()[levelIdx-1], parent.Level)
		}
	}

	node.Kind = kind
	node.Name = name
	node.Slug = slug
	node.Tagline = strings.TrimSpace(in.Tagline)
	node.Level = in.Level
	node.ParentID = in.ParentID
	return nil
}
