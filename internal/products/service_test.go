package products

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/cache"
	"github.com/example/horeca/internal/logging"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/tags"
)

// --- Mock Repository ---

type MockProductRepo struct {
	mu       sync.Mutex
	Products map[uuid.UUID]models.Product
	clock    time.Time
}

func newMockRepo() *MockProductRepo {
	return &MockProductRepo{
		Products: map[uuid.UUID]models.Product{},
		clock:    time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *MockProductRepo) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *MockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (m *MockProductRepo) GetBySlug(_ context.Context, slug string) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Products {
		if p.Slug == slug {
			cp := p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockProductRepo) SlugTaken(_ context.Context, slug string, except uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.Products {
		if p.Slug == slug && p.ID != except {
			return true, nil
		}
	}
	return false, nil
}

func (m *MockProductRepo) ExistingIDs(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []uuid.UUID
	for _, id := range ids {
		if _, ok := m.Products[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *MockProductRepo) Create(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = m.tick()
	p.UpdatedAt = p.CreatedAt
	m.Products[p.ID] = *p
	return nil
}

func (m *MockProductRepo) Update(_ context.Context, p *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.UpdatedAt = m.tick()
	m.Products[p.ID] = *p
	return nil
}

func (m *MockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Products, id)
	for k, p := range m.Products {
		kept := pq.StringArray{}
		for _, r := range p.RelatedProductIDs {
			if r != id.String() {
				kept = append(kept, r)
			}
		}
		p.RelatedProductIDs = kept
		m.Products[k] = p
	}
	return nil
}

func (m *MockProductRepo) UpdateFlags(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.Products[id]
	if v, ok := fields["featured"].(bool); ok {
		p.Featured = v
	}
	if v, ok := fields["premium"].(bool); ok {
		p.Premium = v
	}
	if v, ok := fields["status"].(models.ProductStatus); ok {
		p.Status = v
	}
	m.Products[id] = p
	return nil
}

type stubTaxonomy map[uuid.UUID]models.TaxonomyKind

func (s stubTaxonomy) Exists(_ context.Context, kind models.TaxonomyKind, ids ...uuid.UUID) error {
	for _, id := range ids {
		if s[id] != kind {
			return apperr.Validationf("unknown %s %s", kind, id)
		}
	}
	return nil
}

type stubNames map[string]string

func (s stubNames) Names(context.Context) (map[string]string, error) { return s, nil }

type stubTagger struct{}

func (stubTagger) Sources(context.Context) (tags.Sources, error) { return tags.Sources{}, nil }

// --- Helpers ---

type env struct {
	svc      *Service
	repo     *MockProductRepo
	cache    *cache.Memory
	category uuid.UUID
	brand    uuid.UUID
}

func newEnv() env {
	cat, brand := uuid.New(), uuid.New()
	repo := newMockRepo()
	store := cache.NewMemory()
	svc := NewService(repo,
		stubTaxonomy{cat: models.KindCategory, brand: models.KindBrand},
		stubNames{"hotels": "Hotels"},
		stubTagger{}, store, logging.Discard())
	return env{svc: svc, repo: repo, cache: store, category: cat, brand: brand}
}

func validInput() Input {
	price := int64(2500)
	return Input{
		Title:     "Brass Biryani Handi",
		Brand:     "Regal",
		SKU:       "RB-30",
		Price:     &price,
		HeroImage: "/uploads/handi.jpg",
		Filters:   json.RawMessage(`{"Size": ["30cm"], "Material": ["Brass"]}`),
		ColorVariants: []models.ColorVariant{
			{ColorName: "Gold", ColorHex: "#D4AF37", IsDefault: true},
			{ColorName: "Silver", ColorHex: "#C0C0C0", IsDefault: true},
		},
	}
}

// --- Tests ---

func TestCreateDerivesSlugTagsAndDefaults(t *testing.T) {
	e := newEnv()
	in := validInput()
	in.CategoryID = &e.category
	in.BrandCategoryID = &e.brand
	in.BusinessTypeSlugs = []string{"hotels", "hotels"}

	p, err := e.svc.Create(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "brass-biryani-handi", p.Slug)
	assert.Equal(t, models.StatusInStock, p.Status)
	assert.Equal(t, []string{"hotels"}, []string(p.BusinessTypeSlugs))
	assert.Equal(t, []models.Filter{{Key: "Material", Values: []string{"Brass"}}, {Key: "Size", Values: []string{"30cm"}}}, []models.Filter(p.Filters))
	assert.True(t, p.ColorVariants[0].IsDefault)
	assert.False(t, p.ColorVariants[1].IsDefault)
	assert.Contains(t, p.Tags, "brass")
	assert.Contains(t, p.Tags, "size-30cm")
	assert.Contains(t, p.Tags, "rb-30")
}

func TestCreateValidation(t *testing.T) {
	e := newEnv()
	negative := int64(-1)
	existing, err := e.svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	testCases := []struct {
		name   string
		mutate func(*Input)
		code   apperr.Code
	}{
		{"title required", func(in *Input) { in.Title = "  " }, apperr.CodeInvalidInput},
		{"hero image required", func(in *Input) { in.HeroImage = "" }, apperr.CodeInvalidInput},
		{"negative price", func(in *Input) { in.Price = &negative }, apperr.CodeInvalidInput},
		{"bad status", func(in *Input) { in.Status = "sold" }, apperr.CodeInvalidInput},
		{"bad slug", func(in *Input) { in.Slug = "Brass Handi" }, apperr.CodeInvalidInput},
		{"slug taken", func(in *Input) { in.Slug = existing.Slug }, apperr.CodeSlugConflict},
		{"unknown category", func(in *Input) { id := uuid.New(); in.CategoryID = &id }, apperr.CodeInvalidInput},
		{"brand id used as category", func(in *Input) { in.CategoryID = &e.brand }, apperr.CodeInvalidInput},
		{"malformed additional id", func(in *Input) { in.AdditionalCategoryIDs = []string{"nope"} }, apperr.CodeInvalidInput},
		{"unknown business type", func(in *Input) { in.BusinessTypeSlugs = []string{"spas"} }, apperr.CodeInvalidInput},
		{"unknown related", func(in *Input) { in.RelatedProductIDs = []string{uuid.NewString()} }, apperr.CodeInvalidInput},
		{"bad filters", func(in *Input) { in.Filters = json.RawMessage(`"size"`) }, apperr.CodeInvalidInput},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			in := validInput()
			in.Slug = "fresh-slug"
			tc.mutate(&in)
			_, err := e.svc.Create(context.Background(), in)
			require.Error(t, err)
			assert.True(t, apperr.Is(err, tc.code), err.Error())
		})
	}
}

func TestUpdateRejectsSelfReference(t *testing.T) {
	e := newEnv()
	p, err := e.svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	in := FromProduct(p)
	in.RelatedProductIDs = []string{p.ID.String()}
	_, err = e.svc.Update(context.Background(), p.ID, in)
	assert.True(t, apperr.Is(err, apperr.CodeInvalidInput))
}

func TestCreateGetUpdateRoundTrip(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	other, err := e.svc.Create(ctx, func() Input { in := validInput(); in.Title = "Copper Kadai"; return in }())
	require.NoError(t, err)

	in := validInput()
	in.CategoryID = &e.category
	in.RelatedProductIDs = []string{other.ID.String()}
	created, err := e.svc.Create(ctx, in)
	require.NoError(t, err)

	first, err := e.svc.GetBySlug(ctx, created.Slug)
	require.NoError(t, err)

	_, err = e.svc.Update(ctx, first.ID, FromProduct(first))
	require.NoError(t, err)

	second, err := e.svc.GetByID(ctx, first.ID)
	require.NoError(t, err)

	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
	second.UpdatedAt = first.UpdatedAt
	assert.Equal(t, first, second)
}

func TestDeleteCleansRelatedLists(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	a, err := e.svc.Create(ctx, func() Input { in := validInput(); in.Title = "A"; in.Slug = "a"; return in }())
	require.NoError(t, err)
	in := validInput()
	in.RelatedProductIDs = []string{a.ID.String()}
	b, err := e.svc.Create(ctx, in)
	require.NoError(t, err)

	require.NoError(t, e.svc.Delete(ctx, a.ID))

	got, err := e.svc.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RelatedProductIDs)

	err = e.svc.Delete(ctx, a.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestReadFiltersDanglingAndDuplicateDefaults(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	p, err := e.svc.Create(ctx, validInput())
	require.NoError(t, err)

	stored := e.repo.Products[p.ID]
	stored.RelatedProductIDs = pq.StringArray{uuid.NewString(), p.ID.String()}
	stored.ColorVariants[1].IsDefault = true
	e.repo.Products[p.ID] = stored

	got, err := e.svc.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.RelatedProductIDs)
	assert.Equal(t, "Gold", got.DefaultVariant().ColorName)
	assert.False(t, got.ColorVariants[1].IsDefault)
}

func TestManualTagsWin(t *testing.T) {
	e := newEnv()
	in := validInput()
	in.Tags = []string{"Wedding", "Catering", "Serveware"}

	p, err := e.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, []string{"wedding", "catering", "serveware"}, []string(p.Tags))
}

func TestUpdateRegeneratesTags(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	p, err := e.svc.Create(ctx, validInput())
	require.NoError(t, err)
	require.Contains(t, p.Tags, "handi")

	in := FromProduct(p)
	in.Title = "Copper Kadai"
	in.Brand = "Hammerwick"
	in.Tags = append(in.Tags, "Wedding")
	updated, err := e.svc.Update(ctx, p.ID, in)
	require.NoError(t, err)

	assert.Contains(t, updated.Tags, "copper")
	assert.Contains(t, updated.Tags, "kadai")
	assert.Contains(t, updated.Tags, "hammerwick")
	assert.Contains(t, updated.Tags, "wedding")
	assert.NotContains(t, updated.Tags, "handi")
	assert.NotContains(t, updated.Tags, "regal")
	assert.Equal(t, []string{"wedding"}, []string(updated.ManualTags))
}

func TestManualTagsSurviveUpdate(t *testing.T) {
	e := newEnv()
	ctx := context.Background()
	in := validInput()
	in.Tags = []string{"Wedding", "Catering", "Serveware"}
	p, err := e.svc.Create(ctx, in)
	require.NoError(t, err)

	next := FromProduct(p)
	next.Title = "Copper Kadai"
	updated, err := e.svc.Update(ctx, p.ID, next)
	require.NoError(t, err)
	assert.Equal(t, []string{"wedding", "catering", "serveware"}, []string(updated.Tags))

	next = FromProduct(updated)
	next.Tags = nil
	updated, err = e.svc.Update(ctx, p.ID, next)
	require.NoError(t, err)
	assert.Equal(t, []string{"wedding", "catering", "serveware"}, []string(updated.Tags))
}

func TestBulkOperations(t *testing.T) {
	e := newEnv()
	ctx := context.Background()

	var ids []uuid.UUID
	for _, slug := range []string{"one", "two", "three"} {
		in := validInput()
		in.Slug = slug
		p, err := e.svc.Create(ctx, in)
		require.NoError(t, err)
		ids = append(ids, p.ID)
	}
	missing := uuid.New()
	require.NoError(t, e.cache.Set(ctx, cache.KeyAdminStats, 1, time.Minute))

	featured := true
	results, err := e.svc.BulkUpdate(ctx, append(ids, missing), Patch{Featured: &featured})
	require.NoError(t, err)
	require.Len(t, results, 4)
	for i := 0; i < 3; i++ {
		assert.True(t, results[i].Success)
		assert.True(t, e.repo.Products[ids[i]].Featured)
	}
	assert.False(t, results[3].Success)
	assert.Equal(t, apperr.CodeNotFound, results[3].Code)

	var v int
	found, _ := e.cache.Get(ctx, cache.KeyAdminStats, &v)
	assert.False(t, found)

	_, err = e.svc.BulkUpdate(ctx, ids, Patch{})
	assert.True(t, apperr.Is(err, apperr.CodeInvalidInput))

	results, err = e.svc.BulkDelete(ctx, []uuid.UUID{ids[0], missing})
	require.NoError(t, err)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)
	assert.Len(t, e.repo.Products, 2)
}

func TestDraftKeepsExistingID(t *testing.T) {
	e := newEnv()
	p, err := e.svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	in := FromProduct(p)
	in.Slug = ""
	in.Title = "Hammered Brass Handi"
	draft, err := e.svc.Draft(in)
	require.NoError(t, err)
	assert.Equal(t, p.ID, draft.ID)
	assert.Equal(t, "hammered-brass-handi", draft.Slug)

	in.ID = nil
	draft, err = e.svc.Draft(in)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, draft.ID)
}
