package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/horeca/internal/enquiry"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/search"
	"github.com/example/horeca/internal/stats"
	"github.com/example/horeca/internal/utils"
)

type fakeTaxonomy struct {
	mu    sync.Mutex
	nodes map[models.TaxonomyKind][]models.TaxonomyNode
	refs  map[uuid.UUID]int64
}

func newFakeTaxonomy() *fakeTaxonomy {
	return &fakeTaxonomy{
		nodes: map[models.TaxonomyKind][]models.TaxonomyNode{},
		refs:  map[uuid.UUID]int64{},
	}
}

func (f *fakeTaxonomy) List(_ context.Context, kind models.TaxonomyKind) ([]models.TaxonomyNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.TaxonomyNode(nil), f.nodes[kind]...), nil
}

func (f *fakeTaxonomy) Create(_ context.Context, kind models.TaxonomyKind, n *models.TaxonomyNode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = uuid.New()
	f.nodes[kind] = append(f.nodes[kind], *n)
	return nil
}

func (f *fakeTaxonomy) Update(_ context.Context, kind models.TaxonomyKind, n *models.TaxonomyNode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.nodes[kind] {
		if f.nodes[kind][i].ID == n.ID {
			f.nodes[kind][i] = *n
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeTaxonomy) Delete(_ context.Context, kind models.TaxonomyKind, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.nodes[kind][:0]
	for _, n := range f.nodes[kind] {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	f.nodes[kind] = kept
	return nil
}

func (f *fakeTaxonomy) CountProductReferences(_ context.Context, _ models.TaxonomyKind, id uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refs[id], nil
}

type fakeBusinessTypes struct {
	items []models.BusinessType
}

func (f *fakeBusinessTypes) ListBusinessTypes(context.Context) ([]models.BusinessType, error) {
	return append([]models.BusinessType(nil), f.items...), nil
}

func (f *fakeBusinessTypes) GetBusinessType(_ context.Context, id uuid.UUID) (*models.BusinessType, error) {
	for _, bt := range f.items {
		if bt.ID == id {
			cp := bt
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeBusinessTypes) CreateBusinessType(_ context.Context, bt *models.BusinessType) error {
	bt.ID = uuid.New()
	f.items = append(f.items, *bt)
	return nil
}

func (f *fakeBusinessTypes) UpdateBusinessType(_ context.Context, bt *models.BusinessType) error {
	for i := range f.items {
		if f.items[i].ID == bt.ID {
			f.items[i] = *bt
		}
	}
	return nil
}

func (f *fakeBusinessTypes) DeleteBusinessType(_ context.Context, id uuid.UUID) error {
	kept := f.items[:0]
	for _, bt := range f.items {
		if bt.ID != id {
			kept = append(kept, bt)
		}
	}
	f.items = kept
	return nil
}

func (f *fakeBusinessTypes) CountProductsWithBusinessType(context.Context, string) (int64, error) {
	return 0, nil
}

type fakeProducts struct {
	mu    sync.Mutex
	items map[uuid.UUID]models.Product
	clock time.Time
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{
		items: map[uuid.UUID]models.Product{},
		clock: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
}

// snapshot returns every product, newest first.
func (f *fakeProducts) snapshot() []models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Product, 0, len(f.items))
	for _, p := range f.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Search covers title text and the price sorts, which is all the route tests use.
func (f *fakeProducts) Search(_ context.Context, c search.Criteria) ([]models.Product, int64, error) {
	var matched []models.Product
	for _, p := range f.snapshot() {
		if strings.Contains(strings.ToLower(p.Title), c.Text()) {
			matched = append(matched, p)
		}
	}
	switch c.Order() {
	case search.SortPriceAsc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price < matched[j].Price })
	case search.SortPriceDesc:
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price > matched[j].Price })
	}
	start, end := c.Page.Window(len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (f *fakeProducts) CountByStatus(ctx context.Context, c search.Criteria) (map[models.ProductStatus]int64, error) {
	c.Page = utils.NewPagination(utils.MaxLimit, 0)
	items, _, err := f.Search(ctx, c)
	counts := map[models.ProductStatus]int64{}
	for _, p := range items {
		counts[p.Status]++
	}
	return counts, err
}

func (f *fakeProducts) Candidates(context.Context, []uuid.UUID, []uuid.UUID) ([]models.Product, error) {
	return f.snapshot(), nil
}

func (f *fakeProducts) StatusTotals(context.Context) ([]stats.StatusTotal, error) {
	byStatus := map[models.ProductStatus]*stats.StatusTotal{}
	var out []stats.StatusTotal
	for _, p := range f.snapshot() {
		if byStatus[p.Status] == nil {
			byStatus[p.Status] = &stats.StatusTotal{Status: p.Status}
		}
		byStatus[p.Status].Count++
	}
	for _, row := range byStatus {
		out = append(out, *row)
	}
	return out, nil
}

func (f *fakeProducts) Recent(_ context.Context, n int) ([]models.Product, error) {
	all := f.snapshot()
	if len(all) > n {
		all = all[:n]
	}
	return all, nil
}

func (f *fakeProducts) GetByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &p, nil
}

func (f *fakeProducts) GetBySlug(_ context.Context, slug string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.Slug == slug {
			cp := p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProducts) SlugTaken(_ context.Context, slug string, except uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.Slug == slug && p.ID != except {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProducts) ExistingIDs(_ context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []uuid.UUID
	for _, id := range ids {
		if _, ok := f.items[id]; ok {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *fakeProducts) Create(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Minute)
	p.ID = uuid.New()
	p.CreatedAt, p.UpdatedAt = f.clock, f.clock
	f.items[p.ID] = *p
	return nil
}

func (f *fakeProducts) Update(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[p.ID] = *p
	return nil
}

func (f *fakeProducts) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.items, id)
	return nil
}

func (f *fakeProducts) UpdateFlags(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["featured"].(bool); ok {
		p.Featured = v
	}
	f.items[id] = p
	return nil
}

type fakeEnquiries struct {
	mu    sync.Mutex
	items map[uuid.UUID]*models.Enquiry
}

func newFakeEnquiries() *fakeEnquiries {
	return &fakeEnquiries{items: map[uuid.UUID]*models.Enquiry{}}
}

func (f *fakeEnquiries) Create(_ context.Context, e *models.Enquiry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = uuid.New()
	cp := *e
	f.items[e.ID] = &cp
	return nil
}

func (f *fakeEnquiries) Get(_ context.Context, id uuid.UUID) (*models.Enquiry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	cp.Messages = append([]models.EnquiryMessage(nil), e.Messages...)
	return &cp, nil
}

func (f *fakeEnquiries) Update(_ context.Context, id uuid.UUID, fields map[string]interface{}, entry *models.EnquiryMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.items[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["status"].(models.EnquiryStatus); ok {
		e.Status = v
	}
	if v, ok := fields["assigned_to"].(string); ok {
		e.AssignedTo = v
	}
	if entry != nil {
		e.Messages = append(e.Messages, *entry)
	}
	return nil
}

func (f *fakeEnquiries) AppendMessage(_ context.Context, m *models.EnquiryMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.items[m.EnquiryID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Messages = append(e.Messages, *m)
	return nil
}

func (f *fakeEnquiries) List(_ context.Context, flt enquiry.Filter) ([]models.Enquiry, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Enquiry
	for _, e := range f.items {
		if flt.Status == "" || e.Status == flt.Status {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeEnquiries) CountByStatus(context.Context, enquiry.Filter) (map[models.EnquiryStatus]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[models.EnquiryStatus]int64{}
	for _, e := range f.items {
		counts[e.Status]++
	}
	return counts, nil
}

type fakeCustomers struct{}

func (fakeCustomers) FindOrCreate(_ context.Context, c *models.Customer) error {
	c.ID = uuid.New()
	return nil
}
