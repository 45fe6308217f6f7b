package taxonomy

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/logging"
	"github.com/example/horeca/internal/models"
)

type MockBusinessTypeRepo struct {
	Items []models.BusinessType
	Refs  map[string]int64
}

func (m *MockBusinessTypeRepo) ListBusinessTypes(_ context.Context) ([]models.BusinessType, error) {
	return append([]models.BusinessType(nil), m.Items...), nil
}

func (m *MockBusinessTypeRepo) GetBusinessType(_ context.Context, id uuid.UUID) (*models.BusinessType, error) {
	for _, bt := range m.Items {
		if bt.ID == id {
			cp := bt
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *MockBusinessTypeRepo) CreateBusinessType(_ context.Context, bt *models.BusinessType) error {
	bt.ID = uuid.New()
	m.Items = append(m.Items, *bt)
	return nil
}

func (m *MockBusinessTypeRepo) UpdateBusinessType(_ context.Context, bt *models.BusinessType) error {
	for i := range m.Items {
		if m.Items[i].ID == bt.ID {
			m.Items[i] = *bt
		}
	}
	return nil
}

func (m *MockBusinessTypeRepo) DeleteBusinessType(_ context.Context, id uuid.UUID) error {
	kept := m.Items[:0]
	for _, bt := range m.Items {
		if bt.ID != id {
			kept = append(kept, bt)
		}
	}
	m.Items = kept
	return nil
}

func (m *MockBusinessTypeRepo) CountProductsWithBusinessType(_ context.Context, slug string) (int64, error) {
	return m.Refs[slug], nil
}

func TestBusinessTypeLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := &MockBusinessTypeRepo{Refs: map[string]int64{}}
	svc := NewBusinessTypeService(repo, logging.Discard())

	hotel, err := svc.Create(ctx, BusinessTypeInput{Name: "Hotels & Resorts"})
	require.NoError(t, err)
	assert.Equal(t, "hotels-resorts", hotel.Slug)

	_, err = svc.Create(ctx, BusinessTypeInput{Name: "Hotels Resorts"})
	assert.True(t, apperr.Is(err, apperr.CodeSlugConflict))

	names, err := svc.Names(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"hotels-resorts": "Hotels & Resorts"}, names)

	repo.Refs["hotels-resorts"] = 2
	_, err = svc.Update(ctx, hotel.ID, BusinessTypeInput{Name: "Hotels", Slug: "hotels"})
	assert.True(t, apperr.Is(err, apperr.CodeTaxonomyInUse))

	updated, err := svc.Update(ctx, hotel.ID, BusinessTypeInput{Name: "Hotels", Slug: "hotels-resorts", Description: "Stays"})
	require.NoError(t, err)
	assert.Equal(t, "Stays", updated.Description)

	err = svc.Delete(ctx, hotel.ID)
	assert.True(t, apperr.Is(err, apperr.CodeTaxonomyInUse))

	repo.Refs["hotels-resorts"] = 0
	require.NoError(t, svc.Delete(ctx, hotel.ID))

	_, err = svc.Get(ctx, hotel.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
