package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/horeca/internal/models"
)

// TaxonomyRepository stores both forests; the kind picks the table.
type TaxonomyRepository struct {
	db *gorm.DB
}

func NewTaxonomyRepository(db *gorm.DB) *TaxonomyRepository {
	return &TaxonomyRepository{db: db}
}

func (r *TaxonomyRepository) table(ctx context.Context, kind models.TaxonomyKind) *gorm.DB {
	return r.db.WithContext(ctx).Table(kind.Table())
}

func (r *TaxonomyRepository) List(ctx context.Context, kind models.TaxonomyKind) ([]models.TaxonomyNode, error) {
	var nodes []models.TaxonomyNode
	if err := r.table(ctx, kind).Order("created_at asc").Find(&nodes).Error; err != nil {
		return nil, err
	}
	for i := range nodes {
		nodes[i].Kind = kind
	}
	return nodes, nil
}

func (r *TaxonomyRepository) Create(ctx context.Context, kind models.TaxonomyKind, node *models.TaxonomyNode) error {
	return r.table(ctx, kind).Create(node).Error
}

func (r *TaxonomyRepository) Update(ctx context.Context, kind models.TaxonomyKind, node *models.TaxonomyNode) error {
	res := r.table(ctx, kind).Where("id = ?", node.ID).Updates(map[string]interface{}{
		"slug":       node.Slug,
		"name":       node.Name,
		"tagline":    node.Tagline,
		"level":      node.Level,
		"parent_id":  node.ParentID,
		"updated_at": time.Now(),
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *TaxonomyRepository) Delete(ctx context.Context, kind models.TaxonomyKind, id uuid.UUID) error {
	res := r.table(ctx, kind).Where("id = ?", id).Delete(&models.TaxonomyNode{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CountProductReferences counts products using id as primary or additional node.
func (r *TaxonomyRepository) CountProductReferences(ctx context.Context, kind models.TaxonomyKind, id uuid.UUID) (int64, error) {
	primary, additional := "category_id", "additional_category_ids"
	if kind == models.KindBrand {
		primary, additional = "brand_category_id", "additional_brand_category_ids"
	}
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where(primary+" = ? OR ? = ANY("+additional+")", id, id.String()).
		Count(&count).Error
	return count, err
}

// BusinessTypeRepository stores the flat buyer-segment list.
type BusinessTypeRepository struct {
	db *gorm.DB
}

func NewBusinessTypeRepository(db *gorm.DB) *BusinessTypeRepository {
	return &BusinessTypeRepository{db: db}
}

func (r *BusinessTypeRepository) ListBusinessTypes(ctx context.Context) ([]models.BusinessType, error) {
	var items []models.BusinessType
	if err := r.db.WithContext(ctx).Order("name asc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *BusinessTypeRepository) GetBusinessType(ctx context.Context, id uuid.UUID) (*models.BusinessType, error) {
	var bt models.BusinessType
	if err := r.db.WithContext(ctx).First(&bt, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &bt, nil
}

func (r *BusinessTypeRepository) CreateBusinessType(ctx context.Context, bt *models.BusinessType) error {
	return r.db.WithContext(ctx).Create(bt).Error
}

func (r *BusinessTypeRepository) UpdateBusinessType(ctx context.Context, bt *models.BusinessType) error {
	return r.db.WithContext(ctx).Save(bt).Error
}

func (r *BusinessTypeRepository) DeleteBusinessType(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.BusinessType{}, "id = ?", id).Error
}

func (r *BusinessTypeRepository) CountProductsWithBusinessType(ctx context.Context, slug string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Where("? = ANY(business_type_slugs)", slug).
		Count(&count).Error
	return count, err
}
