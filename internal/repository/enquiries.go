package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/horeca/internal/enquiry"
	"github.com/example/horeca/internal/models"
)

type EnquiryRepository struct {
	db *gorm.DB
}

func NewEnquiryRepository(db *gorm.DB) *EnquiryRepository {
	return &EnquiryRepository{db: db}
}

func (r *EnquiryRepository) Create(ctx context.Context, e *models.Enquiry) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "Messages", "Customer").Create(e).Error; err != nil {
			return err
		}
		for i := range e.Items {
			e.Items[i].EnquiryID = e.ID
		}
		if len(e.Items) > 0 {
			if err := tx.Create(&e.Items).Error; err != nil {
				return err
			}
		}
		for i := range e.Messages {
			e.Messages[i].EnquiryID = e.ID
		}
		if len(e.Messages) > 0 {
			return tx.Create(&e.Messages).Error
		}
		return nil
	})
}

func (r *EnquiryRepository) Get(ctx context.Context, id uuid.UUID) (*models.Enquiry, error) {
	var e models.Enquiry
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc")
		}).
		Preload("Customer").
		First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnquiryRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}, entry *models.EnquiryMessage) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Enquiry{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if entry == nil {
			return nil
		}
		entry.EnquiryID = id
		return tx.Create(entry).Error
	})
}

func (r *EnquiryRepository) AppendMessage(ctx context.Context, m *models.EnquiryMessage) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Enquiry{}).Where("id = ?", m.EnquiryID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *EnquiryRepository) List(ctx context.Context, f enquiry.Filter) ([]models.Enquiry, int64, error) {
	query := r.filtered(ctx, f)
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []models.Enquiry
	err := query.Preload("Items").
		Order("created_at desc").
		Limit(f.Page.Limit).
		Offset(f.Page.Skip).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *EnquiryRepository) CountByStatus(ctx context.Context, f enquiry.Filter) (map[models.EnquiryStatus]int64, error) {
	var rows []struct {
		Status models.EnquiryStatus
		Count  int64
	}
	err := r.filtered(ctx, f).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[models.EnquiryStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// filtered applies every filter except status.
func (r *EnquiryRepository) filtered(ctx context.Context, f enquiry.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Enquiry{})
	if f.Priority != "" {
		query = query.Where("priority = ?", f.Priority)
	}
	if f.AssignedTo != "" {
		query = query.Where("assigned_to = ?", f.AssignedTo)
	}
	if f.Category != "" {
		query = query.Where("? = ANY(categories)", f.Category)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := likePattern(s)
		query = query.Where(
			"name ILIKE ? OR email ILIKE ? OR phone ILIKE ? OR message ILIKE ? OR company ILIKE ? OR enquiry_number ILIKE ?",
			like, like, like, like, like, like,
		)
	}
	return query
}

type CustomerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// FindOrCreate keys on email and phone; name and company only fill new rows.
func (r *CustomerRepository) FindOrCreate(ctx context.Context, c *models.Customer) error {
	return r.db.WithContext(ctx).
		Where(models.Customer{Email: c.Email, Phone: c.Phone}).
		Attrs(models.Customer{Name: c.Name, CompanyName: c.CompanyName}).
		FirstOrCreate(c).Error
}
