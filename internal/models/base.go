package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel carries the id and timestamps shared by catalog and enquiry rows.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EnsureID assigns a random id when none is set and returns it.
func EnsureID(id *uuid.UUID) uuid.UUID {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	return *id
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	EnsureID(&b.ID)
	return nil
}
