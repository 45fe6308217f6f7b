package models

import (
	"github.com/google/uuid"
)

// TaxonomyKind selects one of the two taxonomy forests.
type TaxonomyKind string

const (
	KindCategory TaxonomyKind = "category"
	KindBrand    TaxonomyKind = "brand"
)

// Level is the depth label of a taxonomy node.
type Level string

const (
	LevelDepartment  Level = "department"
	LevelCategory    Level = "category"
	LevelSubcategory Level = "subcategory"
	LevelType        Level = "type"
)

var (
	categoryLevels = []Level{LevelDepartment, LevelCategory, LevelSubcategory, LevelType}
	brandLevels    = []Level{LevelDepartment, LevelCategory, LevelSubcategory}
)

// Valid reports whether k is a known kind.
func (k TaxonomyKind) Valid() bool {
	return k == KindCategory || k == KindBrand
}

// Levels returns the level order, root first.
func (k TaxonomyKind) Levels() []Level {
	if k == KindBrand {
		return brandLevels
	}
	return categoryLevels
}

// LevelIndex returns the position of l in the kind's level order, or -1.
func (k TaxonomyKind) LevelIndex(l Level) int {
	for i, lv := range k.Levels() {
		if lv == l {
			return i
		}
	}
	return -1
}

// Table is the collection backing the kind.
func (k TaxonomyKind) Table() string {
	if k == KindBrand {
		return "brands"
	}
	return "categories"
}

// TaxonomyNode is the shared shape of categories and brands.
type TaxonomyNode struct {
	BaseModel
	Kind     TaxonomyKind `gorm:"-" json:"kind"`
	Slug     string       `gorm:"uniqueIndex;not null" json:"slug"`
	Name     string       `gorm:"not null" json:"name"`
	Tagline  string       `json:"tagline"`
	Level    Level        `gorm:"index;not null" json:"level"`
	ParentID *uuid.UUID   `gorm:"type:uuid;index" json:"parent_id"`
}

// Category is the migration model for the category forest.
type Category struct {
	TaxonomyNode
}

func (Category) TableName() string { return "categories" }

// Brand is the migration model for the brand forest.
type Brand struct {
	TaxonomyNode
}

func (Brand) TableName() string { return "brands" }

// BusinessType identifies a buyer segment (hotels, cafes, caterers...).
type BusinessType struct {
	BaseModel
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}
