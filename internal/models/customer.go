package models

// Customer is the contact record linked to enquiries. Email+phone is the
// find-or-create key.
type Customer struct {
	BaseModel
	Name        string `json:"name"`
	Email       string `gorm:"uniqueIndex:idx_customer_identity" json:"email"`
	Phone       string `gorm:"uniqueIndex:idx_customer_identity;not null" json:"phone"`
	CompanyName string `json:"company_name"`
}
