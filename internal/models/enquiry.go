package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

type EnquiryStatus string

const (
	EnquiryNew              EnquiryStatus = "new"
	EnquiryInProgress       EnquiryStatus = "in-progress"
	EnquiryAwaitingCustomer EnquiryStatus = "awaiting-customer"
	EnquiryClosed           EnquiryStatus = "closed"
	EnquirySpam             EnquiryStatus = "spam"
)

// EnquiryStatuses lists every status in workflow order.
var EnquiryStatuses = []EnquiryStatus{
	EnquiryNew, EnquiryInProgress, EnquiryAwaitingCustomer, EnquiryClosed, EnquirySpam,
}

func (s EnquiryStatus) Valid() bool {
	for _, st := range EnquiryStatuses {
		if st == s {
			return true
		}
	}
	return false
}

// Terminal reports whether only an explicit reopen can leave s.
func (s EnquiryStatus) Terminal() bool {
	return s == EnquiryClosed || s == EnquirySpam
}

type EnquiryPriority string

const (
	PriorityLow    EnquiryPriority = "low"
	PriorityNormal EnquiryPriority = "normal"
	PriorityHigh   EnquiryPriority = "high"
)

func (p EnquiryPriority) Valid() bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh
}

type EnquiryType string

const (
	EnquiryOnly            EnquiryType = "enquiry-only"
	EnquiryCartPlusEnquiry EnquiryType = "cart-plus-enquiry"
)

type UserType string

const (
	UserUnknown  UserType = "unknown"
	UserCustomer UserType = "customer"
	UserBusiness UserType = "business"
)

func (u UserType) Valid() bool {
	return u == UserUnknown || u == UserCustomer || u == UserBusiness
}

type Sender string

const (
	SenderAdmin    Sender = "admin"
	SenderCustomer Sender = "customer"
	SenderSystem   Sender = "system"
)

func (s Sender) Valid() bool {
	return s == SenderAdmin || s == SenderCustomer || s == SenderSystem
}

type Channel string

const (
	ChannelWhatsApp     Channel = "whatsapp"
	ChannelEmail        Channel = "email"
	ChannelPhone        Channel = "phone"
	ChannelInternalNote Channel = "internal-note"
	ChannelSystem       Channel = "system"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelWhatsApp, ChannelEmail, ChannelPhone, ChannelInternalNote, ChannelSystem:
		return true
	}
	return false
}

// Enquiry is a storefront request routed to the admin workflow. Contact
// fields are copied from the customer at submission time.
type Enquiry struct {
	BaseModel
	EnquiryNumber string           `gorm:"uniqueIndex;not null" json:"enquiry_id"`
	CustomerID    *uuid.UUID       `gorm:"type:uuid;index" json:"customer_id"`
	Customer      *Customer        `json:"customer,omitempty"`
	Name          string           `json:"name"`
	Email         string           `json:"email"`
	Phone         string           `gorm:"index;not null" json:"phone"`
	Company       string           `json:"company"`
	State         string           `json:"state"`
	Source        string           `json:"source"`
	UserType      UserType         `json:"user_type"`
	Type          EnquiryType      `json:"type"`
	Categories    pq.StringArray   `gorm:"type:text[]" json:"categories"`
	Message       string           `json:"message"`
	Priority      EnquiryPriority  `gorm:"index" json:"priority"`
	Status        EnquiryStatus    `gorm:"index" json:"status"`
	AssignedTo    string           `gorm:"index" json:"assigned_to"`
	Notes         string           `json:"notes"`
	Items         []EnquiryItem    `json:"items,omitempty"`
	Messages      []EnquiryMessage `json:"messages,omitempty"`
}

type EnquiryItem struct {
	BaseModel
	EnquiryID   uuid.UUID  `gorm:"type:uuid;index" json:"enquiry_id"`
	ProductID   *uuid.UUID `gorm:"type:uuid" json:"product_id"`
	ProductName string     `json:"product_name"`
	ColorName   string     `json:"color_name,omitempty"`
	Quantity    int        `json:"quantity"`
	Notes       string     `json:"notes,omitempty"`
}

type EnquiryMessage struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	EnquiryID uuid.UUID `gorm:"type:uuid;index" json:"enquiry_id"`
	Sender    Sender    `json:"sender"`
	Channel   Channel   `json:"channel"`
	Message   string    `json:"message"`
	CreatedBy string    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate assigns the id; log entries have no UpdatedAt column.
func (m *EnquiryMessage) BeforeCreate(tx *gorm.DB) error {
	EnsureID(&m.ID)
	return nil
}
