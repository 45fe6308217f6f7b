// Package enquiry takes storefront enquiries in and runs the admin workflow
// over them.
package enquiry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/cache"
	"github.com/example/horeca/internal/logging"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/utils"
)

// Repository persists enquiries with their items and log.
type Repository interface {
	// Create inserts the enquiry and all of e.Items atomically.
	Create(ctx context.Context, e *models.Enquiry) error
	// Get loads the enquiry with its items, message log and customer.
	Get(ctx context.Context, id uuid.UUID) (*models.Enquiry, error)
	// Update writes fields and, when entry is not nil, appends it in the same transaction.
	Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}, entry *models.EnquiryMessage) error
	AppendMessage(ctx context.Context, m *models.EnquiryMessage) error
	List(ctx context.Context, f Filter) ([]models.Enquiry, int64, error)
	// CountByStatus counts enquiries matching f, ignoring f.Status.
	CountByStatus(ctx context.Context, f Filter) (map[models.EnquiryStatus]int64, error)
}

type CustomerRepository interface {
	// FindOrCreate looks the customer up by email and phone, creating it when
	// missing. c.ID is set on return.
	FindOrCreate(ctx context.Context, c *models.Customer) error
}

type ProductSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Notifier routes new enquiries to the admin channel.
type Notifier interface {
	NotifyEnquiry(ctx context.Context, e *models.Enquiry) error
}

// Filter narrows the admin list.
type Filter struct {
	Status     models.EnquiryStatus
	Priority   models.EnquiryPriority
	AssignedTo string
	Category   string
	Search     string
	Page       utils.Pagination
}

func (f Filter) countsKey() string {
	return fmt.Sprintf("%s%s|%s|%s|%s", cache.KeyEnquiryCounts, f.Priority, f.AssignedTo, f.Category, strings.ToLower(f.Search))
}

type LineInput struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	ColorName   string `json:"color_name"`
	Quantity    int    `json:"quantity"`
	Notes       string `json:"notes"`
}

// Submission is a storefront enquiry. UseCart attaches the session cart
// next to Products.
type Submission struct {
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Phone      string          `json:"phone"`
	Company    string          `json:"company"`
	State      string          `json:"state"`
	Source     string          `json:"source"`
	UserType   models.UserType `json:"user_type"`
	Categories []string        `json:"categories"`
	Message    string          `json:"message"`
	Products   []LineInput     `json:"products"`
	UseCart    bool            `json:"use_cart"`
}

type UpdateInput struct {
	Status     *models.EnquiryStatus   `json:"status"`
	Priority   *models.EnquiryPriority `json:"priority"`
	AssignedTo *string                 `json:"assigned_to"`
	Notes      *string                 `json:"notes"`
}

type MessageInput struct {
	Sender    models.Sender  `json:"sender"`
	Channel   models.Channel `json:"channel"`
	Message   string         `json:"message"`
	CreatedBy string         `json:"created_by"`
}

// ListResult is one page of the admin list.
type ListResult struct {
	Items  []models.Enquiry               `json:"items"`
	Total  int64                          `json:"total"`
	Counts map[models.EnquiryStatus]int64 `json:"counts"`
}

type Service struct {
	repo      Repository
	customers CustomerRepository
	products  ProductSource
	notifier  Notifier
	cache     cache.Store
	countsTTL time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func NewService(repo Repository, customers CustomerRepository, products ProductSource, notifier Notifier,
	store cache.Store, countsTTL time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		customers: customers,
		products:  products,
		notifier:  notifier,
		cache:     store,
		countsTTL: countsTTL,
		now:       time.Now,
		log:       logging.Component(log, "enquiry"),
	}
}

const numberAttempts = 3

// Submit validates a storefront submission and stores it as a new enquiry.
func (s *Service) Submit(ctx context.Context, in Submission) (*models.Enquiry, error) {
	phone := strings.TrimSpace(in.Phone)
	if phone == "" {
		return nil, apperr.Validation("phone is required")
	}
	userType := in.UserType
	if userType == "" {
		userType = models.UserUnknown
	}
	if !userType.Valid() {
		return nil, apperr.Validationf("unknown user type %q", in.UserType)
	}

	items, err := s.lines(ctx, in.Products)
	if err != nil {
		return nil, err
	}

	e := &models.Enquiry{
		Phone:      phone,
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(in.Email),
		Company:    strings.TrimSpace(in.Company),
		State:      strings.TrimSpace(in.State),
		Source:     strings.TrimSpace(in.Source),
		UserType:   userType,
		Categories: nonEmpty(in.Categories),
		Message:    strings.TrimSpace(in.Message),
		Type:       DeriveType(len(items)),
		Priority:   DerivePriority(strings.TrimSpace(in.Source), userType),
		Status:     models.EnquiryNew,
		Items:      items,
	}

	if e.Name != "" && e.Email != "" {
		customer := &models.Customer{Name: e.Name, Email: e.Email, Phone: phone, CompanyName: e.Company}
		if err := s.customers.FindOrCreate(ctx, customer); err != nil {
			return nil, apperr.FromStore(err, "customer")
		}
		e.CustomerID = &customer.ID
	} else {
		e.Name, e.Email = placeholders(e.Name, e.Email, phone)
	}

	for attempt := 1; ; attempt++ {
		e.EnquiryNumber = NewNumber(s.now())
		err = s.repo.Create(ctx, e)
		if err == nil {
			break
		}
		err = apperr.FromStore(err, "enquiry")
		if !apperr.Is(err, apperr.CodeSlugConflict) || attempt == numberAttempts {
			return nil, err
		}
	}

	s.countsChanged(ctx)
	s.log.Info("enquiry submitted", "enquiry_id", e.EnquiryNumber, "type", e.Type,
		"priority", e.Priority, "items", len(e.Items))

	if s.notifier != nil {
		if err := s.notifier.NotifyEnquiry(ctx, e); err != nil {
			s.log.Warn("enquiry notification failed", "enquiry_id", e.EnquiryNumber, "error", err)
		}
	}
	return e, nil
}

// lines resolves submitted products. Unknown products are kept with their
// name snapshot and no product reference.
func (s *Service) lines(ctx context.Context, in []LineInput) ([]models.EnquiryItem, error) {
	items := make([]models.EnquiryItem, 0, len(in))
	for i, l := range in {
		if l.Quantity < 1 {
			return nil, apperr.Validationf("products[%d]: quantity must be at least 1", i)
		}
		item := models.EnquiryItem{
			ProductName: strings.TrimSpace(l.ProductName),
			ColorName:   strings.TrimSpace(l.ColorName),
			Quantity:    l.Quantity,
			Notes:       strings.TrimSpace(l.Notes),
		}

		if id, err := uuid.Parse(strings.TrimSpace(l.ProductID)); err == nil {
			p, err := s.products.GetByID(ctx, id)
			switch {
			case err == nil:
				item.ProductID = &p.ID
				if item.ProductName == "" {
					item.ProductName = p.Title
				}
			case errors.Is(err, gorm.ErrRecordNotFound) || apperr.KindOf(err) == apperr.KindNotFound:
				s.log.Warn("enquiry line references an unknown product", "product_id", id)
			default:
				return nil, apperr.FromStore(err, "product")
			}
		}

		if item.ProductName == "" {
			return nil, apperr.Validationf("products[%d]: product name is required", i)
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Enquiry, error) {
	e, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, apperr.FromStore(err, "enquiry")
	}
	return e, nil
}

// List returns a page of enquiries with per-status counts computed without
// the status filter. Counts are cached for at most countsTTL.
func (s *Service) List(ctx context.Context, f Filter) (*ListResult, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validationf("unknown status %q", f.Status)
	}
	if f.Priority != "" && !f.Priority.Valid() {
		return nil, apperr.Validationf("unknown priority %q", f.Priority)
	}
	f.Page = utils.NewPagination(f.Page.Limit, f.Page.Skip)

	items, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, apperr.FromStore(err, "enquiry")
	}
	counts, err := s.Counts(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ListResult{Items: items, Total: total, Counts: counts}, nil
}

// Counts returns per-status totals for f, ignoring f.Status.
func (s *Service) Counts(ctx context.Context, f Filter) (map[models.EnquiryStatus]int64, error) {
	key := f.countsKey()
	counts := map[models.EnquiryStatus]int64{}
	if s.cache != nil {
		if found, err := s.cache.Get(ctx, key, &counts); err == nil && found {
			return counts, nil
		} else if err != nil {
			s.log.Warn("counts cache read failed", "error", err)
		}
	}

	raw, err := s.repo.CountByStatus(ctx, f)
	if err != nil {
		return nil, apperr.FromStore(err, "enquiry")
	}
	counts = make(map[models.EnquiryStatus]int64, len(models.EnquiryStatuses))
	for _, st := range models.EnquiryStatuses {
		counts[st] = raw[st]
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, counts, s.countsTTL); err != nil {
			s.log.Warn("counts cache write failed", "error", err)
		}
	}
	return counts, nil
}

// Update changes status, priority, assignee or notes. A status change is
// checked against the workflow and logged as a system entry.
func (s *Service) Update(ctx context.Context, id uuid.UUID, in UpdateInput, actor string) (*models.Enquiry, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	var entry *models.EnquiryMessage

	if in.Status != nil && *in.Status != e.Status {
		if err := checkTransition(e.Status, *in.Status); err != nil {
			return nil, err
		}
		fields["status"] = *in.Status
		entry = s.statusEntry(e, *in.Status, actor)
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, apperr.Validationf("unknown priority %q", *in.Priority)
		}
		fields["priority"] = *in.Priority
	}
	if in.AssignedTo != nil {
		fields["assigned_to"] = strings.TrimSpace(*in.AssignedTo)
	}
	if in.Notes != nil {
		fields["notes"] = *in.Notes
	}
	if len(fields) == 0 {
		return e, nil
	}

	if err := s.repo.Update(ctx, id, fields, entry); err != nil {
		return nil, apperr.FromStore(err, "enquiry")
	}
	s.countsChanged(ctx)
	return s.Get(ctx, id)
}

// Reopen moves a closed or spam enquiry back to new.
func (s *Service) Reopen(ctx context.Context, id uuid.UUID, actor string) (*models.Enquiry, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !e.Status.Terminal() {
		return nil, apperr.New(apperr.KindConflict, apperr.CodeInvalidTransition,
			fmt.Sprintf("only closed or spam enquiries can be reopened, this one is %s", e.Status), nil)
	}

	entry := s.statusEntry(e, models.EnquiryNew, actor)
	if err := s.repo.Update(ctx, id, map[string]interface{}{"status": models.EnquiryNew}, entry); err != nil {
		return nil, apperr.FromStore(err, "enquiry")
	}
	s.countsChanged(ctx)
	s.log.Info("enquiry reopened", "enquiry_id", e.EnquiryNumber, "from", e.Status)
	return s.Get(ctx, id)
}

func (s *Service) statusEntry(e *models.Enquiry, to models.EnquiryStatus, actor string) *models.EnquiryMessage {
	return &models.EnquiryMessage{
		EnquiryID: e.ID,
		Sender:    models.SenderSystem,
		Channel:   models.ChannelSystem,
		Message:   fmt.Sprintf("Status changed from %s to %s", e.Status, to),
		CreatedBy: actor,
		CreatedAt: s.now(),
	}
}

// AddMessage appends a communication log entry. Status is not touched.
func (s *Service) AddMessage(ctx context.Context, id uuid.UUID, in MessageInput) (*models.EnquiryMessage, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	m := &models.EnquiryMessage{
		EnquiryID: id,
		Sender:    in.Sender,
		Channel:   in.Channel,
		Message:   strings.TrimSpace(in.Message),
		CreatedBy: strings.TrimSpace(in.CreatedBy),
		CreatedAt: s.now(),
	}
	if m.Sender == "" {
		m.Sender = models.SenderAdmin
	}
	if m.Channel == "" {
		m.Channel = models.ChannelInternalNote
	}
	if !m.Sender.Valid() {
		return nil, apperr.Validationf("unknown sender %q", in.Sender)
	}
	if !m.Channel.Valid() {
		return nil, apperr.Validationf("unknown channel %q", in.Channel)
	}
	if m.Message == "" {
		return nil, apperr.Validation("message is required")
	}

	if err := s.repo.AppendMessage(ctx, m); err != nil {
		return nil, apperr.FromStore(err, "enquiry")
	}
	return m, nil
}

// countsChanged drops cached aggregates after an enquiry write.
func (s *Service) countsChanged(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePrefix(ctx, cache.KeyEnquiryCounts); err != nil {
		s.log.Warn("counts cache invalidation failed", "error", err)
	}
	if err := s.cache.Delete(ctx, cache.KeyAdminStats); err != nil {
		s.log.Warn("stats cache invalidation failed", "error", err)
	}
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
