// Package stats builds the admin dashboard roll-up.
package stats

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/cache"
	"github.com/example/horeca/internal/enquiry"
	"github.com/example/horeca/internal/logging"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/utils"
)

const recentCount = 5

// ProductSource aggregates the catalog in the store.
type ProductSource interface {
	StatusTotals(ctx context.Context) ([]StatusTotal, error)
	Recent(ctx context.Context, n int) ([]models.Product, error)
}

// StatusTotal is one row of the per-status catalog aggregate.
type StatusTotal struct {
	Status         models.ProductStatus
	Count          int64
	Featured       int64
	Premium        int64
	PriceOnRequest int64
}

type EnquirySource interface {
	Counts(ctx context.Context, f enquiry.Filter) (map[models.EnquiryStatus]int64, error)
	List(ctx context.Context, f enquiry.Filter) (*enquiry.ListResult, error)
}

type ProductCounts struct {
	Total          int64                          `json:"total"`
	ByStatus       map[models.ProductStatus]int64 `json:"by_status"`
	Featured       int64                          `json:"featured"`
	Premium        int64                          `json:"premium"`
	PriceOnRequest int64                          `json:"price_on_request"`
}

type RecentProduct struct {
	ID        string               `json:"id"`
	Slug      string               `json:"slug"`
	Title     string               `json:"title"`
	Status    models.ProductStatus `json:"status"`
	HeroImage string               `json:"hero_image"`
	CreatedAt time.Time            `json:"created_at"`
}

type Summary struct {
	Products        ProductCounts                  `json:"products"`
	Enquiries       map[models.EnquiryStatus]int64 `json:"enquiries"`
	RecentProducts  []RecentProduct                `json:"recent_products"`
	RecentEnquiries []models.Enquiry               `json:"recent_enquiries"`
	GeneratedAt     time.Time                      `json:"generated_at"`
}

type Service struct {
	products  ProductSource
	enquiries EnquirySource
	cache     cache.Store
	ttl       time.Duration
	now       func() time.Time
	log       *slog.Logger
}

func NewService(products ProductSource, enquiries EnquirySource, store cache.Store, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		products:  products,
		enquiries: enquiries,
		cache:     store,
		ttl:       ttl,
		now:       time.Now,
		log:       logging.Component(log, "stats"),
	}
}

// Summary returns the dashboard roll-up, served from cache for at most ttl.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	var cached Summary
	if s.cache != nil {
		found, err := s.cache.Get(ctx, cache.KeyAdminStats, &cached)
		if err != nil {
			s.log.Warn("stats cache read failed", "error", err)
		}
		if found {
			return &cached, nil
		}
	}

	totals, err := s.products.StatusTotals(ctx)
	if err != nil {
		return nil, apperr.FromStore(err, "product")
	}
	newest, err := s.products.Recent(ctx, recentCount)
	if err != nil {
		return nil, apperr.FromStore(err, "product")
	}
	counts, err := s.enquiries.Counts(ctx, enquiry.Filter{})
	if err != nil {
		return nil, err
	}
	recent, err := s.enquiries.List(ctx, enquiry.Filter{Page: utils.NewPagination(recentCount, 0)})
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Products:        CountProducts(totals),
		Enquiries:       counts,
		RecentProducts:  Recent(newest),
		RecentEnquiries: recent.Items,
		GeneratedAt:     s.now(),
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.KeyAdminStats, sum, s.ttl); err != nil {
			s.log.Warn("stats cache write failed", "error", err)
		}
	}
	return sum, nil
}

// CountProducts folds the per-status rows into the dashboard counts.
func CountProducts(totals []StatusTotal) ProductCounts {
	c := ProductCounts{ByStatus: make(map[models.ProductStatus]int64, len(models.ProductStatuses))}
	for _, st := range models.ProductStatuses {
		c.ByStatus[st] = 0
	}
	for _, row := range totals {
		c.Total += row.Count
		c.ByStatus[row.Status] += row.Count
		c.Featured += row.Featured
		c.Premium += row.Premium
		c.PriceOnRequest += row.PriceOnRequest
	}
	return c
}

// Recent trims products, already newest first, to the dashboard shape.
func Recent(products []models.Product) []RecentProduct {
	out := make([]RecentProduct, 0, len(products))
	for i := range products {
		p := &products[i]
		out = append(out, RecentProduct{
			ID:        p.ID.String(),
			Slug:      p.Slug,
			Title:     p.Title,
			Status:    p.Status,
			HeroImage: p.HeroImage,
			CreatedAt: p.CreatedAt,
		})
	}
	return out
}
