package cart

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/logging"
	"github.com/example/horeca/internal/models"
)

// ProductSource resolves products added to carts and wishlists.
type ProductSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Summary is the cart as the storefront shows it.
type Summary struct {
	Lines      []Line   `json:"lines"`
	TotalItems int      `json:"total_items"`
	TotalPrice int64    `json:"total_price"`
	Shipping   Shipping `json:"free_shipping"`
}

type Service struct {
	store     Store
	products  ProductSource
	threshold int64
	now       func() time.Time
	log       *slog.Logger
}

func NewService(store Store, products ProductSource, freeShippingThreshold int64, log *slog.Logger) *Service {
	return &Service{
		store:     store,
		products:  products,
		threshold: freeShippingThreshold,
		now:       time.Now,
		log:       logging.Component(log, "cart"),
	}
}

func (s *Service) summarize(c *Cart) Summary {
	lines := make([]Line, len(c.Lines))
	copy(lines, c.Lines)
	total := c.TotalPrice()
	return Summary{
		Lines:      lines,
		TotalItems: c.TotalItems(),
		TotalPrice: total,
		Shipping:   FreeShipping(total, s.threshold),
	}
}

func (s *Service) Get(ctx context.Context, sessionID string) (Summary, error) {
	var out Summary
	err := s.store.With(ctx, sessionID, func(c *Cart, _ *Wishlist) error {
		out = s.summarize(c)
		return nil
	})
	return out, err
}

// Add puts qty units of a product into the cart, capturing its current price.
// An empty color picks the product's default variant when it has any.
func (s *Service) Add(ctx context.Context, sessionID string, productID uuid.UUID, color string, qty int) (Summary, error) {
	if qty <= 0 {
		return Summary{}, apperr.Validation("quantity must be at least 1")
	}
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return Summary{}, apperr.FromStore(err, "product")
	}

	color = strings.TrimSpace(color)
	if color == "" {
		if v := p.DefaultVariant(); v != nil {
			color = v.ColorName
		}
	} else if !p.HasVariant(color) {
		return Summary{}, apperr.Validationf("product %q has no color %q", p.Slug, color)
	}

	image := p.HeroImage
	for _, v := range p.ColorVariants {
		if v.ColorName == color && len(v.Images) > 0 {
			image = v.Images[0]
		}
	}

	line := Line{
		ProductID:   p.ID,
		ProductSlug: p.Slug,
		ProductName: p.Title,
		Image:       image,
		ColorName:   color,
		Price:       p.Price,
		Quantity:    qty,
		AddedAt:     s.now(),
	}

	var out Summary
	err = s.store.With(ctx, sessionID, func(c *Cart, _ *Wishlist) error {
		c.Add(line)
		out = s.summarize(c)
		return nil
	})
	return out, err
}

func (s *Service) SetQuantity(ctx context.Context, sessionID string, productID uuid.UUID, color string, qty int) (Summary, error) {
	var out Summary
	err := s.store.With(ctx, sessionID, func(c *Cart, _ *Wishlist) error {
		if !c.SetQuantity(productID, strings.TrimSpace(color), qty) {
			return apperr.NotFound("cart line")
		}
		out = s.summarize(c)
		return nil
	})
	return out, err
}

func (s *Service) Remove(ctx context.Context, sessionID string, productID uuid.UUID, color string) (Summary, error) {
	var out Summary
	err := s.store.With(ctx, sessionID, func(c *Cart, _ *Wishlist) error {
		if !c.Remove(productID, strings.TrimSpace(color)) {
			return apperr.NotFound("cart line")
		}
		out = s.summarize(c)
		return nil
	})
	return out, err
}

func (s *Service) Clear(ctx context.Context, sessionID string) (Summary, error) {
	var out Summary
	err := s.store.With(ctx, sessionID, func(c *Cart, _ *Wishlist) error {
		c.Clear()
		out = s.summarize(c)
		return nil
	})
	return out, err
}

// Consume runs fn over the cart lines and clears the cart only when fn succeeds.
func (s *Service) Consume(ctx context.Context, sessionID string, fn func(lines []Line) error) error {
	return s.store.With(ctx, sessionID, func(c *Cart, _ *Wishlist) error {
		lines := make([]Line, len(c.Lines))
		copy(lines, c.Lines)
		if err := fn(lines); err != nil {
			return err
		}
		c.Clear()
		return nil
	})
}

func (s *Service) Wishlist(ctx context.Context, sessionID string) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := s.store.With(ctx, sessionID, func(_ *Cart, w *Wishlist) error {
		out = append([]uuid.UUID{}, w.IDs...)
		return nil
	})
	return out, err
}

func (s *Service) AddToWishlist(ctx context.Context, sessionID string, productID uuid.UUID) ([]uuid.UUID, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, apperr.FromStore(err, "product")
	}
	var out []uuid.UUID
	err := s.store.With(ctx, sessionID, func(_ *Cart, w *Wishlist) error {
		w.Add(productID)
		out = append([]uuid.UUID{}, w.IDs...)
		return nil
	})
	return out, err
}

func (s *Service) RemoveFromWishlist(ctx context.Context, sessionID string, productID uuid.UUID) ([]uuid.UUID, error) {
	var out []uuid.UUID
	err := s.store.With(ctx, sessionID, func(_ *Cart, w *Wishlist) error {
		w.Remove(productID)
		out = append([]uuid.UUID{}, w.IDs...)
		return nil
	})
	return out, err
}
