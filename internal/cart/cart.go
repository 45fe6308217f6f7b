// Package cart keeps the per-session cart and wishlist of storefront visitors.
package cart

import (
	"time"

	"github.com/google/uuid"
)

// Line is one cart entry. Lines are identified by product and color; the
// price is captured when the line is first added.
type Line struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductSlug string    `json:"product_slug"`
	ProductName string    `json:"product_name"`
	Image       string    `json:"image"`
	ColorName   string    `json:"color_name,omitempty"`
	Price       int64     `json:"price"`
	Quantity    int       `json:"quantity"`
	AddedAt     time.Time `json:"added_at"`
}

func (l Line) same(productID uuid.UUID, color string) bool {
	return l.ProductID == productID && l.ColorName == color
}

// Subtotal is quantity times the captured price.
func (l Line) Subtotal() int64 {
	return int64(l.Quantity) * l.Price
}

type Cart struct {
	Lines []Line `json:"lines"`
}

// Add appends line, or merges its quantity into an identical line. The
// existing line keeps its captured price.
func (c *Cart) Add(line Line) {
	if line.Quantity <= 0 {
		return
	}
	for i := range c.Lines {
		if c.Lines[i].same(line.ProductID, line.ColorName) {
			c.Lines[i].Quantity += line.Quantity
			return
		}
	}
	c.Lines = append(c.Lines, line)
}

// SetQuantity overwrites a line's quantity; zero or less removes it.
// It reports whether the line exists.
func (c *Cart) SetQuantity(productID uuid.UUID, color string, qty int) bool {
	for i := range c.Lines {
		if !c.Lines[i].same(productID, color) {
			continue
		}
		if qty <= 0 {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		} else {
			c.Lines[i].Quantity = qty
		}
		return true
	}
	return false
}

// Remove drops a line and reports whether it existed.
func (c *Cart) Remove(productID uuid.UUID, color string) bool {
	return c.SetQuantity(productID, color, 0)
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c *Cart) TotalItems() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) TotalPrice() int64 {
	var total int64
	for _, l := range c.Lines {
		total += l.Subtotal()
	}
	return total
}

// Shipping is the advisory free-shipping progress of a cart.
type Shipping struct {
	Threshold            int64   `json:"threshold"`
	ProgressFraction     float64 `json:"progress_fraction"`
	RemainingToThreshold int64   `json:"remaining_to_threshold"`
	Eligible             bool    `json:"eligible"`
}

// FreeShipping measures total against threshold. A non-positive threshold
// makes every cart eligible.
func FreeShipping(total, threshold int64) Shipping {
	if threshold <= 0 {
		return Shipping{Threshold: threshold, ProgressFraction: 1, Eligible: true}
	}
	s := Shipping{Threshold: threshold}
	if total >= threshold {
		s.ProgressFraction = 1
		s.Eligible = true
		return s
	}
	if total > 0 {
		s.ProgressFraction = float64(total) / float64(threshold)
	}
	s.RemainingToThreshold = threshold - max(total, 0)
	return s
}

// Wishlist is an insertion-ordered set of product ids.
type Wishlist struct {
	IDs []uuid.UUID `json:"product_ids"`
}

func (w *Wishlist) Contains(id uuid.UUID) bool {
	for _, v := range w.IDs {
		if v == id {
			return true
		}
	}
	return false
}

// Add is idempotent.
func (w *Wishlist) Add(id uuid.UUID) {
	if !w.Contains(id) {
		w.IDs = append(w.IDs, id)
	}
}

// Remove is idempotent.
func (w *Wishlist) Remove(id uuid.UUID) {
	for i, v := range w.IDs {
		if v == id {
			w.IDs = append(w.IDs[:i], w.IDs[i+1:]...)
			return
		}
	}
}
