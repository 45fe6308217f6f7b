package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/google/uuid"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/cart"
)

// sessionID returns the storefront session id, issuing the cookie on first use.
func sessionID(c *fiber.Ctx, sessions *session.Store) (string, error) {
	sess, err := sessions.Get(c)
	if err != nil {
		return "", apperr.Fatal("load session", err)
	}
	id := sess.ID()
	if sess.Fresh() {
		sess.Set("created", true)
	}
	// Save refreshes the expiry and releases the session.
	if err := sess.Save(); err != nil {
		return "", apperr.Fatal("save session", err)
	}
	return id, nil
}

// CartHandler serves the session cart and wishlist.
type CartHandler struct {
	cart     *cart.Service
	sessions *session.Store
}

func NewCartHandler(cart *cart.Service, sessions *session.Store) *CartHandler {
	return &CartHandler{cart: cart, sessions: sessions}
}

func (h *CartHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/cart", h.GetCart)
	router.Post("/cart/items", h.AddItem)
	router.Put("/cart/items", h.SetQuantity)
	router.Delete("/cart/items", h.RemoveItem)
	router.Delete("/cart", h.ClearCart)

	router.Get("/wishlist", h.GetWishlist)
	router.Post("/wishlist/:productId", h.AddToWishlist)
	router.Delete("/wishlist/:productId", h.RemoveFromWishlist)
}

type cartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" query:"product_id"`
	ColorName string    `json:"color_name" query:"color_name"`
	Quantity  int       `json:"quantity" query:"quantity"`
}

// parseItem reads the line from the body, or from the query string when the
// body is empty.
func parseItem(c *fiber.Ctx) (cartItemRequest, error) {
	var req cartItemRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return req, err
		}
	} else {
		id, err := uuid.Parse(c.Query("product_id"))
		if err != nil {
			return req, apperr.Validation("invalid product_id")
		}
		req.ProductID = id
		req.ColorName = c.Query("color_name")
		req.Quantity = c.QueryInt("quantity")
	}
	if req.ProductID == uuid.Nil {
		return req, apperr.Validation("product_id is required")
	}
	req.ColorName = strings.TrimSpace(req.ColorName)
	return req, nil
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	sid, err := sessionID(c, h.sessions)
	if err != nil {
		return err
	}
	summary, err := h.cart.Get(c.UserContext(), sid)
	if err != nil {
		return err
	}
	return ok(c, summary)
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	sid, err := sessionID(c, h.sessions)
	if err != nil {
		return err
	}
	req, err := parseItem(c)
	if err != nil {
		return err
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	summary, err := h.cart.Add(c.UserContext(), sid, req.ProductID, req.ColorName, req.Quantity)
	if err != nil {
		return err
	}
	return ok(c, summary)
}

func (h *CartHandler) SetQuantity(c *fiber.Ctx) error {
	sid, err := sessionID(c, h.sessions)
	if err != nil {
		return err
	}
	req, err := parseItem(c)
	if err != nil {
		return err
	}
	summary, err := h.cart.SetQuantity(c.UserContext(), sid, req.ProductID, req.ColorName, req.Quantity)
	if err != nil {
		return err
	}
	return ok(c, summary)
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	sid, err := sessionID(c, h.sessions)
	if err != nil {
		return err
	}
	req, err := parseItem(c)
	if err != nil {
		return err
	}
	summary, err := h.cart.Remove(c.UserContext(), sid, req.ProductID, req.ColorName)
	if err != nil {
		return err
	}
	return ok(c, summary)
}

func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	sid, err := sessionID(c, h.sessions)
	if err != nil {
		return err
	}
	summary, err := h.cart.Clear(c.UserContext(), sid)
	if err != nil {
		return err
	}
	return ok(c, summary)
}

func (h *CartHandler) GetWishlist(c *fiber.Ctx) error {
	sid, err := sessionID(c, h.sessions)
	if err != nil {
		return err
	}
	ids, err := h.cart.Wishlist(c.UserContext(), sid)
	if err != nil {
		return err
	}
	return ok(c, ids)
}

func (h *CartHandler) AddToWishlist(c *fiber.Ctx) error {
	sid, err := sessionID(c, h.sessions)
	if err != nil {
		return err
	}
	id, err := parseID(c, "productId")
	if err != nil {
		return err
	}
	ids, err := h.cart.AddToWishlist(c.UserContext(), sid, id)
	if err != nil {
		return err
	}
	return ok(c, ids)
}

func (h *CartHandler) RemoveFromWishlist(c *fiber.Ctx) error {
	sid, err := sessionID(c, h.sessions)
	if err != nil {
		return err
	}
	id, err := parseID(c, "productId")
	if err != nil {
		return err
	}
	ids, err := h.cart.RemoveFromWishlist(c.UserContext(), sid, id)
	if err != nil {
		return err
	}
	return ok(c, ids)
}
