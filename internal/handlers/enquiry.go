package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/example/horeca/internal/cart"
	"github.com/example/horeca/internal/enquiry"
	"github.com/example/horeca/internal/middleware"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/services"
	"github.com/example/horeca/internal/utils"
)

const enquiryListCacheControl = "public, s-maxage=30, stale-while-revalidate=60"

// EnquiryHandler serves storefront submission and the admin workflow.
type EnquiryHandler struct {
	enquiries     *enquiry.Service
	cart          *cart.Service
	sessions      *session.Store
	whatsAppPhone string
}

func NewEnquiryHandler(enquiries *enquiry.Service, cart *cart.Service, sessions *session.Store, whatsAppPhone string) *EnquiryHandler {
	return &EnquiryHandler{
		enquiries:     enquiries,
		cart:          cart,
		sessions:      sessions,
		whatsAppPhone: whatsAppPhone,
	}
}

// RegisterRoutes mounts the enquiry routes. submit wraps the public POST
// (idempotency, throttling); admin guards the rest.
func (h *EnquiryHandler) RegisterRoutes(router fiber.Router, submit []fiber.Handler, admin fiber.Handler) {
	router.Post("/", append(append([]fiber.Handler{}, submit...), h.Submit)...)
	router.Get("/", admin, h.List)
	router.Get("/counts", admin, h.Counts)
	router.Get("/:id", admin, h.Get)
	router.Put("/:id", admin, h.Update)
	router.Post("/:id/reopen", admin, h.Reopen)
	router.Post("/:id/messages", admin, h.AddMessage)
}

// Submit stores a storefront enquiry. With use_cart the session cart is
// attached and cleared once the enquiry is stored.
func (h *EnquiryHandler) Submit(c *fiber.Ctx) error {
	var in enquiry.Submission
	if err := parseBody(c, &in); err != nil {
		return err
	}

	var (
		e   *models.Enquiry
		err error
	)
	if in.UseCart {
		sid, serr := sessionID(c, h.sessions)
		if serr != nil {
			return serr
		}
		err = h.cart.Consume(c.UserContext(), sid, func(lines []cart.Line) error {
			sub := in
			sub.Products = append(append([]enquiry.LineInput{}, in.Products...), cartLines(lines)...)
			e, err = h.enquiries.Submit(c.UserContext(), sub)
			return err
		})
	} else {
		e, err = h.enquiries.Submit(c.UserContext(), in)
	}
	if err != nil {
		return err
	}

	body := fiber.Map{
		"success": true,
		"data":    e,
	}
	if link := services.WhatsAppLink(h.whatsAppPhone, services.EnquiryMessage(e.EnquiryNumber, e.Name)); link != "" {
		body["whatsapp"] = link
	}
	return c.Status(fiber.StatusCreated).JSON(body)
}

func cartLines(lines []cart.Line) []enquiry.LineInput {
	out := make([]enquiry.LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, enquiry.LineInput{
			ProductID:   l.ProductID.String(),
			ProductName: l.ProductName,
			ColorName:   l.ColorName,
			Quantity:    l.Quantity,
		})
	}
	return out
}

func parseFilter(c *fiber.Ctx) enquiry.Filter {
	return enquiry.Filter{
		Status:     models.EnquiryStatus(c.Query("status")),
		Priority:   models.EnquiryPriority(c.Query("priority")),
		AssignedTo: c.Query("assigned_to"),
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		Page:       utils.ParsePagination(c),
	}
}

// List returns one page of enquiries with per-status counts.
func (h *EnquiryHandler) List(c *fiber.Ctx) error {
	f := parseFilter(c)
	res, err := h.enquiries.List(c.UserContext(), f)
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, enquiryListCacheControl)
	return paged(c, res.Items, f.Page, res.Total, res.Counts)
}

func (h *EnquiryHandler) Counts(c *fiber.Ctx) error {
	counts, err := h.enquiries.Counts(c.UserContext(), parseFilter(c))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderCacheControl, enquiryListCacheControl)
	return ok(c, counts)
}

func (h *EnquiryHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	e, err := h.enquiries.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, e)
}

func (h *EnquiryHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in enquiry.UpdateInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	e, err := h.enquiries.Update(c.UserContext(), id, in, middleware.CurrentAdmin(c))
	if err != nil {
		return err
	}
	return ok(c, e)
}

func (h *EnquiryHandler) Reopen(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	e, err := h.enquiries.Reopen(c.UserContext(), id, middleware.CurrentAdmin(c))
	if err != nil {
		return err
	}
	return ok(c, e)
}

func (h *EnquiryHandler) AddMessage(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in enquiry.MessageInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	if in.CreatedBy == "" {
		in.CreatedBy = middleware.CurrentAdmin(c)
	}
	m, err := h.enquiries.AddMessage(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return created(c, m)
}
