package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/products"
	"github.com/example/horeca/internal/related"
	"github.com/example/horeca/internal/search"
	"github.com/example/horeca/internal/tags"
)

// ProductHandler serves the catalog read path and the admin product editor.
type ProductHandler struct {
	products *products.Service
	search   *search.Service
	related  *related.Service
	tagger   *tags.Generator
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(products *products.Service, search *search.Service, related *related.Service, tagger *tags.Generator) *ProductHandler {
	return &ProductHandler{products: products, search: search, related: related, tagger: tagger}
}

// RegisterProductRoutes mounts the catalog routes; admin guards the editor routes.
func (h *ProductHandler) RegisterProductRoutes(router fiber.Router, admin fiber.Handler) {
	router.Get("/", h.ListProducts)
	router.Post("/", admin, h.CreateProduct)
	router.Patch("/bulk", admin, h.BulkUpdate)
	router.Post("/bulk-delete", admin, h.BulkDelete)
	router.Post("/tags/generate", admin, h.GenerateTags)
	router.Post("/related/suggest", admin, h.SuggestRelated)
	router.Get("/by-id/:id", admin, h.GetProductByID)
	router.Get("/:slug", h.GetProduct)
	router.Get("/:slug/related", h.RelatedProducts)
	router.Put("/:id", admin, h.UpdateProduct)
	router.Delete("/:id", admin, h.DeleteProduct)
}

// ListProducts runs a faceted search and returns one page with status counts.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	q, err := search.ParseQuery(c)
	if err != nil {
		return err
	}
	res, err := h.search.Search(c.UserContext(), q)
	if err != nil {
		return err
	}
	return paged(c, res.Items, q.Page, res.Total, res.Counts)
}

func (h *ProductHandler) GetProduct(c *fiber.Ctx) error {
	p, err := h.products.GetBySlug(c.UserContext(), c.Params("slug"))
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (h *ProductHandler) GetProductByID(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.products.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, p)
}

// RelatedProducts returns the ranked related list for a product.
func (h *ProductHandler) RelatedProducts(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", related.DefaultLimit)
	items, err := h.related.ForSlug(c.UserContext(), c.Params("slug"), limit)
	if err != nil {
		return err
	}
	return ok(c, items)
}

func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var in products.Input
	if err := parseBody(c, &in); err != nil {
		return err
	}
	p, err := h.products.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return created(c, p)
}

func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in products.Input
	if err := parseBody(c, &in); err != nil {
		return err
	}
	p, err := h.products.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.products.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

type bulkRequest struct {
	IDs      []uuid.UUID           `json:"ids"`
	Featured *bool                 `json:"featured"`
	Premium  *bool                 `json:"premium"`
	Status   *models.ProductStatus `json:"status"`
}

// BulkUpdate applies featured, premium or status to many products; each
// product reports its own outcome.
func (h *ProductHandler) BulkUpdate(c *fiber.Ctx) error {
	var req bulkRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if len(req.IDs) == 0 {
		return apperr.Validation("ids are required")
	}
	results, err := h.products.BulkUpdate(c.UserContext(), req.IDs, products.Patch{
		Featured: req.Featured,
		Premium:  req.Premium,
		Status:   req.Status,
	})
	if err != nil {
		return err
	}
	return ok(c, results)
}

func (h *ProductHandler) BulkDelete(c *fiber.Ctx) error {
	var req bulkRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if len(req.IDs) == 0 {
		return apperr.Validation("ids are required")
	}
	results, err := h.products.BulkDelete(c.UserContext(), req.IDs)
	if err != nil {
		return err
	}
	return ok(c, results)
}

// GenerateTags derives tags for an unsaved draft, keeping the draft's own tags.
func (h *ProductHandler) GenerateTags(c *fiber.Ctx) error {
	var in products.Input
	if err := parseBody(c, &in); err != nil {
		return err
	}
	draft, err := h.products.Draft(in)
	if err != nil {
		return err
	}
	generated, err := h.tagger.GenerateManual(c.UserContext(), draft)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{"tags": generated})
}

// SuggestRelated ranks the catalog against an unsaved draft.
func (h *ProductHandler) SuggestRelated(c *fiber.Ctx) error {
	var in products.Input
	if err := parseBody(c, &in); err != nil {
		return err
	}
	draft, err := h.products.Draft(in)
	if err != nil {
		return err
	}
	items, err := h.related.Suggest(c.UserContext(), draft)
	if err != nil {
		return err
	}
	return ok(c, items)
}
