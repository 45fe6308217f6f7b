package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/taxonomy"
)

// TaxonomyHandler serves one forest (categories or brands).
type TaxonomyHandler struct {
	svc  *taxonomy.Service
	kind models.TaxonomyKind
}

// NewTaxonomyHandler constructs a handler bound to kind.
func NewTaxonomyHandler(svc *taxonomy.Service, kind models.TaxonomyKind) *TaxonomyHandler {
	return &TaxonomyHandler{svc: svc, kind: kind}
}

func (h *TaxonomyHandler) RegisterRoutes(router fiber.Router, admin fiber.Handler) {
	router.Get("/", h.List)
	router.Get("/tree", h.Tree)
	router.Get("/:slug", h.GetBySlug)
	router.Post("/", admin, h.Create)
	router.Put("/:id", admin, h.Update)
	router.Delete("/:id", admin, h.Delete)
}

// List returns the flat node list. parent_id narrows to one level
// ("root" for top-level nodes); level filters by depth label.
func (h *TaxonomyHandler) List(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var (
		nodes []models.TaxonomyNode
		err   error
	)
	switch parent := c.Query("parent_id"); parent {
	case "":
		nodes, err = h.svc.List(ctx, h.kind)
	case "root":
		nodes, err = h.svc.FindByParent(ctx, h.kind, nil)
	default:
		id, perr := uuid.Parse(parent)
		if perr != nil {
			return apperr.Validation("invalid parent_id")
		}
		nodes, err = h.svc.FindByParent(ctx, h.kind, &id)
	}
	if err != nil {
		return err
	}

	if level := models.Level(c.Query("level")); level != "" {
		filtered := make([]models.TaxonomyNode, 0, len(nodes))
		for _, n := range nodes {
			if n.Level == level {
				filtered = append(filtered, n)
			}
		}
		nodes = filtered
	}
	return ok(c, nodes)
}

func (h *TaxonomyHandler) Tree(c *fiber.Ctx) error {
	tree, err := h.svc.Tree(c.UserContext(), h.kind)
	if err != nil {
		return err
	}
	return ok(c, tree)
}

// GetBySlug returns the node with its root-first path and direct children.
func (h *TaxonomyHandler) GetBySlug(c *fiber.Ctx) error {
	ctx := c.UserContext()
	node, err := h.svc.GetBySlug(ctx, h.kind, c.Params("slug"))
	if err != nil {
		return err
	}
	path, err := h.svc.Path(ctx, h.kind, node.ID)
	if err != nil {
		return err
	}
	children, err := h.svc.FindByParent(ctx, h.kind, &node.ID)
	if err != nil {
		return err
	}
	return ok(c, fiber.Map{
		"node":     node,
		"path":     path,
		"children": children,
	})
}

func (h *TaxonomyHandler) Create(c *fiber.Ctx) error {
	var in taxonomy.NodeInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	node, err := h.svc.Create(c.UserContext(), h.kind, in)
	if err != nil {
		return err
	}
	return created(c, node)
}

func (h *TaxonomyHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in taxonomy.NodeInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	node, err := h.svc.Update(c.UserContext(), h.kind, id, in)
	if err != nil {
		return err
	}
	return ok(c, node)
}

func (h *TaxonomyHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.UserContext(), h.kind, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// BusinessTypeHandler serves the flat buyer-segment list.
type BusinessTypeHandler struct {
	svc *taxonomy.BusinessTypeService
}

func NewBusinessTypeHandler(svc *taxonomy.BusinessTypeService) *BusinessTypeHandler {
	return &BusinessTypeHandler{svc: svc}
}

func (h *BusinessTypeHandler) RegisterRoutes(router fiber.Router, admin fiber.Handler) {
	router.Get("/", h.List)
	router.Get("/:id", h.Get)
	router.Post("/", admin, h.Create)
	router.Put("/:id", admin, h.Update)
	router.Delete("/:id", admin, h.Delete)
}

func (h *BusinessTypeHandler) List(c *fiber.Ctx) error {
	items, err := h.svc.List(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, items)
}

func (h *BusinessTypeHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	bt, err := h.svc.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return ok(c, bt)
}

func (h *BusinessTypeHandler) Create(c *fiber.Ctx) error {
	var in taxonomy.BusinessTypeInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	bt, err := h.svc.Create(c.UserContext(), in)
	if err != nil {
		return err
	}
	return created(c, bt)
}

func (h *BusinessTypeHandler) Update(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	var in taxonomy.BusinessTypeInput
	if err := parseBody(c, &in); err != nil {
		return err
	}
	bt, err := h.svc.Update(c.UserContext(), id, in)
	if err != nil {
		return err
	}
	return ok(c, bt)
}

func (h *BusinessTypeHandler) Delete(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
