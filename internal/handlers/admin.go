package handlers

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/config"
	"github.com/example/horeca/internal/middleware"
	"github.com/example/horeca/internal/stats"
	"github.com/example/horeca/internal/utils"
)

// AdminHandler manages admin login and the dashboard.
type AdminHandler struct {
	cfg   *config.Config
	stats *stats.Service
}

// NewAdminHandler constructs AdminHandler.
func NewAdminHandler(cfg *config.Config, stats *stats.Service) *AdminHandler {
	return &AdminHandler{cfg: cfg, stats: stats}
}

func (h *AdminHandler) RegisterRoutes(router fiber.Router, admin fiber.Handler) {
	router.Post("/login", h.Login)
	router.Get("/stats", admin, h.DashboardStats)
	router.Get("/me", admin, h.Me)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login checks the configured admin credentials and issues a bearer token.
func (h *AdminHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return apperr.Validation("username and password are required")
	}
	if h.cfg.AdminPasswordHash == "" {
		return apperr.Unauthorized("admin login is disabled")
	}

	sameUser := subtle.ConstantTimeCompare([]byte(username), []byte(h.cfg.AdminUsername)) == 1
	if !utils.CheckPassword(h.cfg.AdminPasswordHash, req.Password) || !sameUser {
		return apperr.Unauthorized("invalid credentials")
	}

	token, err := utils.GenerateToken(h.cfg.JWTSecret, username, middleware.RoleAdmin, h.cfg.TokenExpires)
	if err != nil {
		return apperr.Fatal("issue token", err)
	}
	return ok(c, fiber.Map{
		"token":      token,
		"expires_in": int(h.cfg.TokenExpires.Seconds()),
		"username":   username,
	})
}

func (h *AdminHandler) Me(c *fiber.Ctx) error {
	return ok(c, fiber.Map{"username": middleware.CurrentAdmin(c)})
}

// DashboardStats returns aggregate statistics for the admin dashboard.
func (h *AdminHandler) DashboardStats(c *fiber.Ctx) error {
	summary, err := h.stats.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, summary)
}
