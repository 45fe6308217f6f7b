package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/cache"
	"github.com/example/horeca/internal/cart"
	"github.com/example/horeca/internal/config"
	"github.com/example/horeca/internal/enquiry"
	"github.com/example/horeca/internal/logging"
	"github.com/example/horeca/internal/middleware"
	"github.com/example/horeca/internal/models"
	"github.com/example/horeca/internal/products"
	"github.com/example/horeca/internal/related"
	"github.com/example/horeca/internal/search"
	"github.com/example/horeca/internal/stats"
	"github.com/example/horeca/internal/tags"
	"github.com/example/horeca/internal/taxonomy"
	"github.com/example/horeca/internal/utils"
)

const testSecret = "test-secret"

type testEnv struct {
	app       *fiber.App
	token     string
	products  *fakeProducts
	enquiries *fakeEnquiries
	taxonomy  *fakeTaxonomy
	cookie    string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := logging.Discard()
	store := cache.NewMemory()

	hash, err := utils.HashPassword("s3cret")
	require.NoError(t, err)
	cfg := &config.Config{
		JWTSecret:         testSecret,
		TokenExpires:      time.Hour,
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
		WhatsAppPhone:     "+1 555 010 2030",
	}

	env := &testEnv{
		products:  newFakeProducts(),
		enquiries: newFakeEnquiries(),
		taxonomy:  newFakeTaxonomy(),
	}

	taxonomyService := taxonomy.NewService(env.taxonomy, log)
	businessTypes := taxonomy.NewBusinessTypeService(&fakeBusinessTypes{}, log)
	tagger := tags.NewGenerator(taxonomyService, businessTypes, log)
	productService := products.NewService(env.products, taxonomyService, businessTypes, tagger, store, log)
	cartService := cart.NewService(cart.NewMemory(time.Hour), productService, 500, log)
	enquiryService := enquiry.NewService(env.enquiries, fakeCustomers{}, productService, nil, store, time.Minute, log)
	statsService := stats.NewService(env.products, enquiryService, store, time.Minute, log)
	sessions := session.New(session.Config{KeyLookup: "cookie:horeca_session"})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	admin := middleware.AdminAuth(testSecret)
	api := app.Group("/api")
	NewProductHandler(productService, search.NewService(env.products, taxonomyService),
		related.NewService(env.products, taxonomyService, log), tagger).RegisterProductRoutes(api.Group("/products"), admin)
	NewTaxonomyHandler(taxonomyService, models.KindCategory).RegisterRoutes(api.Group("/categories"), admin)
	NewCartHandler(cartService, sessions).RegisterRoutes(api)
	NewEnquiryHandler(enquiryService, cartService, sessions, cfg.WhatsAppPhone).RegisterRoutes(api.Group("/enquiries"), nil, admin)
	NewAdminHandler(cfg, statsService).RegisterRoutes(api.Group("/admin"), admin)

	env.app = app
	env.token, err = utils.GenerateToken(testSecret, "admin", middleware.RoleAdmin, time.Hour)
	require.NoError(t, err)
	return env
}

type reply struct {
	Status int
	Header http.Header
	Body   map[string]interface{}
}

func (r reply) data() map[string]interface{} {
	m, _ := r.Body["data"].(map[string]interface{})
	return m
}

func (r reply) list() []interface{} {
	l, _ := r.Body["data"].([]interface{})
	return l
}

// call sends a request; asAdmin adds the bearer token. The session cookie is
// carried between calls.
func (e *testEnv) call(t *testing.T, method, path string, body interface{}, asAdmin bool) reply {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if asAdmin {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	if e.cookie != "" {
		req.Header.Set("Cookie", e.cookie)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	for _, c := range resp.Cookies() {
		if c.Name == "horeca_session" {
			e.cookie = c.Name + "=" + c.Value
		}
	}

	out := reply{Status: resp.StatusCode, Header: resp.Header}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.Body), string(raw))
	}
	return out
}

func TestErrorHandler(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logging.Discard())})
	errs := map[string]error{
		"validation": apperr.Validation("title is required"),
		"conflict":   apperr.Conflict(apperr.CodeTaxonomyInUse, "in use").WithDetails(map[string]int{"products": 2}),
		"missing":    apperr.NotFound("product"),
		"dependency": apperr.Dependency("ai down", nil),
		"cooldown":   apperr.RateLimited("slow down"),
		"fiber":      fiber.NewError(fiber.StatusMethodNotAllowed, "nope"),
		"foreign":    errors.New("boom"),
	}
	app.Get("/:name", func(c *fiber.Ctx) error { return errs[c.Params("name")] })

	tests := []struct {
		name   string
		status int
		error  string
		code   string
	}{
		{"validation", 400, "title is required", "INVALID_INPUT"},
		{"conflict", 409, "in use", "TAXONOMY_IN_USE"},
		{"missing", 404, "product not found", "NOT_FOUND"},
		{"dependency", 502, "ai down", "DEPENDENCY_FAILED"},
		{"cooldown", 429, "slow down", "COOLDOWN"},
		{"fiber", 405, "nope", ""},
		{"foreign", 500, "internal error", "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/"+tt.name, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, false, body["success"])
			assert.Equal(t, tt.error, body["error"])
			if tt.code != "" {
				assert.Equal(t, tt.code, body["code"])
			}
		})
	}
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)

	r := env.call(t, http.MethodPost, "/api/admin/login", fiber.Map{"username": "admin", "password": "wrong"}, false)
	assert.Equal(t, http.StatusUnauthorized, r.Status)

	r = env.call(t, http.MethodPost, "/api/admin/login", fiber.Map{"username": "admin", "password": "s3cret"}, false)
	require.Equal(t, http.StatusOK, r.Status)
	token, _ := r.data()["token"].(string)
	require.NotEmpty(t, token)

	env.token = token
	r = env.call(t, http.MethodGet, "/api/admin/me", nil, true)
	assert.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, "admin", r.data()["username"])

	r = env.call(t, http.MethodGet, "/api/admin/me", nil, false)
	assert.Equal(t, http.StatusUnauthorized, r.Status)
}

func TestTaxonomyRoutes(t *testing.T) {
	env := newTestEnv(t)

	r := env.call(t, http.MethodPost, "/api/categories", fiber.Map{"name": "Kitchen", "level": "department"}, false)
	assert.Equal(t, http.StatusUnauthorized, r.Status)

	r = env.call(t, http.MethodPost, "/api/categories", fiber.Map{"name": "Kitchen", "level": "department"}, true)
	require.Equal(t, http.StatusCreated, r.Status)
	kitchen := r.data()
	assert.Equal(t, "kitchen", kitchen["slug"])

	r = env.call(t, http.MethodPost, "/api/categories", fiber.Map{
		"name": "Cookware", "level": "category", "parent_id": kitchen["id"],
	}, true)
	require.Equal(t, http.StatusCreated, r.Status)

	r = env.call(t, http.MethodGet, "/api/categories/tree", nil, false)
	require.Equal(t, http.StatusOK, r.Status)
	require.Len(t, r.list(), 1)
	root := r.list()[0].(map[string]interface{})
	assert.Len(t, root["children"], 1)

	r = env.call(t, http.MethodGet, "/api/categories/cookware", nil, false)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Len(t, r.data()["path"], 2)

	r = env.call(t, http.MethodDelete, "/api/categories/"+kitchen["id"].(string), nil, true)
	assert.Equal(t, http.StatusConflict, r.Status)
	assert.Equal(t, "TAXONOMY_HAS_CHILDREN", r.Body["code"])

	r = env.call(t, http.MethodGet, "/api/categories?parent_id=root", nil, false)
	assert.Len(t, r.list(), 1)
}

func TestProductRoutes(t *testing.T) {
	env := newTestEnv(t)

	create := func(title string, price int64, tags ...string) map[string]interface{} {
		r := env.call(t, http.MethodPost, "/api/products", fiber.Map{
			"title":      title,
			"hero_image": "/uploads/" + strings.ToLower(title) + ".jpg",
			"price":      price,
			"tags":       tags,
		}, true)
		require.Equal(t, http.StatusCreated, r.Status, r.Body)
		return r.data()
	}
	mixer := create("Spiral Dough Mixer", 1000, "mixer", "dough", "bakery")
	create("Planetary Mixer", 1100, "mixer", "bakery", "cake")
	create("Chef Knife", 50)

	r := env.call(t, http.MethodGet, "/api/products?search=mixer&sort=price-asc", nil, false)
	require.Equal(t, http.StatusOK, r.Status)
	require.Len(t, r.list(), 2)
	assert.Equal(t, "spiral-dough-mixer", r.list()[0].(map[string]interface{})["slug"])
	assert.EqualValues(t, 2, r.Body["pagination"].(map[string]interface{})["total_items"])
	assert.NotNil(t, r.Body["counts"])

	r = env.call(t, http.MethodGet, "/api/products?sort=bogus", nil, false)
	assert.Equal(t, http.StatusBadRequest, r.Status)

	r = env.call(t, http.MethodGet, "/api/products/spiral-dough-mixer", nil, false)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, mixer["id"], r.data()["id"])

	r = env.call(t, http.MethodGet, "/api/products/spiral-dough-mixer/related", nil, false)
	require.Equal(t, http.StatusOK, r.Status)
	require.NotEmpty(t, r.list())
	first := r.list()[0].(map[string]interface{})
	assert.Equal(t, "planetary-mixer", first["product"].(map[string]interface{})["slug"])

	r = env.call(t, http.MethodPost, "/api/products", fiber.Map{"title": "Spiral Dough Mixer", "hero_image": "x.jpg"}, true)
	assert.Equal(t, http.StatusConflict, r.Status)
	assert.Equal(t, "SLUG_CONFLICT", r.Body["code"])

	r = env.call(t, http.MethodPatch, "/api/products/bulk", fiber.Map{
		"ids":      []interface{}{mixer["id"], "00000000-0000-0000-0000-000000000001"},
		"featured": true,
	}, true)
	require.Equal(t, http.StatusOK, r.Status)
	results := r.list()
	require.Len(t, results, 2)
	assert.Equal(t, true, results[0].(map[string]interface{})["success"])
	assert.Equal(t, false, results[1].(map[string]interface{})["success"])

	r = env.call(t, http.MethodPost, "/api/products/tags/generate", fiber.Map{
		"title": "Copper Handi", "tags": []string{"serveware"},
	}, true)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Contains(t, r.data()["tags"], "serveware")
	assert.Contains(t, r.data()["tags"], "copper")

	r = env.call(t, http.MethodDelete, "/api/products/"+mixer["id"].(string), nil, true)
	assert.Equal(t, http.StatusOK, r.Status)
	r = env.call(t, http.MethodGet, "/api/products/spiral-dough-mixer", nil, false)
	assert.Equal(t, http.StatusNotFound, r.Status)
}

func TestCartCheckoutIntoEnquiry(t *testing.T) {
	env := newTestEnv(t)

	r := env.call(t, http.MethodPost, "/api/products", fiber.Map{
		"title": "Copper Handi", "hero_image": "handi.jpg", "price": 120,
	}, true)
	require.Equal(t, http.StatusCreated, r.Status)
	handi := r.data()

	r = env.call(t, http.MethodPost, "/api/cart/items", fiber.Map{"product_id": handi["id"], "quantity": 2}, false)
	require.Equal(t, http.StatusOK, r.Status)
	assert.EqualValues(t, 2, r.data()["total_items"])
	require.NotEmpty(t, env.cookie)

	r = env.call(t, http.MethodGet, "/api/cart", nil, false)
	assert.EqualValues(t, 240, r.data()["total_price"])

	r = env.call(t, http.MethodPost, "/api/enquiries", fiber.Map{
		"phone": "+1 555 777 8888", "message": "Need these", "use_cart": true,
	}, false)
	require.Equal(t, http.StatusCreated, r.Status, r.Body)
	e := r.data()
	assert.Equal(t, string(models.EnquiryCartPlusEnquiry), e["type"])
	assert.Len(t, e["items"], 1)
	assert.Contains(t, r.Body["whatsapp"], "https://wa.me/15550102030?text=")

	r = env.call(t, http.MethodGet, "/api/cart", nil, false)
	assert.EqualValues(t, 0, r.data()["total_items"])
}

func TestEnquiryWorkflowRoutes(t *testing.T) {
	env := newTestEnv(t)

	r := env.call(t, http.MethodPost, "/api/enquiries", fiber.Map{"phone": ""}, false)
	assert.Equal(t, http.StatusBadRequest, r.Status)

	r = env.call(t, http.MethodPost, "/api/enquiries", fiber.Map{"phone": "5550001", "name": "Ann"}, false)
	require.Equal(t, http.StatusCreated, r.Status)
	path := "/api/enquiries/" + r.data()["id"].(string)

	r = env.call(t, http.MethodGet, path, nil, false)
	assert.Equal(t, http.StatusUnauthorized, r.Status)

	for _, status := range []string{"in-progress", "closed"} {
		r = env.call(t, http.MethodPut, path, fiber.Map{"status": status}, true)
		require.Equal(t, http.StatusOK, r.Status, r.Body)
		assert.Equal(t, status, r.data()["status"])
	}

	r = env.call(t, http.MethodPut, path, fiber.Map{"status": "in-progress"}, true)
	assert.Equal(t, http.StatusConflict, r.Status)
	assert.Equal(t, "INVALID_TRANSITION", r.Body["code"])

	r = env.call(t, http.MethodPost, path+"/reopen", nil, true)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, "new", r.data()["status"])

	r = env.call(t, http.MethodGet, path, nil, true)
	require.Equal(t, http.StatusOK, r.Status)
	messages := r.data()["messages"].([]interface{})
	require.Len(t, messages, 3)
	last := messages[2].(map[string]interface{})
	assert.Equal(t, "system", last["sender"])
	assert.Equal(t, "admin", last["created_by"])

	r = env.call(t, http.MethodGet, "/api/enquiries?status=new", nil, true)
	require.Equal(t, http.StatusOK, r.Status)
	assert.Equal(t, enquiryListCacheControl, r.Header.Get("Cache-Control"))
	assert.Len(t, r.list(), 1)
	counts := r.Body["counts"].(map[string]interface{})
	assert.EqualValues(t, 1, counts["new"])
}
