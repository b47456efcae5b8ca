package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
	assert.Empty(t, r.middleware)
}

func TestRouterWithAPIVersion(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))
	r.Register(NewDomainGroup("test", "/test").GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})).Setup()

	assert.Equal(t, http.StatusOK, serve(engine, "GET", "/api/v2/test/ping").Code)
	assert.Equal(t, http.StatusNotFound, serve(engine, "GET", "/api/v1/test/ping").Code)
}

func TestRouterWithMiddleware(t *testing.T) {
	engine := gin.New()
	engine.GET("/outside", func(c *gin.Context) { c.String(http.StatusOK, "outside") })

	r := NewRouter(engine, WithMiddleware(func(c *gin.Context) {
		c.Header("X-Api", "yes")
		c.Next()
	}))
	r.Register(NewDomainGroup("test", "/test").GET("/inside", func(c *gin.Context) {
		c.String(http.StatusOK, "inside")
	})).Setup()

	inside := serve(engine, "GET", "/api/v1/test/inside")
	assert.Equal(t, "yes", inside.Header().Get("X-Api"))

	outside := serve(engine, "GET", "/outside")
	assert.Empty(t, outside.Header().Get("X-Api"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("transfer", "/transfers")
		assert.Equal(t, "transfer", g.Name())
		assert.Equal(t, "/transfers", g.Prefix())
	})

	t.Run("registers GET and POST routes", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test").
			GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "items") }).
			POST("/items", func(c *gin.Context) { c.String(http.StatusCreated, "created") })

		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusOK, serve(engine, "GET", "/api/v1/test/items").Code)
		assert.Equal(t, http.StatusCreated, serve(engine, "POST", "/api/v1/test/items").Code)
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, "applied", serve(engine, "GET", "/api/v1/test/items").Header().Get("X-Test-Middleware"))
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("ledger", "/ledgers")
		g.Group("branch", "/branch").GET("", func(c *gin.Context) { c.String(http.StatusOK, "branches") })
		g.Group("supplier", "/supplier").GET("", func(c *gin.Context) { c.String(http.StatusOK, "suppliers") })

		g.RegisterRoutes(engine.Group("/api/v1"))

		w1 := serve(engine, "GET", "/api/v1/ledgers/branch")
		assert.Equal(t, http.StatusOK, w1.Code)
		assert.Equal(t, "branches", w1.Body.String())

		w2 := serve(engine, "GET", "/api/v1/ledgers/supplier")
		assert.Equal(t, http.StatusOK, w2.Code)
		assert.Equal(t, "suppliers", w2.Body.String())
	})

	t.Run("lists routes including subgroups", func(t *testing.T) {
		noop := func(*gin.Context) {}
		g := NewDomainGroup("ledger", "/ledgers").GET("/:kind/accounts", noop)
		g.Group("entries", "/entries").POST("/:id/reverse", noop)

		assert.Equal(t, []string{
			"GET /ledgers/:kind/accounts",
			"POST /ledgers/entries/:id/reverse",
		}, g.Routes())
	})
}

func TestMultipleDomainGroups(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	inventory := NewDomainGroup("inventory", "/inventory").
		GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "items") })
	transfers := NewDomainGroup("transfer", "/transfers").
		GET("", func(c *gin.Context) { c.String(http.StatusOK, "transfers") })

	r.Register(inventory).Register(transfers)
	r.Setup()

	w1 := serve(engine, "GET", "/api/v1/inventory/items")
	assert.Equal(t, http.StatusOK, w1.Code)
	assert.Equal(t, "items", w1.Body.String())

	w2 := serve(engine, "GET", "/api/v1/transfers")
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, "transfers", w2.Body.String())
}

func TestGroupsCoverEveryOperation(t *testing.T) {
	var routes []string
	for _, g := range Groups(Handlers{}) {
		routes = append(routes, g.Routes()...)
	}

	for _, want := range []string{
		"POST /inventory/items",
		"GET /inventory/items/:id",
		"GET /inventory/items/serial/:serial",
		"POST /inventory/items/:id/transition",
		"POST /inventory/items/:id/write-off",
		"POST /inventory/reservations",
		"POST /inventory/reservations/release",
		"GET /inventory/stock",
		"POST /ledgers/:kind/accounts",
		"POST /ledgers/:kind/:owner_id/entries",
		"GET /ledgers/:kind/:owner_id/entries",
		"GET /ledgers/:kind/:owner_id/summary",
		"POST /ledgers/entries/:id/reverse",
		"POST /transfers",
		"GET /transfers/:id/history",
		"POST /transfers/:id/approve",
		"POST /transfers/:id/reject",
		"POST /transfers/:id/dispatch",
		"POST /transfers/:id/complete",
		"POST /transfers/:id/cancel",
		"GET /distributions/preview",
		"POST /distributions/finalize",
		"GET /distributions",
		"GET /distributions/:id",
		"POST /investors",
		"GET /investors",
		"POST /investors/:id/capital",
	} {
		assert.Contains(t, routes, want)
	}
}
