package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erp/retailcore/internal/infrastructure/cache"
	"github.com/erp/retailcore/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func perform(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCORSWithConfig(t *testing.T) {
	engine := gin.New()
	engine.Use(CORSWithConfig(CORSConfig{
		AllowOrigins:     []string{"http://pos.local"},
		AllowMethods:     []string{"GET", "POST"},
		AllowHeaders:     []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           time.Hour,
	}))
	engine.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "http://pos.local")
		w := perform(engine, req)
		assert.Equal(t, "http://pos.local", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("foreign origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Origin", "http://evil.local")
		w := perform(engine, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", "http://pos.local")
		w := perform(engine, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "3600", w.Header().Get("Access-Control-Max-Age"))
	})
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, logger.RequestID(c.Request.Context()))
	})

	t.Run("generated", func(t *testing.T) {
		w := perform(engine, httptest.NewRequest(http.MethodGet, "/x", nil))
		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("propagated and truncated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("a", 300))
		w := perform(engine, req)
		assert.Len(t, w.Header().Get(RequestIDHeader), MaxRequestIDLength)
	})
}

func TestActorFromHeader(t *testing.T) {
	engine := gin.New()
	engine.Use(Actor(ActorConfig{}))
	engine.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, GetActorID(c)+"|"+logger.ActorID(c.Request.Context()))
	})

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(ActorIDHeader, "  clerk-9 ")
	w := perform(engine, req)
	assert.Equal(t, "clerk-9|clerk-9", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(ActorIDHeader, strings.Repeat("x", 200))
	assert.Equal(t, http.StatusBadRequest, perform(engine, req).Code)
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, 2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"))

	now = now.Add(time.Second)
	assert.True(t, rl.Allow("a"), "one token refills per second")

	assert.Equal(t, 2, rl.Clients())
	now = now.Add(2 * time.Minute)
	assert.Equal(t, 2, rl.Sweep())
	assert.Zero(t, rl.Clients())
}

func TestIdempotencyIgnoresReads(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(0)
	defer store.Close()

	engine := gin.New()
	engine.Use(Idempotency(store, time.Minute))
	engine.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	engine.POST("/x", func(c *gin.Context) { c.Status(http.StatusCreated) })

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(IdempotencyKeyHeader, "k")
		assert.Equal(t, http.StatusOK, perform(engine, req).Code)
	}

	codes := []int{}
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.Header.Set(IdempotencyKeyHeader, "k")
		codes = append(codes, perform(engine, req).Code)
	}
	assert.Equal(t, []int{http.StatusCreated, http.StatusConflict}, codes)
}

func TestIdempotencyScopesKeysByPathAndReleasesFailures(t *testing.T) {
	store := cache.NewInMemoryIdempotencyStore(0)
	defer store.Close()

	timeouts := 1
	engine := gin.New()
	engine.Use(Idempotency(store, time.Minute))
	engine.POST("/transfers/:id/complete", func(c *gin.Context) {
		if c.Param("id") == "slow" && timeouts > 0 {
			timeouts--
			c.Status(http.StatusGatewayTimeout)
			return
		}
		c.Status(http.StatusOK)
	})

	post := func(id string) int {
		req := httptest.NewRequest(http.MethodPost, "/transfers/"+id+"/complete", nil)
		req.Header.Set(IdempotencyKeyHeader, "shared-key")
		return perform(engine, req).Code
	}

	assert.Equal(t, http.StatusOK, post("t-1"))
	assert.Equal(t, http.StatusOK, post("t-2"), "same key on another transfer")
	assert.Equal(t, http.StatusConflict, post("t-1"))

	assert.Equal(t, http.StatusGatewayTimeout, post("slow"))
	assert.Equal(t, http.StatusOK, post("slow"), "a timed out request can be retried")
	assert.Equal(t, http.StatusConflict, post("slow"))
}

func TestBodyLimit(t *testing.T) {
	engine := gin.New()
	engine.Use(BodyLimit(8))
	engine.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(engine, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, w.Body.String(), "REQUEST_TOO_LARGE")

	w = perform(engine, httptest.NewRequest(http.MethodPost, "/x", strings.NewReader("0123")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterValidations(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterValidations(v))

	type req struct {
		Positive    decimal.Decimal `json:"positive" validate:"decimal_positive"`
		NonNegative decimal.Decimal `json:"non_negative" validate:"decimal_nonnegative"`
		NonZero     decimal.Decimal `json:"non_zero" validate:"decimal_nonzero"`
		Period      string          `json:"period" validate:"period"`
	}

	ok := req{
		Positive:    decimal.RequireFromString("0.01"),
		NonNegative: decimal.Zero,
		NonZero:     decimal.RequireFromString("-5"),
		Period:      "2025-02",
	}
	assert.NoError(t, v.Struct(ok))

	bad := req{
		Positive:    decimal.Zero,
		NonNegative: decimal.RequireFromString("-1"),
		NonZero:     decimal.Zero,
		Period:      "2025-13",
	}
	err := v.Struct(bad)
	require.Error(t, err)

	var fields []string
	for _, fe := range err.(validator.ValidationErrors) {
		fields = append(fields, fe.Field())
	}
	assert.ElementsMatch(t, []string{"positive", "non_negative", "non_zero", "period"}, fields)
}
