package testutil

import (
	"context"
	"net/http"
	"testing"

	"github.com/erp/retailcore/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTestContext(t *testing.T) {
	tc := NewTestContext(t)

	assert.NotNil(t, tc.Engine)
	assert.Equal(t, http.MethodGet, tc.Context.Request.Method)

	tc.SetRequestID("req-123")
	tc.SetActorID("clerk-1")
	tc.SetHeader("X-Test", "v")

	assert.Equal(t, "req-123", tc.Context.GetString("request_id"))
	assert.Equal(t, "clerk-1", tc.Context.GetString("actor_id"))
	assert.Equal(t, "v", tc.Context.Request.Header.Get("X-Test"))
}

func TestNewTestUUID(t *testing.T) {
	assert.Equal(t, NewTestUUID("seed"), NewTestUUID("seed"))
	assert.NotEqual(t, NewTestUUID("seed"), NewTestUUID("other"))
	assert.Equal(t, TestActorID(), TestActorID())
}

func TestRunHTTPTestCase(t *testing.T) {
	echo := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{
			"id":    c.Param("id"),
			"actor": c.GetString("actor_id"),
			"echo":  c.GetHeader("X-Echo"),
		}})
	}

	RunHTTPTestCase(t, echo, HTTPTestCase{
		Params:         gin.Params{{Key: "id", Value: "T-1"}},
		Actor:          "clerk-7",
		Headers:        map[string]string{"X-Echo": "hi"},
		ExpectedStatus: http.StatusOK,
		Validate: func(t *testing.T, tc *TestContext) {
			AssertSuccessResponse(t, tc)
			body := JSONResponseAs[struct {
				Data struct {
					ID    string `json:"id"`
					Actor string `json:"actor"`
					Echo  string `json:"echo"`
				} `json:"data"`
			}](t, tc)
			assert.Equal(t, "T-1", body.Data.ID)
			assert.Equal(t, "clerk-7", body.Data.Actor)
			assert.Equal(t, "hi", body.Data.Echo)
		},
	})
}

func TestRunHTTPTestCaseExpectedCode(t *testing.T) {
	stale := func(c *gin.Context) {
		c.JSON(http.StatusConflict, gin.H{"success": false, "error": gin.H{"code": "STALE_STATE"}})
	}
	RunHTTPTestCase(t, stale, HTTPTestCase{
		Method:         http.MethodPost,
		Body:           map[string]string{"reason": "x"},
		ExpectedStatus: http.StatusConflict,
		ExpectedCode:   "STALE_STATE",
	})
}

func TestNewHarness(t *testing.T) {
	h := NewHarness(t)
	ctx := context.Background()

	branch := h.OpenBranch(t, "north")
	item := h.Receive(t, NewTestUUID("product"), branch, "H-1", "10")
	assert.Equal(t, "AVAILABLE", item.Status)

	level, err := h.Inventory.GetAvailableCount(ctx, item.ProductID, branch)
	require.NoError(t, err)
	assert.Equal(t, int64(1), level.Available)

	pool, err := h.Ledger.GetAccount(ctx, "INVESTOR_POOL", h.PoolOwnerID)
	require.NoError(t, err)
	assert.True(t, pool.Balance.IsZero())
}

func TestNewSQLiteDatabaseUsesZapGormLogger(t *testing.T) {
	db := NewSQLiteDatabase(t)
	assert.IsType(t, &logger.GormLogger{}, db.DB.Config.Logger)
}
