package router

import (
	"time"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/infrastructure/logger"
	"github.com/erp/retailcore/internal/interfaces/http/handler"
	"github.com/erp/retailcore/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// Handlers bundles the HTTP handlers of the service
type Handlers struct {
	System       *handler.SystemHandler
	Inventory    *handler.InventoryHandler
	Ledger       *handler.LedgerHandler
	Transfer     *handler.TransferHandler
	Distribution *handler.DistributionHandler
}

// Config selects the middleware of the engine. Nil RateLimiter or
// Idempotency disables that middleware.
type Config struct {
	Logger         *zap.Logger
	ServiceName    string
	TracingEnabled bool
	Meter          metric.Meter
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	TrustedProxies []string
	Actor          middleware.ActorConfig
	RateLimiter    *middleware.RateLimiter
	Idempotency    shared.IdempotencyStore
	IdempotencyTTL time.Duration
}

// New builds the gin engine with the middleware chain and every route
func New(cfg Config, h Handlers) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.Use(
		logger.Recovery(cfg.Logger),
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{ServiceName: cfg.ServiceName, Enabled: cfg.TracingEnabled}),
		logger.GinMiddleware(cfg.Logger),
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
		middleware.HTTPMetrics(cfg.Meter),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	engine.GET("/health", h.System.Health)
	engine.GET("/ping", h.System.Ping)

	apiMiddleware := []gin.HandlerFunc{middleware.Actor(cfg.Actor), middleware.SpanAttributes()}
	if cfg.RateLimiter != nil {
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(cfg.RateLimiter))
	}
	if cfg.Idempotency != nil {
		apiMiddleware = append(apiMiddleware, middleware.Idempotency(cfg.Idempotency, cfg.IdempotencyTTL))
	}

	r := NewRouter(engine, WithMiddleware(apiMiddleware...))
	for _, g := range Groups(h) {
		r.Register(g)
	}
	r.Setup()
	return engine, nil
}

// Groups returns the domain route groups mounted under /api/v1
func Groups(h Handlers) []*DomainGroup {
	system := NewDomainGroup("system", "/system").
		GET("/info", h.System.GetSystemInfo)

	inventory := NewDomainGroup("inventory", "/inventory").
		POST("/items", h.Inventory.ReceiveStock).
		GET("/items", h.Inventory.ListItems).
		GET("/items/serial/:serial", h.Inventory.GetItemBySerial).
		GET("/items/:id", h.Inventory.GetItem).
		POST("/items/:id/transition", h.Inventory.TransitionItem).
		POST("/items/:id/write-off", h.Inventory.WriteOff).
		POST("/reservations", h.Inventory.Reserve).
		POST("/reservations/release", h.Inventory.Release).
		GET("/stock", h.Inventory.GetAvailableCount)

	ledgers := NewDomainGroup("ledger", "/ledgers").
		POST("/entries/:id/reverse", h.Ledger.Reverse).
		POST("/:kind/accounts", h.Ledger.OpenAccount).
		GET("/:kind/accounts", h.Ledger.ListAccounts).
		GET("/:kind/:owner_id", h.Ledger.GetAccount).
		POST("/:kind/:owner_id/entries", h.Ledger.Post).
		GET("/:kind/:owner_id/entries", h.Ledger.GetEntries).
		GET("/:kind/:owner_id/summary", h.Ledger.GetSummary)

	suppliers := NewDomainGroup("supplier", "/suppliers").
		POST("/:id/purchases", h.Ledger.RecordPurchase).
		POST("/:id/payments", h.Ledger.RecordPayment)

	transfers := NewDomainGroup("transfer", "/transfers").
		POST("", h.Transfer.Create).
		GET("", h.Transfer.List).
		GET("/no/:transfer_no", h.Transfer.GetByNo).
		GET("/:id", h.Transfer.Get).
		GET("/:id/history", h.Transfer.History).
		POST("/:id/approve", h.Transfer.Approve).
		POST("/:id/reject", h.Transfer.Reject).
		POST("/:id/dispatch", h.Transfer.Dispatch).
		POST("/:id/complete", h.Transfer.Complete).
		POST("/:id/cancel", h.Transfer.Cancel)

	distributions := NewDomainGroup("distribution", "/distributions").
		GET("/preview", h.Distribution.Preview).
		POST("/finalize", h.Distribution.Finalize).
		GET("", h.Distribution.History).
		GET("/:id", h.Distribution.Details)

	investors := NewDomainGroup("investor", "/investors").
		POST("", h.Distribution.RegisterInvestor).
		GET("", h.Distribution.ListInvestors).
		POST("/:id/capital", h.Distribution.AddCapital)

	return []*DomainGroup{system, inventory, ledgers, suppliers, transfers, distributions, investors}
}
