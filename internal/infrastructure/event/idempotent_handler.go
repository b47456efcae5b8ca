package event

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/erp/retailcore/internal/domain/shared"
	"go.uber.org/zap"
)

// IdempotentHandler skips events whose id was already handled within ttl.
// The outbox delivers at least once; this turns that into effectively once.
type IdempotentHandler struct {
	handler shared.EventHandler
	store   shared.IdempotencyStore
	ttl     time.Duration
	logger  *zap.Logger

	processed atomic.Int64
	skipped   atomic.Int64
}

// NewIdempotentHandler wraps handler
func NewIdempotentHandler(handler shared.EventHandler, store shared.IdempotencyStore, ttl time.Duration, logger *zap.Logger) *IdempotentHandler {
	return &IdempotentHandler{handler: handler, store: store, ttl: ttl, logger: logger}
}

// EventTypes delegates to the wrapped handler
func (h *IdempotentHandler) EventTypes() []string { return h.handler.EventTypes() }

// Handle runs the wrapped handler once per event id. A store failure
// processes the event anyway: a duplicate is preferable to a dropped event.
func (h *IdempotentHandler) Handle(ctx context.Context, evt shared.DomainEvent) error {
	key := "event:" + evt.EventID().String()
	fresh, err := h.store.MarkProcessed(ctx, key, h.ttl)
	switch {
	case err != nil:
		h.logger.Warn("idempotency check failed, processing anyway",
			zap.String("event_id", evt.EventID().String()), zap.Error(err))
	case !fresh:
		h.skipped.Add(1)
		return nil
	}

	if err := h.handler.Handle(ctx, evt); err != nil {
		return err
	}
	h.processed.Add(1)
	return nil
}

// Stats returns processed and skipped counts
func (h *IdempotentHandler) Stats() (processed, skipped int64) {
	return h.processed.Load(), h.skipped.Load()
}

var _ shared.EventHandler = (*IdempotentHandler)(nil)
