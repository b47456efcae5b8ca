package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/infrastructure/logger"
	"github.com/erp/retailcore/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client's retry key on mutating requests
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 200

// Idempotency rejects a POST whose Idempotency-Key was already used by the
// same actor on the same path within ttl. Requests without the header pass
// through. A key is released again when its request ends in a server error
// or timeout, since nothing was committed and the client may retry.
func Idempotency(store shared.IdempotencyStore, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			abortWithError(c, dto.ErrCodeBadRequest, "Idempotency-Key is too long")
			return
		}

		scoped := "http:" + GetActorID(c) + ":" + c.Request.URL.Path + ":" + key
		fresh, err := store.MarkProcessed(c.Request.Context(), scoped, ttl)
		if err != nil {
			// the store being down must not block writes
			logger.FromGin(c).Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}
		if !fresh {
			abortWithError(c, dto.ErrCodeDuplicateRequest, "Request with this Idempotency-Key was already processed")
			return
		}
		c.Next()

		if c.Writer.Status() >= http.StatusInternalServerError {
			if err := store.Forget(context.WithoutCancel(c.Request.Context()), scoped); err != nil {
				logger.FromGin(c).Warn("idempotency key not released", zap.String("key", key), zap.Error(err))
			}
		}
	}
}
