// Package common holds the call envelope every application service runs
// its operations in: storage timeout, tracing span, operation metrics and
// bounded retry of optimistic-lock conflicts.
package common

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/infrastructure/logger"
	"github.com/erp/retailcore/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// RetryPolicy bounds the retry of single-owner conflicts
type RetryPolicy struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// DefaultRetryPolicy matches the configuration defaults
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{Attempts: 5, Initial: 10 * time.Millisecond, Max: 200 * time.Millisecond}
}

// Executor runs service operations
type Executor struct {
	timeout time.Duration
	retry   RetryPolicy
	logger  *zap.Logger
	metrics *telemetry.BusinessMetrics
}

// NewExecutor creates an executor. A zero timeout disables the deadline.
func NewExecutor(timeout time.Duration, retry RetryPolicy, log *zap.Logger) *Executor {
	if retry.Attempts < 1 {
		retry.Attempts = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{timeout: timeout, retry: retry, logger: log}
}

// SetBusinessMetrics enables operation and conflict metrics
func (e *Executor) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	e.metrics = bm
}

// Metrics returns the business metrics, possibly nil (all methods are nil-safe)
func (e *Executor) Metrics() *telemetry.BusinessMetrics {
	return e.metrics
}

// Logger returns the base logger enriched with ctx correlation fields
func (e *Executor) Logger(ctx context.Context) *zap.Logger {
	return logger.L(ctx, e.logger)
}

// Run executes fn under the storage timeout inside a span named op
func (e *Executor) Run(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, op, attribute.String("operation", op))
	start := time.Now()

	callCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	err := shared.TranslateContextError(fn(callCtx))
	if err != nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) && !shared.IsCode(err, shared.CodeTimeout) {
		if _, domain := shared.AsDomainError(err); !domain {
			err = shared.NewDomainErrorf(shared.CodeTimeout, "%s exceeded its deadline: %v", op, err)
		}
	}

	code := ""
	if err != nil {
		code = "INTERNAL"
		if de, ok := shared.AsDomainError(err); ok {
			code = de.Code
		}
	}
	e.metrics.ObserveOperation(ctx, op, start, code)
	telemetry.EndSpan(span, err)
	return err
}

// RunWithRetry is Run with fn retried on CONCURRENCY_CONFLICT using bounded
// exponential backoff. Every other error ends the loop at once.
func (e *Executor) RunWithRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	return e.Run(ctx, op, func(ctx context.Context) error {
		return e.Retry(ctx, op, fn)
	})
}

// Retry runs fn until it succeeds, fails with a non-conflict error, or the
// attempts are used up
func (e *Executor) Retry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = e.retry.Initial
	b.MaxInterval = e.retry.Max
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(e.retry.Attempts-1)), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := fn(ctx)
		if err == nil || !shared.IsCode(err, shared.CodeConcurrencyConflict) {
			if err != nil {
				return backoff.Permanent(err)
			}
			return nil
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		e.metrics.RecordConflictRetry(ctx, op)
		e.Logger(ctx).Warn("optimistic lock conflict, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", wait),
			zap.Error(err),
		)
	}
	err := backoff.RetryNotify(operation, policy, notify)
	return shared.TranslateContextError(err)
}

// WithLock holds the locker key while fn runs. Lock acquisition failures
// surface as TIMEOUT.
func WithLock(ctx context.Context, locker shared.Locker, key string, fn func(ctx context.Context) error) error {
	unlock, err := locker.Lock(ctx, key)
	if err != nil {
		if shared.IsCode(err, shared.CodeTimeout) {
			return err
		}
		return shared.NewDomainErrorf(shared.CodeTimeout, "could not acquire lock %s: %v", key, shared.TranslateContextError(err))
	}
	defer unlock()
	return fn(ctx)
}

// WithLocks holds every key while fn runs. Keys are deduplicated and taken
// in sorted order so two callers never wait on each other in a cycle.
func WithLocks(ctx context.Context, locker shared.Locker, keys []string, fn func(ctx context.Context) error) error {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	var acquire func(i int, ctx context.Context) error
	acquire = func(i int, ctx context.Context) error {
		if i == len(sorted) {
			return fn(ctx)
		}
		if i > 0 && sorted[i] == sorted[i-1] {
			return acquire(i+1, ctx)
		}
		return WithLock(ctx, locker, sorted[i], func(ctx context.Context) error {
			return acquire(i+1, ctx)
		})
	}
	return acquire(0, ctx)
}

// PublishPending writes the pending events of every aggregate through
// publisher and clears them
func PublishPending(ctx context.Context, publisher shared.EventPublisher, aggregates ...shared.AggregateRoot) error {
	var events []shared.DomainEvent
	for _, a := range aggregates {
		events = append(events, a.GetDomainEvents()...)
	}
	if len(events) == 0 {
		return nil
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		return err
	}
	for _, a := range aggregates {
		a.ClearDomainEvents()
	}
	return nil
}
