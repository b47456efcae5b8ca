package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// Attribute keys
const (
	AttrOwnerKind   = attribute.Key("ledger.owner_kind")
	AttrEntryType   = attribute.Key("ledger.entry_type")
	AttrDirection   = attribute.Key("ledger.direction")
	AttrOperation   = attribute.Key("operation")
	AttrOutcome     = attribute.Key("outcome")
	AttrFromStatus  = attribute.Key("transfer.from_status")
	AttrToStatus    = attribute.Key("transfer.to_status")
	AttrErrorCode   = attribute.Key("error.code")
	AttrItemStatus  = attribute.Key("inventory.to_status")
	AttrLockBackend = attribute.Key("lock.backend")
)

// BusinessMetrics records the core's domain activity
type BusinessMetrics struct {
	entriesPosted      *Counter
	amountPosted       *Histogram
	transferTransition *Counter
	transferProfit     *Histogram
	itemTransitions    *Counter
	distributions      *Counter
	distributedAmount  *Histogram
	conflictRetries    *Counter
	operationErrors    *Counter
	operationDuration  *Histogram
}

// NewBusinessMetrics creates every business instrument on meter
func NewBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	bm := &BusinessMetrics{}
	var err error

	if bm.entriesPosted, err = NewCounter(meter, "retail_ledger_entries_posted_total",
		"Ledger entries posted", "{entries}"); err != nil {
		return nil, err
	}
	if bm.amountPosted, err = NewHistogram(meter, "retail_ledger_entry_amount",
		"Amount of posted ledger entries", "{currency}", nil); err != nil {
		return nil, err
	}
	if bm.transferTransition, err = NewCounter(meter, "retail_transfer_transitions_total",
		"Transfer state transitions", "{transitions}"); err != nil {
		return nil, err
	}
	if bm.transferProfit, err = NewHistogram(meter, "retail_transfer_profit",
		"Profit realised by completed transfers", "{currency}", nil); err != nil {
		return nil, err
	}
	if bm.itemTransitions, err = NewCounter(meter, "retail_inventory_item_transitions_total",
		"Serialized item status changes", "{items}"); err != nil {
		return nil, err
	}
	if bm.distributions, err = NewCounter(meter, "retail_distributions_finalized_total",
		"Finalized profit distributions", "{distributions}"); err != nil {
		return nil, err
	}
	if bm.distributedAmount, err = NewHistogram(meter, "retail_distribution_pool_amount",
		"Investor pool amount per finalized period", "{currency}", nil); err != nil {
		return nil, err
	}
	if bm.conflictRetries, err = NewCounter(meter, "retail_conflict_retries_total",
		"Optimistic concurrency retries", "{retries}"); err != nil {
		return nil, err
	}
	if bm.operationErrors, err = NewCounter(meter, "retail_operation_errors_total",
		"Service operations that returned an error", "{errors}"); err != nil {
		return nil, err
	}
	if bm.operationDuration, err = NewHistogram(meter, "retail_operation_duration_seconds",
		"Service operation latency", "s", []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}); err != nil {
		return nil, err
	}
	return bm, nil
}

// RecordEntryPosted counts a ledger entry
func (bm *BusinessMetrics) RecordEntryPosted(ctx context.Context, ownerKind, entryType, direction string, amount decimal.Decimal) {
	if bm == nil {
		return
	}
	attrs := []attribute.KeyValue{AttrOwnerKind.String(ownerKind), AttrEntryType.String(entryType), AttrDirection.String(direction)}
	bm.entriesPosted.Inc(ctx, attrs...)
	bm.amountPosted.Record(ctx, amount.InexactFloat64(), attrs...)
}

// RecordTransferTransition counts a transfer state change
func (bm *BusinessMetrics) RecordTransferTransition(ctx context.Context, from, to string) {
	if bm == nil {
		return
	}
	bm.transferTransition.Inc(ctx, AttrFromStatus.String(from), AttrToStatus.String(to))
}

// RecordTransferProfit records a completed transfer's profit
func (bm *BusinessMetrics) RecordTransferProfit(ctx context.Context, profit decimal.Decimal) {
	if bm == nil {
		return
	}
	bm.transferProfit.Record(ctx, profit.InexactFloat64())
}

// RecordItemTransitions counts item status changes
func (bm *BusinessMetrics) RecordItemTransitions(ctx context.Context, toStatus string, n int) {
	if bm == nil || n <= 0 {
		return
	}
	bm.itemTransitions.Add(ctx, int64(n), AttrItemStatus.String(toStatus))
}

// RecordDistributionFinalized counts a finalized period
func (bm *BusinessMetrics) RecordDistributionFinalized(ctx context.Context, pool decimal.Decimal) {
	if bm == nil {
		return
	}
	bm.distributions.Inc(ctx)
	bm.distributedAmount.Record(ctx, pool.InexactFloat64())
}

// RecordConflictRetry counts one optimistic retry of operation
func (bm *BusinessMetrics) RecordConflictRetry(ctx context.Context, operation string) {
	if bm == nil {
		return
	}
	bm.conflictRetries.Inc(ctx, AttrOperation.String(operation))
}

// ObserveOperation records latency and, on failure, the error code
func (bm *BusinessMetrics) ObserveOperation(ctx context.Context, operation string, start time.Time, errCode string) {
	if bm == nil {
		return
	}
	outcome := "ok"
	if errCode != "" {
		outcome = "error"
		bm.operationErrors.Inc(ctx, AttrOperation.String(operation), AttrErrorCode.String(errCode))
	}
	bm.operationDuration.Record(ctx, time.Since(start).Seconds(), AttrOperation.String(operation), AttrOutcome.String(outcome))
}
