package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, Initial: time.Millisecond, Max: 2 * time.Millisecond}
}

func TestExecutor_RetriesConflicts(t *testing.T) {
	e := NewExecutor(time.Second, fastRetry(5), zap.NewNop())
	calls := 0
	err := e.RunWithRetry(context.Background(), "test.op", func(context.Context) error {
		calls++
		if calls < 3 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecutor_GivesUpAfterAttempts(t *testing.T) {
	e := NewExecutor(time.Second, fastRetry(3), zap.NewNop())
	calls := 0
	err := e.RunWithRetry(context.Background(), "test.op", func(context.Context) error {
		calls++
		return shared.ErrConcurrencyConflict
	})
	assert.True(t, shared.IsCode(err, shared.CodeConcurrencyConflict))
	assert.Equal(t, 3, calls)
}

func TestExecutor_DoesNotRetryOtherErrors(t *testing.T) {
	e := NewExecutor(time.Second, fastRetry(5), zap.NewNop())
	calls := 0
	err := e.RunWithRetry(context.Background(), "test.op", func(context.Context) error {
		calls++
		return shared.NewDomainError(shared.CodeStaleState, "moved")
	})
	assert.True(t, shared.IsCode(err, shared.CodeStaleState))
	assert.Equal(t, 1, calls)
}

func TestExecutor_DeadlineBecomesTimeout(t *testing.T) {
	e := NewExecutor(10*time.Millisecond, fastRetry(1), zap.NewNop())
	err := e.Run(context.Background(), "test.slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.True(t, shared.IsCode(err, shared.CodeTimeout))

	err = e.Run(context.Background(), "test.slow.wrapped", func(ctx context.Context) error {
		<-ctx.Done()
		return errors.New("driver: canceling statement")
	})
	assert.True(t, shared.IsCode(err, shared.CodeTimeout))
}

type stubLocker struct {
	err      error
	released bool
}

func (l *stubLocker) Lock(context.Context, string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	return func() { l.released = true }, nil
}

func TestWithLock(t *testing.T) {
	l := &stubLocker{}
	ran := false
	require.NoError(t, WithLock(context.Background(), l, "k", func(context.Context) error {
		ran = true
		return nil
	}))
	assert.True(t, ran)
	assert.True(t, l.released)

	failing := &stubLocker{err: errors.New("redis down")}
	err := WithLock(context.Background(), failing, "k", func(context.Context) error { return nil })
	assert.True(t, shared.IsCode(err, shared.CodeTimeout))
}

type fakeAggregate struct {
	shared.BaseAggregateRoot
}

type recordingPublisher struct {
	got []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.got = append(p.got, events...)
	return nil
}

func TestPublishPending(t *testing.T) {
	a := &fakeAggregate{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	evt := shared.NewBaseDomainEvent("Something", "Fake", uuid.New())
	a.AddDomainEvent(&evt)
	pub := &recordingPublisher{}

	require.NoError(t, PublishPending(context.Background(), pub, a))
	assert.Len(t, pub.got, 1)
	assert.Empty(t, a.GetDomainEvents())
}

type orderLocker struct {
	taken []string
}

func (l *orderLocker) Lock(_ context.Context, key string) (func(), error) {
	l.taken = append(l.taken, key)
	return func() {}, nil
}

func TestWithLocks_SortedAndDeduplicated(t *testing.T) {
	l := &orderLocker{}
	err := WithLocks(context.Background(), l, []string{"ledger:INVESTOR_POOL:b", "ledger:BRANCH:a", "ledger:BRANCH:a"}, func(context.Context) error {
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ledger:BRANCH:a", "ledger:INVESTOR_POOL:b"}, l.taken)
}
