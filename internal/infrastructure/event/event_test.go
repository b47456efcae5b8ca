package event

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEvent struct {
	shared.BaseDomainEvent
	Note string `json:"note"`
}

const testEventType = "TestHappened"

func newTestEvent(note string) *testEvent {
	return &testEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(testEventType, "Test", uuid.New()),
		Note:            note,
	}
}

type recordingHandler struct {
	types []string
	seen  []shared.DomainEvent
	err   error
}

func (h *recordingHandler) EventTypes() []string { return h.types }

func (h *recordingHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	h.seen = append(h.seen, evt)
	return h.err
}

type panicHandler struct{}

func (panicHandler) EventTypes() []string { return nil }
func (panicHandler) Handle(context.Context, shared.DomainEvent) error {
	panic("boom")
}

type memIdempotency struct{ seen map[string]bool }

func (m *memIdempotency) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}
func (m *memIdempotency) IsProcessed(_ context.Context, key string) (bool, error) {
	return m.seen[key], nil
}
func (m *memIdempotency) Forget(_ context.Context, key string) error {
	delete(m.seen, key)
	return nil
}
func (m *memIdempotency) Close() error { return nil }

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:event_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&shared.OutboxEntry{}))
	return db
}

func TestInMemoryEventBus_RoutesByType(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	typed := &recordingHandler{types: []string{testEventType}}
	other := &recordingHandler{types: []string{"Other"}}
	all := &recordingHandler{}
	bus.Subscribe(typed)
	bus.Subscribe(other)
	bus.Subscribe(all)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("a")))

	assert.Len(t, typed.seen, 1)
	assert.Empty(t, other.seen)
	assert.Len(t, all.seen, 1)

	bus.Unsubscribe(typed)
	require.NoError(t, bus.Publish(context.Background(), newTestEvent("b")))
	assert.Len(t, typed.seen, 1)
	assert.Len(t, all.seen, 2)
}

func TestInMemoryEventBus_JoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{err: errors.New("down")}
	healthy := &recordingHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(panicHandler{})
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "down")
	assert.Contains(t, err.Error(), "panicked")
	assert.Len(t, healthy.seen, 1)
}

func TestSerializer_RoundTripsRegisteredEvents(t *testing.T) {
	s := NewDefaultSerializer()
	assert.True(t, s.IsRegistered(ledger.EventTypeEntryPosted))
	assert.False(t, s.IsRegistered(testEventType))

	s.Register(testEventType, &testEvent{})
	original := newTestEvent("hello")
	payload, err := s.Serialize(original)
	require.NoError(t, err)

	decoded, err := s.Deserialize(testEventType, payload)
	require.NoError(t, err)
	got, ok := decoded.(*testEvent)
	require.True(t, ok)
	assert.Equal(t, original.EventID(), got.EventID())
	assert.Equal(t, original.AggregateID(), got.AggregateID())
	assert.Equal(t, "hello", got.Note)

	_, err = s.Deserialize("Nope", payload)
	assert.Error(t, err)
}

func TestOutboxPublisher_RollsBackWithTransaction(t *testing.T) {
	db := newTestDB(t)
	s := NewSerializer()
	s.Register(testEventType, &testEvent{})
	pub := NewOutboxPublisher(s)
	ctx := context.Background()

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := pub.Writer(tx).Publish(ctx, newTestEvent("lost")); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&shared.OutboxEntry{}).Count(&count).Error)
	assert.Zero(t, count)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return pub.Writer(tx).Publish(ctx, newTestEvent("kept"))
	}))
	require.NoError(t, db.Model(&shared.OutboxEntry{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestOutboxProcessor_DeliversAndRetries(t *testing.T) {
	db := newTestDB(t)
	s := NewSerializer()
	s.Register(testEventType, &testEvent{})
	repo := NewGormOutboxRepository(db)
	ctx := context.Background()

	require.NoError(t, NewOutboxPublisher(s).Writer(db).Publish(ctx, newTestEvent("one"), newTestEvent("two")))

	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{err: errors.New("unavailable")}
	bus.Subscribe(handler)
	proc := NewOutboxProcessor(repo, bus, s, ProcessorConfig{BatchSize: 10}, zap.NewNop())

	proc.ProcessOnce(ctx)
	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[shared.OutboxStatusFailed])
	assert.Len(t, handler.seen, 2)

	// Make the failed entries due and let the handler recover.
	require.NoError(t, db.Model(&shared.OutboxEntry{}).
		Where("status = ?", shared.OutboxStatusFailed).
		Update("next_retry_at", time.Now().Add(-time.Minute)).Error)
	handler.err = nil

	proc.ProcessOnce(ctx)
	counts, err = repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[shared.OutboxStatusSent])
	assert.Zero(t, counts[shared.OutboxStatusFailed])

	deleted, err := repo.DeleteSentBefore(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	db := newTestDB(t)
	proc := NewOutboxProcessor(NewGormOutboxRepository(db), NewInMemoryEventBus(zap.NewNop()), NewSerializer(),
		ProcessorConfig{PollInterval: 10 * time.Millisecond, CleanupEnabled: true, CleanupInterval: 10 * time.Millisecond}, zap.NewNop())
	proc.Start(context.Background())
	time.Sleep(30 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, proc.Stop(ctx))
}

func TestGormOutboxRepository_FindPendingQuery(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "event_id", "event_type", "status"}).
		AddRow(uuid.NewString(), uuid.NewString(), testEventType, string(shared.OutboxStatusPending))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "outbox_events" WHERE status = $1 ORDER BY created_at ASC LIMIT $2`)).
		WillReturnRows(rows)

	entries, err := NewGormOutboxRepository(db).FindPending(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, testEventType, entries[0].EventType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotentHandler_SkipsDuplicates(t *testing.T) {
	inner := &recordingHandler{types: []string{testEventType}}
	h := NewIdempotentHandler(inner, &memIdempotency{seen: map[string]bool{}}, time.Hour, zap.NewNop())
	evt := newTestEvent("once")

	require.NoError(t, h.Handle(context.Background(), evt))
	require.NoError(t, h.Handle(context.Background(), evt))

	assert.Len(t, inner.seen, 1)
	assert.Equal(t, []string{testEventType}, h.EventTypes())
	processed, skipped := h.Stats()
	assert.Equal(t, int64(1), processed)
	assert.Equal(t, int64(1), skipped)
}

func TestAuditLogHandler_ReceivesEverything(t *testing.T) {
	h := NewAuditLogHandler(zap.NewNop())
	assert.Empty(t, h.EventTypes())
	assert.NoError(t, h.Handle(context.Background(), newTestEvent("audit")))
}
