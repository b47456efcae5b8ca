package event

import (
	"context"

	"github.com/erp/retailcore/internal/domain/shared"
	"gorm.io/gorm"
)

// OutboxPublisher writes domain events to the outbox table
type OutboxPublisher struct {
	serializer *Serializer
}

// NewOutboxPublisher creates a publisher using serializer
func NewOutboxPublisher(serializer *Serializer) *OutboxPublisher {
	return &OutboxPublisher{serializer: serializer}
}

// PublishWithTx stores events through tx so they commit or roll back with
// the state change that raised them
func (p *OutboxPublisher) PublishWithTx(ctx context.Context, tx *gorm.DB, events ...shared.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}
	entries := make([]*shared.OutboxEntry, 0, len(events))
	for _, evt := range events {
		payload, err := p.serializer.Serialize(evt)
		if err != nil {
			return err
		}
		entries = append(entries, shared.NewOutboxEntry(evt, payload))
	}
	return NewGormOutboxRepository(tx).Save(ctx, entries...)
}

// Writer binds the publisher to tx
func (p *OutboxPublisher) Writer(tx *gorm.DB) shared.EventPublisher {
	return txWriter{publisher: p, tx: tx}
}

type txWriter struct {
	publisher *OutboxPublisher
	tx        *gorm.DB
}

func (w txWriter) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return w.publisher.PublishWithTx(ctx, w.tx, events...)
}
