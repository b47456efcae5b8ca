package event

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/erp/retailcore/internal/domain/distribution"
	"github.com/erp/retailcore/internal/domain/inventory"
	"github.com/erp/retailcore/internal/domain/ledger"
	"github.com/erp/retailcore/internal/domain/shared"
	"github.com/erp/retailcore/internal/domain/transfer"
)

// Serializer converts domain events to JSON and back by event type
type Serializer struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
}

// NewSerializer creates a serializer with no registered types
func NewSerializer() *Serializer {
	return &Serializer{types: make(map[string]reflect.Type)}
}

// NewDefaultSerializer creates a serializer knowing every event of the core
func NewDefaultSerializer() *Serializer {
	s := NewSerializer()
	s.Register(inventory.EventTypeItemReceived, &inventory.ItemReceivedEvent{})
	s.Register(inventory.EventTypeItemStatusChanged, &inventory.ItemStatusChangedEvent{})
	s.Register(inventory.EventTypeItemRelocated, &inventory.ItemRelocatedEvent{})
	s.Register(ledger.EventTypeEntryPosted, &ledger.EntryPostedEvent{})
	s.Register(transfer.EventTypeTransferCreated, &transfer.TransferCreatedEvent{})
	for _, t := range transfer.StatusEventTypes() {
		s.Register(t, &transfer.TransferStatusEvent{})
	}
	s.Register(transfer.EventTypeTransferCompleted, &transfer.TransferCompletedEvent{})
	s.Register(distribution.EventTypeDistributionFinalized, &distribution.DistributionFinalizedEvent{})
	return s
}

// Register maps eventType to the concrete type of sample
func (s *Serializer) Register(eventType string, sample shared.DomainEvent) {
	t := reflect.TypeOf(sample)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	s.mu.Lock()
	s.types[eventType] = t
	s.mu.Unlock()
}

// Serialize encodes an event as JSON
func (s *Serializer) Serialize(evt shared.DomainEvent) ([]byte, error) {
	b, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", evt.EventType(), err)
	}
	return b, nil
}

// Deserialize decodes payload into the type registered for eventType
func (s *Serializer) Deserialize(eventType string, payload []byte) (shared.DomainEvent, error) {
	s.mu.RLock()
	t, ok := s.types[eventType]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
	ptr := reflect.New(t).Interface()
	if err := json.Unmarshal(payload, ptr); err != nil {
		return nil, fmt.Errorf("deserialize %s: %w", eventType, err)
	}
	evt, ok := ptr.(shared.DomainEvent)
	if !ok {
		return nil, fmt.Errorf("%s does not implement DomainEvent", t)
	}
	return evt, nil
}

// IsRegistered reports whether eventType can be decoded
func (s *Serializer) IsRegistered(eventType string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.types[eventType]
	return ok
}
