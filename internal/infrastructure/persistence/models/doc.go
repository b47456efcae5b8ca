// Package models contains GORM-specific persistence models that map to database tables.
// These models are separate from domain entities to keep the domain layer pure and free
// from ORM concerns.
//
// Key Principles:
// 1. Domain entities carry no GORM tags
// 2. Persistence models contain all GORM annotations and table mappings
// 3. ToDomain / FromDomain convert between the two
// 4. Repositories use persistence models for database operations
//
// Structure:
// - base.go: BaseModel, AggregateModel and the AutoMigrate list
// - inventory.go: serialized items and per (product, branch) stock counters
// - ledger.go: ledger accounts and immutable entries
// - transfer.go: transfers, their lines and transition history
// - distribution.go: investors, capital contributions, finalized distributions
//
// The outbox table is mapped by shared.OutboxEntry directly.
package models
