package storage

import (
	"context"

	"github.com/poiesic/slidevault/core"
)

// SlideRepository persists normalized slide records and deck metadata.
// Implementations must be thread-safe and support concurrent access.
type SlideRepository interface {
	// UpsertSlideRecords inserts or fully replaces slide records.
	// Replacement is atomic per record: readers never observe a partially
	// updated record. InsertedAt is preserved across replacement.
	UpsertSlideRecords(ctx context.Context, records ...*core.SlideRecord) error

	// GetSlideRecord retrieves a single slide record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetSlideRecord(ctx context.Context, id core.ID) (*core.SlideRecord, error)

	// GetSlideRecords retrieves multiple slide records by their IDs.
	// Returns only the records that exist (no error for missing records).
	GetSlideRecords(ctx context.Context, ids ...core.ID) ([]*core.SlideRecord, error)

	// GetSlideRecordsByDeck retrieves all slide records of a deck, ordered
	// by slide number.
	GetSlideRecordsByDeck(ctx context.Context, deckId core.ID) ([]*core.SlideRecord, error)

	// DeleteSlideRecords removes slide records by their IDs.
	// Deleting a non-existent id is a no-op, not an error.
	DeleteSlideRecords(ctx context.Context, ids ...core.ID) error

	// DeleteDeck removes a deck and all of its slide records.
	// Returns the IDs of the removed slides so callers can cascade removal
	// to the search index.
	DeleteDeck(ctx context.Context, deckId core.ID) ([]core.ID, error)

	// ForEachSlideRecord visits every stored slide record. Used to rebuild
	// the search index on open. Iteration stops on the first error from fn.
	ForEachSlideRecord(ctx context.Context, fn func(record *core.SlideRecord) error) error

	// UpsertDeck inserts or replaces deck metadata.
	UpsertDeck(ctx context.Context, deck *core.Deck) error

	// GetDeck retrieves deck metadata by ID.
	// Returns ErrNotFound if the deck doesn't exist.
	GetDeck(ctx context.Context, id core.ID) (*core.Deck, error)

	// Close closes the repository and releases resources.
	Close() error
}

// GrantRepository persists access requests and grants.
// Implementations must be thread-safe; callers serialize state transitions.
type GrantRepository interface {
	// AddRequest persists a new access request and its pending marker.
	AddRequest(ctx context.Context, request *core.AccessRequest) error

	// GetRequest retrieves a request by ID.
	// Returns ErrNotFound if the request doesn't exist.
	GetRequest(ctx context.Context, id string) (*core.AccessRequest, error)

	// FindPendingRequest finds the pending request for a (slide, requester)
	// pair. Returns nil, nil when none is pending.
	FindPendingRequest(ctx context.Context, slideId core.ID, requesterId string) (*core.AccessRequest, error)

	// UpdateRequest persists a state transition, clearing the pending
	// marker when the request leaves the pending state.
	UpdateRequest(ctx context.Context, request *core.AccessRequest) error

	// AddGrant persists a newly issued grant.
	AddGrant(ctx context.Context, grant *core.Grant) error

	// GetGrant retrieves a grant by ID.
	// Returns ErrNotFound if the grant doesn't exist.
	GetGrant(ctx context.Context, id string) (*core.Grant, error)

	// UpdateGrant persists a revocation marker. Grants are never deleted.
	UpdateGrant(ctx context.Context, grant *core.Grant) error

	// GrantsForRequester retrieves all grants ever issued to a requester,
	// including revoked and expired ones.
	GrantsForRequester(ctx context.Context, requesterId string) ([]*core.Grant, error)

	// Close closes the repository and releases resources.
	Close() error
}

// AuditLog is the append-only audit sink. Entries must be durable before
// Append returns; they are never edited or truncated by this subsystem.
type AuditLog interface {
	// Append assigns the entry a sequence number and persists it.
	Append(ctx context.Context, entry *core.AuditEntry) error

	// Entries returns entries in append order. A limit <= 0 returns all.
	Entries(ctx context.Context, limit int) ([]*core.AuditEntry, error)

	// Close closes the log and releases resources.
	Close() error
}
