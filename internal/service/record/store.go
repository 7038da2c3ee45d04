package record

import "context"

// Store persists records and enforces Key uniqueness atomically. No
// implementation may check for a key and then write outside a single
// transaction, lock or conditional write.
//
// Records passed in carry CreatedAt and UpdatedAt set by the caller.
// Replace and the update branch of Upsert keep the stored CreatedAt.
type Store interface {
	// Insert stores a new record and assigns its ID. A taken key yields a
	// *DuplicateError.
	Insert(ctx context.Context, r *Record) (*Record, error)
	// Replace overwrites every field of record id. ErrNotFound when absent,
	// *DuplicateError when the new key belongs to another record.
	Replace(ctx context.Context, id string, r *Record) (*Record, error)
	// Upsert inserts r or overwrites the record holding r's key.
	Upsert(ctx context.Context, r *Record) (*Record, UpsertResult, error)
	// Delete removes record id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	// Get returns record id or ErrNotFound.
	Get(ctx context.Context, id string) (*Record, error)
	// List returns all records, newest first.
	List(ctx context.Context) ([]*Record, error)
	// Ping checks connectivity to the backing database.
	Ping(ctx context.Context) error
	// Close releases connections.
	Close(ctx context.Context) error
}
