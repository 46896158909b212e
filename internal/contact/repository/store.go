package repository

import (
	"context"
	"errors"

	"github.com/contacthub/contacthub/internal/contact"
)

var (
	// ErrNotFound is returned when a key has no live document at the
	// addressed revision.
	ErrNotFound = errors.New("key not found at revision")
	// ErrPreconditionFailed is returned when a conditional mutation's
	// expected hash does not match the document's current hash.
	ErrPreconditionFailed = errors.New("content hash precondition failed")
)

// VersionedStore is the contract against the append-only versioned backend.
// Revisions are totally ordered per collection and never rewritten; a delete
// appends a tombstone revision rather than erasing anything, so past
// revisions of deleted keys stay addressable.
//
// Mutate and Remove take an optional expected hash. When non-nil, the store
// must compare it against the key's current content hash and refuse the
// mutation with ErrPreconditionFailed on mismatch. When nil, the mutation is
// unconditional (last writer wins).
type VersionedStore interface {
	// CurrentValue returns the live document for key as of ref, with its
	// content hash. ErrNotFound when the key is absent or deleted at ref.
	CurrentValue(ctx context.Context, key uint64, ref contact.RevisionRef) (*contact.Contact, contact.ContentHash, error)

	// AllRevisions returns every revision of key ascending, snapshots
	// embedded. Tombstone revisions are omitted; ErrNotFound when the key
	// was never inserted.
	AllRevisions(ctx context.Context, key uint64) ([]contact.HistoryEntry, error)

	// Scan evaluates pred against every live document as of ref. No
	// ordering guarantee; at most one match per key.
	Scan(ctx context.Context, ref contact.RevisionRef, pred contact.Predicate) ([]contact.Match, error)

	// ScanAllRevisions evaluates pred against every revision of every key.
	// The two modes are mutually exclusive: onlyDeleted=false scans only
	// revisions of keys that are currently live, onlyDeleted=true scans
	// only revisions of keys that are currently deleted.
	ScanAllRevisions(ctx context.Context, pred contact.Predicate, onlyDeleted bool) ([]contact.RevisionMatch, error)

	// Insert commits c as a new revision and returns the new key.
	Insert(ctx context.Context, c contact.Contact) (uint64, error)

	// Mutate replaces key's document with c at a new revision.
	Mutate(ctx context.Context, key uint64, c contact.Contact, expected *contact.ContentHash) error

	// Remove appends a tombstone revision for key.
	Remove(ctx context.Context, key uint64, expected *contact.ContentHash) error
}
