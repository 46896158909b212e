package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/contacthub/contacthub/internal/contact"
)

// revisionEntry is one committed revision of one key. A nil doc is a
// tombstone: the key was deleted at this revision.
type revisionEntry struct {
	rev  uint64
	doc  *contact.Contact
	hash contact.ContentHash
}

// MemoryStore is an in-memory append-only versioned store used for unit
// tests and single-process development. Every mutation commits a new
// collection-wide revision; per-key logs are never rewritten.
type MemoryStore struct {
	mu      sync.RWMutex
	nextKey uint64
	stamps  []time.Time                // commit time of revision i+1
	log     map[uint64][]revisionEntry // per key, ascending by rev
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{log: make(map[uint64][]revisionEntry), now: time.Now}
}

// commit allocates the next revision number. Callers hold mu.
func (m *MemoryStore) commit() uint64 {
	m.stamps = append(m.stamps, m.now().UTC())
	return uint64(len(m.stamps))
}

// resolve maps ref to a concrete revision cutoff. Callers hold mu (read).
func (m *MemoryStore) resolve(ref contact.RevisionRef) uint64 {
	latest := uint64(len(m.stamps))
	if n, ok := ref.Number(); ok {
		return n
	}
	if t, ok := ref.Time(); ok {
		// greatest revision committed at or before t
		i := sort.Search(len(m.stamps), func(i int) bool { return m.stamps[i].After(t) })
		return uint64(i)
	}
	return latest
}

// currentAt returns the key's live entry as of the cutoff revision, or nil
// when the key is absent or deleted there. Callers hold mu (read).
func (m *MemoryStore) currentAt(key, cutoff uint64) *revisionEntry {
	entries := m.log[key]
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].rev <= cutoff {
			if entries[i].doc == nil {
				return nil
			}
			return &entries[i]
		}
	}
	return nil
}

func (m *MemoryStore) CurrentValue(ctx context.Context, key uint64, ref contact.RevisionRef) (*contact.Contact, contact.ContentHash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e := m.currentAt(key, m.resolve(ref))
	if e == nil {
		return nil, "", ErrNotFound
	}
	doc := *e.doc
	return &doc, e.hash, nil
}

func (m *MemoryStore) AllRevisions(ctx context.Context, key uint64) ([]contact.HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries, ok := m.log[key]
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]contact.HistoryEntry, 0, len(entries))
	for _, e := range entries {
		if e.doc == nil {
			continue
		}
		doc := *e.doc
		out = append(out, contact.HistoryEntry{
			Revision:  e.rev,
			Timestamp: m.stamps[e.rev-1],
			Hash:      e.hash,
			Contact:   &doc,
		})
	}
	return out, nil
}

func (m *MemoryStore) Scan(ctx context.Context, ref contact.RevisionRef, pred contact.Predicate) ([]contact.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cutoff := m.resolve(ref)
	out := []contact.Match{}
	for key := range m.log {
		e := m.currentAt(key, cutoff)
		if e == nil || !pred(*e.doc) {
			continue
		}
		out = append(out, contact.Match{Key: key, Contact: *e.doc, Hash: e.hash})
	}
	return out, nil
}

func (m *MemoryStore) ScanAllRevisions(ctx context.Context, pred contact.Predicate, onlyDeleted bool) ([]contact.RevisionMatch, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	latest := uint64(len(m.stamps))
	out := []contact.RevisionMatch{}
	for key, entries := range m.log {
		deleted := m.currentAt(key, latest) == nil
		if deleted != onlyDeleted {
			continue
		}
		for _, e := range entries {
			if e.doc == nil || !pred(*e.doc) {
				continue
			}
			out = append(out, contact.RevisionMatch{
				Key:       key,
				Revision:  e.rev,
				Timestamp: m.stamps[e.rev-1],
				Contact:   *e.doc,
				Hash:      e.hash,
			})
		}
	}
	return out, nil
}

func (m *MemoryStore) Insert(ctx context.Context, c contact.Contact) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextKey++
	key := m.nextKey
	rev := m.commit()
	m.log[key] = []revisionEntry{{rev: rev, doc: &c, hash: contact.HashContact(c)}}
	return key, nil
}

func (m *MemoryStore) Mutate(ctx context.Context, key uint64, c contact.Contact, expected *contact.ContentHash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.checkPrecondition(key, expected); err != nil {
		return err
	}
	rev := m.commit()
	m.log[key] = append(m.log[key], revisionEntry{rev: rev, doc: &c, hash: contact.HashContact(c)})
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, key uint64, expected *contact.ContentHash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.checkPrecondition(key, expected); err != nil {
		return err
	}
	rev := m.commit()
	m.log[key] = append(m.log[key], revisionEntry{rev: rev})
	return nil
}

// checkPrecondition verifies the key is currently live and, when expected is
// set, that its current hash matches. A conditional mutation against an
// absent or deleted key is a failed precondition, not a missing key: the
// caller held a hash, so from their point of view the document changed
// underneath them. Callers hold mu.
func (m *MemoryStore) checkPrecondition(key uint64, expected *contact.ContentHash) (*revisionEntry, error) {
	cur := m.currentAt(key, uint64(len(m.stamps)))
	if cur == nil {
		if expected != nil {
			return nil, ErrPreconditionFailed
		}
		return nil, ErrNotFound
	}
	if expected != nil && *expected != cur.hash {
		return nil, ErrPreconditionFailed
	}
	return cur, nil
}
