package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/contacthub/contacthub/internal/contact"
	"github.com/contacthub/contacthub/internal/contact/repository"
	"github.com/contacthub/contacthub/pkg/metrics"
)

// Service is the contact store facade the transport layer talks to. It owns
// query compilation, revision resolution, history reduction and the
// optimistic-concurrency rules; revision bookkeeping itself lives in the
// injected store. The service holds no other state and is safe to share
// across requests and instances.
type Service struct {
	store repository.VersionedStore
}

func NewService(store repository.VersionedStore) *Service {
	return &Service{store: store}
}

// Get returns the contact for key as of ref, plus the content hash callers
// need for conditional update/delete.
func (s *Service) Get(ctx context.Context, key uint64, ref contact.RevisionRef) (*contact.Contact, contact.ContentHash, error) {
	c, h, err := s.store.CurrentValue(ctx, key, ref)
	if err != nil {
		return nil, "", mapStoreErr(err)
	}
	return c, h, nil
}

// List returns every live contact as of ref. This is the operation callers
// are pointed at when they want everything; Search deliberately refuses an
// empty term list.
func (s *Service) List(ctx context.Context, ref contact.RevisionRef) ([]contact.Match, error) {
	metrics.Searches.WithLabelValues("list").Inc()
	return s.store.Scan(ctx, ref, contact.MatchAll)
}

// Search evaluates the AND of terms against every live contact as of ref.
// Results are a set: no ordering guarantee, at most one match per key.
func (s *Service) Search(ctx context.Context, terms []contact.QueryTerm, ref contact.RevisionRef) ([]contact.Match, error) {
	if len(terms) == 0 {
		return nil, contact.ErrEmptyQuery
	}
	metrics.Searches.WithLabelValues("current").Inc()
	return s.store.Scan(ctx, ref, contact.CompilePredicate(terms))
}

// SearchAllTime evaluates the AND of terms against every revision in the
// collection's history. An empty term list matches everything. The deleted
// flag selects which partition is scanned: false means revisions of
// currently-live keys, true means revisions of currently-deleted keys — one
// or the other, never both. Per-key runs of identical content are collapsed
// to the last revision of each run.
func (s *Service) SearchAllTime(ctx context.Context, terms []contact.QueryTerm, deleted bool) ([]contact.RevisionMatch, error) {
	metrics.Searches.WithLabelValues("all_time").Inc()
	hits, err := s.store.ScanAllRevisions(ctx, contact.CompilePredicate(terms), deleted)
	if err != nil {
		return nil, err
	}
	return dedupeRuns(hits), nil
}

// History returns the revisions at which key's content actually changed,
// ascending, up to and including the addressed revision. Snapshots are
// embedded only when embed is set; otherwise the entries carry revision
// metadata and hash alone.
func (s *Service) History(ctx context.Context, key uint64, ref contact.RevisionRef, embed bool) ([]contact.HistoryEntry, error) {
	entries, err := s.store.AllRevisions(ctx, key)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	entries = contact.ChangePoints(capAtRevision(entries, ref))
	if !embed {
		for i := range entries {
			entries[i].Contact = nil
		}
	}
	return entries, nil
}

// Insert validates c and commits it as a new key at the next revision.
func (s *Service) Insert(ctx context.Context, c contact.Contact) (uint64, error) {
	if !c.Valid() {
		return 0, contact.ErrInvalidContact
	}
	metrics.Mutations.WithLabelValues("insert").Inc()
	key, err := s.store.Insert(ctx, c)
	if err != nil {
		return 0, fmt.Errorf("insert contact: %w", err)
	}
	return key, nil
}

// Update replaces key's document with c at a new revision. A non-nil
// expected hash makes the update conditional: it fails with ErrConflict
// unless the contact's current hash still equals it. A nil hash means last
// writer wins.
func (s *Service) Update(ctx context.Context, key uint64, c contact.Contact, expected *contact.ContentHash) error {
	if !c.Valid() {
		return contact.ErrInvalidContact
	}
	metrics.Mutations.WithLabelValues("update").Inc()
	return mapStoreErr(s.store.Mutate(ctx, key, c, expected))
}

// Delete marks key removed at a new revision. Past revisions and history
// stay addressable. The expected hash behaves as for Update.
func (s *Service) Delete(ctx context.Context, key uint64, expected *contact.ContentHash) error {
	metrics.Mutations.WithLabelValues("delete").Inc()
	return mapStoreErr(s.store.Remove(ctx, key, expected))
}

// capAtRevision truncates an ascending entry sequence at ref. Latest keeps
// everything; a numbered or timed ref drops the entries committed after it.
func capAtRevision(entries []contact.HistoryEntry, ref contact.RevisionRef) []contact.HistoryEntry {
	if n, ok := ref.Number(); ok {
		for i, e := range entries {
			if e.Revision > n {
				return entries[:i]
			}
		}
		return entries
	}
	if t, ok := ref.Time(); ok {
		for i, e := range entries {
			if e.Timestamp.After(t) {
				return entries[:i]
			}
		}
		return entries
	}
	return entries
}

// dedupeRuns groups raw all-revision hits per key and keeps only the last
// revision of each stable content run, then flattens back to key/revision
// order for a deterministic response.
func dedupeRuns(hits []contact.RevisionMatch) []contact.RevisionMatch {
	byKey := make(map[uint64][]contact.RevisionMatch)
	keys := []uint64{}
	for _, h := range hits {
		if _, seen := byKey[h.Key]; !seen {
			keys = append(keys, h.Key)
		}
		byKey[h.Key] = append(byKey[h.Key], h)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]contact.RevisionMatch, 0, len(hits))
	for _, key := range keys {
		group := byKey[key]
		sort.Slice(group, func(i, j int) bool { return group[i].Revision < group[j].Revision })
		entries := make([]contact.HistoryEntry, len(group))
		for i, g := range group {
			c := g.Contact
			entries[i] = contact.HistoryEntry{Revision: g.Revision, Timestamp: g.Timestamp, Hash: g.Hash, Contact: &c}
		}
		for _, e := range contact.RunEnds(entries) {
			out = append(out, contact.RevisionMatch{
				Key:       key,
				Revision:  e.Revision,
				Timestamp: e.Timestamp,
				Contact:   *e.Contact,
				Hash:      e.Hash,
			})
		}
	}
	return out
}

// mapStoreErr lifts store sentinels into the service taxonomy. A failed hash
// precondition is a concurrent modification from the caller's point of view:
// the document changed between their read and this write.
func mapStoreErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrPreconditionFailed):
		metrics.Conflicts.Inc()
		return contact.ErrConflict
	case errors.Is(err, repository.ErrNotFound):
		return contact.ErrNotFound
	}
	return err
}
