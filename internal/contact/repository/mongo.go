package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/contacthub/contacthub/internal/contact"
)

// MongoStore is a MongoDB-backed versioned store. Each key-revision entry is
// one BSON document in the revisions collection; entries are only ever
// inserted, never updated, so the revision timeline is append-only. Sequence
// numbers (revisions and keys) come from an atomically incremented counters
// collection.
type MongoStore struct {
	revisions *mongo.Collection
	counters  *mongo.Collection
}

// revisionDoc is the persisted form of one key-revision entry.
type revisionDoc struct {
	Key     uint64          `bson:"key"`
	Rev     uint64          `bson:"rev"`
	Stamp   time.Time       `bson:"stamp"`
	Deleted bool            `bson:"deleted"`
	Hash    string          `bson:"hash,omitempty"`
	Contact contact.Contact `bson:"contact,omitempty"`
}

// NewMongoStore wires the store onto a database, creating the indexes the
// scans rely on.
func NewMongoStore(db *mongo.Database) *MongoStore {
	revisions := db.Collection("revisions")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}, {Key: "rev", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	revisions.Indexes().CreateOne(context.Background(), idx)
	return &MongoStore{revisions: revisions, counters: db.Collection("counters")}
}

// nextSeq atomically allocates the next value of a named sequence.
func (s *MongoStore) nextSeq(ctx context.Context, name string) (uint64, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var out struct {
		Seq uint64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&out)
	if err != nil {
		return 0, fmt.Errorf("next %s sequence: %w", name, err)
	}
	return out.Seq, nil
}

// cutoffFilter translates a RevisionRef into a filter over revision entries.
func cutoffFilter(ref contact.RevisionRef) bson.M {
	if n, ok := ref.Number(); ok {
		return bson.M{"rev": bson.M{"$lte": n}}
	}
	if t, ok := ref.Time(); ok {
		return bson.M{"stamp": bson.M{"$lte": t}}
	}
	return bson.M{}
}

// head returns the key's newest entry within the cutoff, nil when the key has
// no entry there at all (tombstones count as entries).
func (s *MongoStore) head(ctx context.Context, key uint64, ref contact.RevisionRef) (*revisionDoc, error) {
	filter := cutoffFilter(ref)
	filter["key"] = key
	opts := options.FindOne().SetSort(bson.D{{Key: "rev", Value: -1}})
	var d revisionDoc
	if err := s.revisions.FindOne(ctx, filter, opts).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (s *MongoStore) CurrentValue(ctx context.Context, key uint64, ref contact.RevisionRef) (*contact.Contact, contact.ContentHash, error) {
	d, err := s.head(ctx, key, ref)
	if err != nil {
		return nil, "", err
	}
	if d == nil || d.Deleted {
		return nil, "", ErrNotFound
	}
	c := d.Contact
	return &c, contact.ContentHash(d.Hash), nil
}

func (s *MongoStore) AllRevisions(ctx context.Context, key uint64) ([]contact.HistoryEntry, error) {
	docs, err := s.load(ctx, bson.M{"key": key})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	out := make([]contact.HistoryEntry, 0, len(docs))
	for _, d := range docs {
		if d.Deleted {
			continue
		}
		c := d.Contact
		out = append(out, contact.HistoryEntry{
			Revision:  d.Rev,
			Timestamp: d.Stamp,
			Hash:      contact.ContentHash(d.Hash),
			Contact:   &c,
		})
	}
	return out, nil
}

func (s *MongoStore) Scan(ctx context.Context, ref contact.RevisionRef, pred contact.Predicate) ([]contact.Match, error) {
	docs, err := s.load(ctx, cutoffFilter(ref))
	if err != nil {
		return nil, err
	}
	out := []contact.Match{}
	for _, d := range latestPerKey(docs) {
		if d.Deleted || !pred(d.Contact) {
			continue
		}
		out = append(out, contact.Match{Key: d.Key, Contact: d.Contact, Hash: contact.ContentHash(d.Hash)})
	}
	return out, nil
}

func (s *MongoStore) ScanAllRevisions(ctx context.Context, pred contact.Predicate, onlyDeleted bool) ([]contact.RevisionMatch, error) {
	docs, err := s.load(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	heads := latestPerKey(docs)
	out := []contact.RevisionMatch{}
	for _, d := range docs {
		if heads[d.Key].Deleted != onlyDeleted {
			continue
		}
		if d.Deleted || !pred(d.Contact) {
			continue
		}
		out = append(out, contact.RevisionMatch{
			Key:       d.Key,
			Revision:  d.Rev,
			Timestamp: d.Stamp,
			Contact:   d.Contact,
			Hash:      contact.ContentHash(d.Hash),
		})
	}
	return out, nil
}

func (s *MongoStore) Insert(ctx context.Context, c contact.Contact) (uint64, error) {
	key, err := s.nextSeq(ctx, "key")
	if err != nil {
		return 0, err
	}
	if err := s.append(ctx, key, &c); err != nil {
		return 0, err
	}
	return key, nil
}

func (s *MongoStore) Mutate(ctx context.Context, key uint64, c contact.Contact, expected *contact.ContentHash) error {
	if err := s.checkPrecondition(ctx, key, expected); err != nil {
		return err
	}
	return s.append(ctx, key, &c)
}

func (s *MongoStore) Remove(ctx context.Context, key uint64, expected *contact.ContentHash) error {
	if err := s.checkPrecondition(ctx, key, expected); err != nil {
		return err
	}
	return s.append(ctx, key, nil)
}

// A conditional mutation against an absent or deleted key is a failed
// precondition, not a missing key: the caller held a hash, so from their
// point of view the document changed underneath them.
func (s *MongoStore) checkPrecondition(ctx context.Context, key uint64, expected *contact.ContentHash) error {
	d, err := s.head(ctx, key, contact.LatestRevision())
	if err != nil {
		return err
	}
	if d == nil || d.Deleted {
		if expected != nil {
			return ErrPreconditionFailed
		}
		return ErrNotFound
	}
	if expected != nil && string(*expected) != d.Hash {
		return ErrPreconditionFailed
	}
	return nil
}

// append commits a new revision entry for key; a nil contact is a tombstone.
func (s *MongoStore) append(ctx context.Context, key uint64, c *contact.Contact) error {
	rev, err := s.nextSeq(ctx, "rev")
	if err != nil {
		return err
	}
	d := revisionDoc{Key: key, Rev: rev, Stamp: time.Now().UTC(), Deleted: c == nil}
	if c != nil {
		d.Contact = *c
		d.Hash = string(contact.HashContact(*c))
	}
	if _, err := s.revisions.InsertOne(ctx, d); err != nil {
		return fmt.Errorf("append revision: %w", err)
	}
	return nil
}

// load fetches revision entries matching filter, ascending by key then rev.
func (s *MongoStore) load(ctx context.Context, filter bson.M) ([]revisionDoc, error) {
	opts := options.Find().SetSort(bson.D{{Key: "key", Value: 1}, {Key: "rev", Value: 1}})
	cur, err := s.revisions.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []revisionDoc{}
	for cur.Next(ctx) {
		var d revisionDoc
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, cur.Err()
}

// latestPerKey folds an ascending entry list into each key's newest entry.
func latestPerKey(docs []revisionDoc) map[uint64]revisionDoc {
	heads := make(map[uint64]revisionDoc)
	for _, d := range docs {
		heads[d.Key] = d
	}
	return heads
}
