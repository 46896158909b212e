package contact

import (
	"fmt"
	"time"
)

// revisionKind discriminates the RevisionRef variant.
type revisionKind int

const (
	revisionLatest revisionKind = iota
	revisionNumbered
	revisionTimed
)

// RevisionRef addresses one revision of the collection: an explicit sequence
// number, a point in time, or the latest committed revision. The zero value
// is "latest".
type RevisionRef struct {
	kind   revisionKind
	number uint64
	at     time.Time
}

// LatestRevision addresses the most recently committed revision.
func LatestRevision() RevisionRef { return RevisionRef{} }

// RevisionNumber addresses an explicit sequence number.
func RevisionNumber(n uint64) RevisionRef {
	return RevisionRef{kind: revisionNumbered, number: n}
}

// RevisionTime addresses the last revision committed at or before t.
func RevisionTime(t time.Time) RevisionRef {
	return RevisionRef{kind: revisionTimed, at: t}
}

// IsLatest reports whether the ref addresses the latest revision.
func (r RevisionRef) IsLatest() bool { return r.kind == revisionLatest }

// Number returns the explicit sequence number, if the ref carries one.
func (r RevisionRef) Number() (uint64, bool) {
	return r.number, r.kind == revisionNumbered
}

// Time returns the point in time, if the ref carries one.
func (r RevisionRef) Time() (time.Time, bool) {
	return r.at, r.kind == revisionTimed
}

func (r RevisionRef) String() string {
	switch r.kind {
	case revisionNumbered:
		return fmt.Sprintf("revision %d", r.number)
	case revisionTimed:
		return "revision at " + r.at.Format(RevisionTimestampLayout)
	}
	return "latest revision"
}

// RevisionTimestampLayout is the wire format for revision timestamps,
// e.g. 2020-01-01T00:00:00.000000 (microsecond precision, no zone).
const RevisionTimestampLayout = "2006-01-02T15:04:05.000000"

// ResolveRevision turns the two optional request parameters into one
// RevisionRef. A non-zero revisionID always wins over the timestamp; this
// precedence is part of the API contract for every read endpoint. With
// neither set the latest revision is addressed.
func ResolveRevision(revisionID uint64, revisionTimestamp string) (RevisionRef, error) {
	if revisionID != 0 {
		return RevisionNumber(revisionID), nil
	}
	if revisionTimestamp != "" {
		t, err := time.Parse(RevisionTimestampLayout, revisionTimestamp)
		if err != nil {
			return RevisionRef{}, fmt.Errorf("%w: %q", ErrBadRevisionFormat, revisionTimestamp)
		}
		return RevisionTime(t), nil
	}
	return LatestRevision(), nil
}
