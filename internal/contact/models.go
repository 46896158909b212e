package contact

import (
	"errors"
	"time"
)

// Error taxonomy for the contact store. Every failure an operation can
// surface maps to exactly one of these, so the handler layer can pick a
// distinct status code with errors.Is.
var (
	// ErrInvalidContact is returned when a contact has no non-empty field.
	ErrInvalidContact = errors.New("contact must have at least one non-empty field")
	// ErrBadRevisionFormat is returned for an unparseable revision timestamp.
	ErrBadRevisionFormat = errors.New("invalid revision timestamp format")
	// ErrEmptyQuery is returned when a current-state search is called with no
	// terms. Use the list operation to fetch everything.
	ErrEmptyQuery = errors.New("search requires at least one query term")
	// ErrNotFound is returned when a key does not exist at the resolved revision.
	ErrNotFound = errors.New("contact not found")
	// ErrConflict is returned when a hash precondition does not hold on
	// update/delete.
	ErrConflict = errors.New("contact was modified concurrently")
)

// Contact is the document model. All fields are optional; an empty string
// means the field is absent. A contact with every field empty is invalid.
type Contact struct {
	Name    string `json:"name" bson:"name"`
	Phone   string `json:"phone" bson:"phone"`
	Email   string `json:"email" bson:"email"`
	Address string `json:"address" bson:"address"`
}

// Valid reports whether the contact satisfies the non-empty invariant.
func (c Contact) Valid() bool {
	return c.Name != "" || c.Phone != "" || c.Email != "" || c.Address != ""
}

// Field returns the named field's value. ok is false for unknown field names;
// a query term against an unknown field never matches.
func (c Contact) Field(name string) (string, bool) {
	switch name {
	case "name":
		return c.Name, true
	case "phone":
		return c.Phone, true
	case "email":
		return c.Email, true
	case "address":
		return c.Address, true
	}
	return "", false
}

// QueryTerm is one AND-combined search condition. Exact terms require
// case-sensitive equality with the field value; fuzzy terms require
// case-sensitive substring containment.
type QueryTerm struct {
	Field string `json:"field"`
	Term  string `json:"term"`
	Fuzzy bool   `json:"fuzzy"`
}

// HistoryEntry is one revision of a contact key, ordered ascending by
// revision number. Contact is non-nil only when snapshots were requested.
type HistoryEntry struct {
	Revision  uint64      `json:"revisionNumber"`
	Timestamp time.Time   `json:"revisionTimestamp"`
	Hash      ContentHash `json:"hash"`
	Contact   *Contact    `json:"contact,omitempty"`
}

// Match is a contact returned by a current-state scan, with its key and the
// hash callers need for subsequent conditional mutations.
type Match struct {
	Key     uint64      `json:"key"`
	Contact Contact     `json:"contact"`
	Hash    ContentHash `json:"hash"`
}

// RevisionMatch is a hit from an all-revisions scan: a Match pinned to the
// revision it was observed at.
type RevisionMatch struct {
	Key       uint64      `json:"key"`
	Revision  uint64      `json:"revisionNumber"`
	Timestamp time.Time   `json:"revisionTimestamp"`
	Contact   Contact     `json:"contact"`
	Hash      ContentHash `json:"hash"`
}
