package contact

import (
	"crypto/sha256"
	"encoding/hex"
)

// ContentHash is a fingerprint of a contact's field values at one revision.
// Two revisions with equal hashes are content-identical even if the document
// was rewritten in between. It doubles as the optimistic-concurrency
// precondition token on update/delete.
type ContentHash string

// HashContact computes the content hash: SHA-256 over the four field values
// in a fixed order, separated by a byte that cannot appear in field text, so
// {"ab",""} and {"a","b"} hash differently.
func HashContact(c Contact) ContentHash {
	h := sha256.New()
	for _, v := range []string{c.Name, c.Phone, c.Email, c.Address} {
		h.Write([]byte(v))
		h.Write([]byte{0})
	}
	return ContentHash(hex.EncodeToString(h.Sum(nil)))
}
