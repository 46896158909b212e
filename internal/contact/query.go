package contact

import "strings"

// Predicate reports whether a contact matches a compiled query.
type Predicate func(Contact) bool

// MatchAll matches every contact. An empty term list compiles to it.
var MatchAll Predicate = func(Contact) bool { return true }

// CompilePredicate compiles a term list into a single AND-combined predicate.
// Grammar is AND-of-(exact|fuzzy) only; there is no OR and no negation.
func CompilePredicate(terms []QueryTerm) Predicate {
	if len(terms) == 0 {
		return MatchAll
	}
	// copy so later mutation of the caller's slice cannot change the predicate
	ts := make([]QueryTerm, len(terms))
	copy(ts, terms)
	return func(c Contact) bool {
		for _, t := range ts {
			if !matchTerm(c, t) {
				return false
			}
		}
		return true
	}
}

func matchTerm(c Contact, t QueryTerm) bool {
	v, ok := c.Field(t.Field)
	if !ok {
		return false
	}
	if t.Fuzzy {
		return strings.Contains(v, t.Term)
	}
	return v == t.Term
}
