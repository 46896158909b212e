package contact

// The two reducers below collapse runs of content-identical revisions. They
// compare in opposite directions and yield different entries for the same
// input, so they are kept as two separate functions rather than one
// parameterized pass. Input must be ordered ascending by revision.

// ChangePoints keeps each entry whose hash differs from the immediately
// preceding entry's hash, plus the first entry. The result is exactly the
// revisions at which the contact's content changed — the shape wanted for
// "history of contact X". Idempotent: reducing a reduced sequence is a no-op.
func ChangePoints(entries []HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for i, e := range entries {
		if i == 0 || e.Hash != entries[i-1].Hash {
			out = append(out, e)
		}
	}
	return out
}

// RunEnds keeps each entry whose hash differs from the immediately following
// entry's hash, plus the last entry. The result is the final revision of each
// stable content run — the "state just before the next change" view used to
// deduplicate all-time search hits.
func RunEnds(entries []HistoryEntry) []HistoryEntry {
	out := make([]HistoryEntry, 0, len(entries))
	for i, e := range entries {
		if i == len(entries)-1 || e.Hash != entries[i+1].Hash {
			out = append(out, e)
		}
	}
	return out
}
