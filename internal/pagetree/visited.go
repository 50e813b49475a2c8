package pagetree

// VisitedSet is an immutable set of page IDs seen on the path from the root to the current node.
// With returns a new set and leaves the receiver untouched, so sibling branches can share a parent set
// across goroutines. The zero value is empty.
type VisitedSet struct {
	head *visitedEntry
	size int
}

type visitedEntry struct {
	pageID string
	next   *visitedEntry
}

// Contains reports whether pageID is in the set.
func (set VisitedSet) Contains(pageID string) bool {
	for entry := set.head; entry != nil; entry = entry.next {
		if entry.pageID == pageID {
			return true
		}
	}
	return false
}

// With returns a set holding the receiver's IDs plus pageID.
func (set VisitedSet) With(pageID string) VisitedSet {
	if set.Contains(pageID) {
		return set
	}
	return VisitedSet{head: &visitedEntry{pageID: pageID, next: set.head}, size: set.size + 1}
}

// Len returns the number of IDs in the set.
func (set VisitedSet) Len() int {
	return set.size
}
