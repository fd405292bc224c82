// Package engine owns the authoritative task set for a session. It derives the
// visible sequence from the set, the filter state and the search query, and
// routes every mutation through a Store under a confirm-then-apply discipline:
// the local set changes only after the store reports success.
package engine
