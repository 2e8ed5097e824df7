// Package search implements company lookup: a prefix-bucketed index, a
// memoized fuzzy matcher over it, and the two-step search/resolve protocol.
package search

import "strings"

// PrefixLength is the number of leading characters that select a bucket.
const PrefixLength = 3

// Prefix returns the bucket key for s: its first three characters, uppercased.
// Shorter strings use the whole string.
func Prefix(s string) string {
	end := len(s)

	count := 0
	for i := range s {
		if count == PrefixLength {
			end = i

			break
		}

		count++
	}

	return strings.ToUpper(s[:end])
}

// Index groups names by Prefix. Buckets keep insertion order and duplicates.
// An Index is immutable after NewIndex returns.
type Index struct {
	buckets map[string][]string
	size    int
}

// NewIndex buckets every name.
func NewIndex(names []string) *Index {
	idx := &Index{buckets: make(map[string][]string)}

	for _, name := range names {
		key := Prefix(name)
		idx.buckets[key] = append(idx.buckets[key], name)
		idx.size++
	}

	return idx
}

// Bucket returns the names sharing prefix, or nil. The slice must not be modified.
func (idx *Index) Bucket(prefix string) []string {
	return idx.buckets[prefix]
}

// Len returns the total number of indexed names, duplicates included.
func (idx *Index) Len() int {
	return idx.size
}

// Buckets returns the number of distinct prefixes.
func (idx *Index) Buckets() int {
	return len(idx.buckets)
}
