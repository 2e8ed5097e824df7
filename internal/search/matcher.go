package search

import (
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/Sumatoshi-tech/edgarvault/pkg/alg/lru"
	"github.com/Sumatoshi-tech/edgarvault/pkg/fuzzy"
)

// Matcher defaults.
const (
	DefaultLimit     = 5
	DefaultCacheSize = 1000
)

// Match is a ranked company name.
type Match struct {
	Name  string
	Score int
}

// MatcherOption configures a Matcher.
type MatcherOption func(*matcherOptions)

type matcherOptions struct {
	limit     int
	cacheSize int
	scorer    fuzzy.Scorer
}

// WithLimit caps the number of matches per query.
func WithLimit(n int) MatcherOption {
	return func(o *matcherOptions) {
		if n > 0 {
			o.limit = n
		}
	}
}

// WithCacheSize sets the number of distinct queries memoized.
func WithCacheSize(n int) MatcherOption {
	return func(o *matcherOptions) {
		if n > 0 {
			o.cacheSize = n
		}
	}
}

// WithScorer replaces the WRatio scorer.
func WithScorer(scorer fuzzy.Scorer) MatcherOption {
	return func(o *matcherOptions) {
		if scorer != nil {
			o.scorer = scorer
		}
	}
}

// Matcher ranks the prefix bucket of a query. Results are memoized by exact
// query string; concurrent misses for the same query are computed once.
type Matcher struct {
	index  *Index
	limit  int
	scorer fuzzy.Scorer
	cache  *lru.Cache[string, []Match]
	group  singleflight.Group
}

// NewMatcher returns a Matcher over idx.
func NewMatcher(idx *Index, opts ...MatcherOption) *Matcher {
	o := matcherOptions{limit: DefaultLimit, cacheSize: DefaultCacheSize, scorer: fuzzy.WRatio}
	for _, opt := range opts {
		opt(&o)
	}

	return &Matcher{
		index:  idx,
		limit:  o.limit,
		scorer: o.scorer,
		cache: lru.New(
			lru.WithMaxEntries[string, []Match](o.cacheSize),
			lru.WithCloneFunc[string, []Match](cloneMatches),
		),
	}
}

// Lookup returns up to limit names from the query's prefix bucket by
// descending score. A query whose prefix has no bucket yields nothing.
func (m *Matcher) Lookup(query string) []Match {
	if cached, ok := m.cache.Get(query); ok {
		return cached
	}

	v, _, _ := m.group.Do(query, func() (any, error) {
		if cached, ok := m.cache.Peek(query); ok {
			return cached, nil
		}

		result := m.rank(query)
		m.cache.Put(query, result)

		return result, nil
	})

	matches, _ := v.([]Match)

	return cloneMatches(matches)
}

// Names is Lookup without scores.
func (m *Matcher) Names(query string) []string {
	matches := m.Lookup(query)

	names := make([]string, len(matches))
	for i, match := range matches {
		names[i] = match.Name
	}

	return names
}

// Stats returns memo cache statistics.
func (m *Matcher) Stats() lru.Stats {
	return m.cache.Stats()
}

func (m *Matcher) rank(query string) []Match {
	bucket := m.index.Bucket(Prefix(query))
	if len(bucket) == 0 {
		return []Match{}
	}

	ranked := fuzzy.ExtractWith(query, bucket, m.limit, m.scorer)

	out := make([]Match, len(ranked))
	for i, r := range ranked {
		out[i] = Match{Name: r.Choice, Score: r.Score}
	}

	return out
}

func cloneMatches(matches []Match) []Match {
	return slices.Clone(matches)
}
