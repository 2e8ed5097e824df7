package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/edgarvault/internal/directory"
)

// ErrNoMatch is returned when a query or choice matches no company.
var ErrNoMatch = errors.New("no matching companies found")

// Candidate is one search result with its identifier.
type Candidate struct {
	Name  string `json:"name"  yaml:"name"`
	CIK   string `json:"cik"   yaml:"cik"`
	Score int    `json:"score" yaml:"score"`
}

// Display renders the candidate the way Resolve accepts it back.
func (c Candidate) Display() string {
	return fmt.Sprintf("%s (%s)", c.Name, c.CIK)
}

// Resolver is the two-step lookup protocol: Search for candidates, then
// Resolve a chosen one to its record.
type Resolver struct {
	dir     *directory.Directory
	matcher *Matcher
}

// NewResolver builds the prefix index from dir and wraps it in a Matcher.
func NewResolver(dir *directory.Directory, opts ...MatcherOption) *Resolver {
	return &Resolver{
		dir:     dir,
		matcher: NewMatcher(NewIndex(dir.Names()), opts...),
	}
}

// Matcher exposes the underlying matcher.
func (r *Resolver) Matcher() *Matcher {
	return r.matcher
}

// Search returns ranked candidates for a free-text query.
func (r *Resolver) Search(query string) ([]Candidate, error) {
	matches := r.matcher.Lookup(query)
	if len(matches) == 0 {
		return nil, ErrNoMatch
	}

	candidates := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		cik, ok := r.dir.CIKByName(m.Name)
		if !ok {
			continue
		}

		candidates = append(candidates, Candidate{Name: m.Name, CIK: cik, Score: m.Score})
	}

	if len(candidates) == 0 {
		return nil, ErrNoMatch
	}

	return candidates, nil
}

// Resolve maps a chosen candidate back to its record. The choice may be an
// exact company name, a Candidate.Display string, or a canonical CIK.
func (r *Resolver) Resolve(choice string) (directory.Record, error) {
	choice = strings.TrimSpace(choice)

	if rec, ok := r.dir.Record(choice); ok {
		return rec, nil
	}

	if name, cik, ok := splitDisplay(choice); ok {
		rec, found := r.dir.Record(name)
		if found && rec.CIK == cik {
			return rec, nil
		}
	}

	if directory.IsIdentifier(choice) {
		return r.LookupCIK(choice)
	}

	return directory.Record{}, fmt.Errorf("%w: %q", ErrNoMatch, choice)
}

// LookupCIK validates identifier-mode input and returns its record.
func (r *Resolver) LookupCIK(input string) (directory.Record, error) {
	input = strings.TrimSpace(input)
	if !directory.IsIdentifier(input) {
		return directory.Record{}, directory.ErrInvalidIdentifier
	}

	name, ok := r.dir.NameByCIK(input)
	if !ok {
		return directory.Record{}, directory.ErrInvalidIdentifier
	}

	return directory.Record{Name: name, CIK: input}, nil
}

// splitDisplay parses "Name (0000000000)".
func splitDisplay(s string) (name, cik string, ok bool) {
	if !strings.HasSuffix(s, ")") {
		return "", "", false
	}

	open := strings.LastIndex(s, " (")
	if open <= 0 {
		return "", "", false
	}

	cik = s[open+2 : len(s)-1]
	if !directory.IsIdentifier(cik) {
		return "", "", false
	}

	return s[:open], cik, true
}
