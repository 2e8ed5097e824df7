// Package directory holds the immutable company name to CIK mapping built
// once at startup from an SEC reference dataset.
package directory

import (
	"slices"
	"strings"
)

// Record is one company in the reference dataset.
type Record struct {
	Name string `json:"name" yaml:"name"`
	CIK  string `json:"cik"  yaml:"cik"`
}

// Directory maps canonical company names to CIKs and back. It is safe for
// concurrent use because it is never mutated after New returns.
type Directory struct {
	names  []string
	byName map[string]string
	byCIK  map[string]string
}

// New builds a Directory from records in dataset order. Records with an
// empty name or an invalid CIK are skipped; the first record wins for a
// repeated name, and the first name wins for a repeated CIK.
func New(records []Record) *Directory {
	dir := &Directory{
		names:  make([]string, 0, len(records)),
		byName: make(map[string]string, len(records)),
		byCIK:  make(map[string]string, len(records)),
	}

	for _, rec := range records {
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			continue
		}

		cik, ok := CanonicalCIK(rec.CIK)
		if !ok {
			continue
		}

		if _, seen := dir.byName[name]; seen {
			continue
		}

		dir.names = append(dir.names, name)
		dir.byName[name] = cik

		if _, seen := dir.byCIK[cik]; !seen {
			dir.byCIK[cik] = name
		}
	}

	return dir
}

// Len returns the number of distinct company names.
func (d *Directory) Len() int {
	return len(d.names)
}

// Names returns a copy of every company name in dataset order.
func (d *Directory) Names() []string {
	return slices.Clone(d.names)
}

// CIKByName returns the canonical CIK for an exact company name.
func (d *Directory) CIKByName(name string) (string, bool) {
	cik, ok := d.byName[name]

	return cik, ok
}

// NameByCIK returns the company name for a CIK in any zero-padding.
func (d *Directory) NameByCIK(cik string) (string, bool) {
	canonical, ok := CanonicalCIK(cik)
	if !ok {
		return "", false
	}

	name, found := d.byCIK[canonical]

	return name, found
}

// Record returns the full record for an exact company name.
func (d *Directory) Record(name string) (Record, bool) {
	cik, ok := d.byName[name]
	if !ok {
		return Record{}, false
	}

	return Record{Name: name, CIK: cik}, true
}
