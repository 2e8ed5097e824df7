// Package filing covers the local life of a downloaded filing: retrieval
// into the staging area, merging into the company folder and cleaning.
package filing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Sumatoshi-tech/edgarvault/internal/edgar"
)

// AnnualReport is the form type the pipeline retrieves.
const AnnualReport = "10-K"

// ErrNotFound marks a retrieval that produced no local folder.
var ErrNotFound = errors.New("no filings downloaded")

// Status classifies a retrieval.
type Status int

// Retrieval statuses.
const (
	Retrieved Status = iota
	NotFound
	Failed
)

func (s Status) String() string {
	switch s {
	case Retrieved:
		return "retrieved"
	case NotFound:
		return "not_found"
	case Failed:
		return "error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of Retrieve. Folder is set for Retrieved, Err for Failed.
type Outcome struct {
	Status Status
	Folder string
	Err    error
}

// Message returns the failure text, or "" when the retrieval did not fail.
func (o Outcome) Message() string {
	if o.Err == nil {
		return ""
	}

	return o.Err.Error()
}

// Retriever asks a Downloader for one company-year of filings and checks
// whether anything landed under <staging>/<cik>.
type Retriever struct {
	downloader edgar.Downloader
	staging    string
	form       string
}

// NewRetriever returns a Retriever for annual reports.
func NewRetriever(d edgar.Downloader, staging string) *Retriever {
	return &Retriever{downloader: d, staging: staging, form: AnnualReport}
}

// Folder returns the identifier-keyed staging folder for cik.
func (r *Retriever) Folder(cik string) string {
	return filepath.Join(r.staging, cik)
}

// Retrieve fetches filings filed during year. Downloader failures are
// reported in the Outcome, never returned. The identifier folder only ever
// holds this call's files: leftovers from an interrupted run are removed
// first, and a failed download leaves nothing behind.
func (r *Retriever) Retrieve(ctx context.Context, cik string, year int) Outcome {
	after := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)

	folder := r.Folder(cik)

	clearErr := os.RemoveAll(folder)
	if clearErr != nil {
		return Outcome{Status: Failed, Err: fmt.Errorf("clear %s: %w", folder, clearErr)}
	}

	_, err := r.downloader.Get(ctx, r.form, cik, after, before)
	if err != nil {
		_ = os.RemoveAll(folder)

		return Outcome{Status: Failed, Err: err}
	}

	info, statErr := os.Stat(folder)
	if statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return Outcome{Status: NotFound}
		}

		return Outcome{Status: Failed, Err: fmt.Errorf("stat %s: %w", folder, statErr)}
	}

	if !info.IsDir() {
		return Outcome{Status: Failed, Err: fmt.Errorf("%s is not a directory", folder)}
	}

	return Outcome{Status: Retrieved, Folder: folder}
}
