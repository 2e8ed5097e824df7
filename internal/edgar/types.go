package edgar

import "time"

// submissions is the data.sec.gov submissions document.
type submissions struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings struct {
		Recent filingColumns `json:"recent"`
		Files  []olderPage   `json:"files"`
	} `json:"filings"`
}

// olderPage points at an additional submissions page for long histories.
type olderPage struct {
	Name        string `json:"name"`
	FilingCount int    `json:"filingCount"`
	FilingFrom  string `json:"filingFrom"`
	FilingTo    string `json:"filingTo"`
}

// filingColumns holds filing attributes as parallel arrays.
type filingColumns struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// Filing is one row of a submissions document.
type Filing struct {
	AccessionNumber string    `json:"accession_number"`
	FilingDate      time.Time `json:"filing_date"`
	ReportDate      time.Time `json:"report_date,omitzero"`
	Form            string    `json:"form"`
	PrimaryDocument string    `json:"primary_document"`
}

func (cols filingColumns) rows() []Filing {
	out := make([]Filing, 0, len(cols.AccessionNumber))

	for i, acc := range cols.AccessionNumber {
		f := Filing{AccessionNumber: acc}

		if i < len(cols.Form) {
			f.Form = cols.Form[i]
		}

		if i < len(cols.FilingDate) {
			f.FilingDate, _ = time.Parse(time.DateOnly, cols.FilingDate[i])
		}

		if i < len(cols.ReportDate) {
			f.ReportDate, _ = time.Parse(time.DateOnly, cols.ReportDate[i])
		}

		if i < len(cols.PrimaryDocument) {
			f.PrimaryDocument = cols.PrimaryDocument[i]
		}

		out = append(out, f)
	}

	return out
}

// overlaps reports whether the page's filing window intersects [after, before].
// Pages with unparseable bounds are always fetched.
func (p olderPage) overlaps(after, before time.Time) bool {
	from, fromErr := time.Parse(time.DateOnly, p.FilingFrom)
	to, toErr := time.Parse(time.DateOnly, p.FilingTo)

	if fromErr != nil || toErr != nil {
		return true
	}

	return !to.Before(after) && !from.After(before)
}
