package pipeline

import (
	"fmt"

	"github.com/Sumatoshi-tech/edgarvault/internal/storage"
)

// Status classifies a Result.
type Status string

// Result statuses.
const (
	StatusUploaded          Status = "uploaded"
	StatusNotFound          Status = "not_found"
	StatusInvalidIdentifier Status = "invalid_identifier"
	StatusNoMatch           Status = "no_match"
	StatusError             Status = "error"
)

// Messages shown to users.
const (
	MsgInvalidIdentifier = "Invalid CIK provided."
	MsgNoMatch           = "No matching companies found."
)

// Request is one company-year to fetch.
type Request struct {
	CIK         string `json:"cik"          yaml:"cik"`
	CompanyName string `json:"company_name" yaml:"company_name"`
	Year        int    `json:"year"         yaml:"year"`
}

// Result is what a surface shows after a run. URL is the link of the last
// published artifact and is empty unless Status is StatusUploaded.
type Result struct {
	RunID     string             `json:"run_id,omitempty"    yaml:"run_id,omitempty"`
	Request   Request            `json:"request"             yaml:"request"`
	Status    Status             `json:"status"              yaml:"status"`
	Message   string             `json:"message"             yaml:"message"`
	URL       string             `json:"url,omitempty"       yaml:"url,omitempty"`
	Artifacts []storage.Artifact `json:"artifacts,omitempty" yaml:"artifacts,omitempty"`
}

// OK reports whether the run uploaded something.
func (r Result) OK() bool {
	return r.Status == StatusUploaded
}

func uploaded(req Request, artifacts []storage.Artifact) Result {
	return Result{
		Request:   req,
		Status:    StatusUploaded,
		Message:   fmt.Sprintf("Downloaded and uploaded 10-K filings for %s in %d.", req.CompanyName, req.Year),
		URL:       artifacts[len(artifacts)-1].URL,
		Artifacts: artifacts,
	}
}

func notFound(req Request) Result {
	return Result{
		Request: req,
		Status:  StatusNotFound,
		Message: fmt.Sprintf("No 10-K filings were downloaded for %s in %d.", req.CompanyName, req.Year),
	}
}

func failed(req Request, err error) Result {
	return Result{Request: req, Status: StatusError, Message: "Error: " + err.Error()}
}
