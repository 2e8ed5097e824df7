package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/edgarvault/internal/pipeline"
)

// Tool names.
const (
	ToolNameSearch  = "edgar_search"
	ToolNameResolve = "edgar_resolve"
	ToolNameFetch   = "edgar_fetch"
)

// Input validation errors.
var (
	ErrEmptyQuery  = errors.New("query parameter is required and must not be empty")
	ErrEmptyChoice = errors.New("choice parameter is required and must not be empty")
	ErrNoCompany   = errors.New("one of company or cik is required")
	ErrBothCompany = errors.New("company and cik are mutually exclusive")
	ErrNoBackend   = errors.New("no service configured")
)

// SearchInput is the input schema for edgar_search.
type SearchInput struct {
	Query string `json:"query" jsonschema:"free-text company name query"`
}

// ResolveInput is the input schema for edgar_resolve.
type ResolveInput struct {
	Choice string `json:"choice" jsonschema:"a company name, a 'NAME (CIK)' candidate, or a 10-digit CIK"`
}

// FetchInput is the input schema for edgar_fetch.
type FetchInput struct {
	Company string `json:"company,omitempty" jsonschema:"company name, resolved by search"`
	CIK     string `json:"cik,omitempty"     jsonschema:"10-digit zero-padded CIK"`
	Year    int    `json:"year"              jsonschema:"filing year"`
}

// ToolOutput wraps structured tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, ToolOutput{Data: value}, nil
}

func (s *Server) handleSearch(_ context.Context, _ *mcpsdk.CallToolRequest, in SearchInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if s.service == nil {
		return errorResult(ErrNoBackend)
	}

	query := strings.TrimSpace(in.Query)
	if query == "" {
		return errorResult(ErrEmptyQuery)
	}

	candidates, err := s.service.Search(query)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(candidates)
}

func (s *Server) handleResolve(_ context.Context, _ *mcpsdk.CallToolRequest, in ResolveInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if s.service == nil {
		return errorResult(ErrNoBackend)
	}

	choice := strings.TrimSpace(in.Choice)
	if choice == "" {
		return errorResult(ErrEmptyChoice)
	}

	rec, err := s.service.Resolve(choice)
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(rec)
}

func (s *Server) handleFetch(ctx context.Context, _ *mcpsdk.CallToolRequest, in FetchInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if s.service == nil {
		return errorResult(ErrNoBackend)
	}

	company := strings.TrimSpace(in.Company)
	cik := strings.TrimSpace(in.CIK)

	switch {
	case company == "" && cik == "":
		return errorResult(ErrNoCompany)
	case company != "" && cik != "":
		return errorResult(ErrBothCompany)
	}

	if cik == "" {
		res, err := s.service.Fetch(ctx, company, in.Year)
		if err != nil {
			return errorResult(err)
		}

		return statusResult(res)
	}

	yearErr := s.service.ValidateYear(in.Year)
	if yearErr != nil {
		return errorResult(yearErr)
	}

	rec, lookupErr := s.service.LookupCIK(cik)
	if lookupErr != nil {
		return statusResult(pipeline.Result{
			Request: pipeline.Request{CIK: cik, Year: in.Year},
			Status:  pipeline.StatusInvalidIdentifier,
			Message: pipeline.MsgInvalidIdentifier,
		})
	}

	res, err := s.service.FetchRecord(ctx, rec, in.Year)
	if err != nil {
		return errorResult(err)
	}

	return statusResult(res)
}

// statusResult reports a pipeline Result; only StatusError marks the call
// as failed.
func statusResult(res pipeline.Result) (*mcpsdk.CallToolResult, ToolOutput, error) {
	result, output, err := jsonResult(res)
	if result != nil && res.Status == pipeline.StatusError {
		result.IsError = true
	}

	return result, output, err
}

const (
	searchToolDescription = "Search the SEC company directory by name. " +
		"Returns up to five ranked candidates with their CIK."

	resolveToolDescription = "Resolve a chosen search candidate, exact company name, " +
		"or CIK to its directory record."

	fetchToolDescription = "Download a company's 10-K filings for one year from EDGAR, " +
		"clean them and upload them to object storage. Returns the status and a download link."
)
