package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/edgarvault/internal/directory"
	"github.com/Sumatoshi-tech/edgarvault/internal/search"
)

// Year bounds offered by the surfaces.
const (
	DefaultMinYear = 1993
	DefaultMaxYear = 2022
)

// LookupMode selects how Fetch interprets its input.
type LookupMode string

// Lookup modes.
const (
	LookupAuto       LookupMode = "auto"
	LookupName       LookupMode = "name"
	LookupIdentifier LookupMode = "identifier"
)

// Service errors.
var (
	ErrInvalidYear       = errors.New("year out of range")
	ErrUnknownLookupMode = errors.New("unknown lookup mode")
)

// ParseLookupMode validates a lookup mode name. Empty means auto.
func ParseLookupMode(name string) (LookupMode, error) {
	switch LookupMode(name) {
	case LookupAuto, LookupName, LookupIdentifier:
		return LookupMode(name), nil
	case "":
		return LookupAuto, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownLookupMode, name)
	}
}

// Runner executes one request.
type Runner interface {
	Submit(ctx context.Context, req Request) <-chan Result
}

// Service is what the user surfaces talk to.
type Service struct {
	dir      *directory.Directory
	resolver *search.Resolver
	runner   Runner
	mode     LookupMode
	minYear  int
	maxYear  int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLookupMode sets how Fetch interprets its input.
func WithLookupMode(mode LookupMode) ServiceOption {
	return func(s *Service) {
		s.mode = mode
	}
}

// WithYearRange sets the inclusive year bounds.
func WithYearRange(minYear, maxYear int) ServiceOption {
	return func(s *Service) {
		if minYear > 0 && maxYear >= minYear {
			s.minYear, s.maxYear = minYear, maxYear
		}
	}
}

// NewService bundles the directory, resolver and runner.
func NewService(dir *directory.Directory, resolver *search.Resolver, runner Runner, opts ...ServiceOption) *Service {
	s := &Service{
		dir:      dir,
		resolver: resolver,
		runner:   runner,
		mode:     LookupAuto,
		minYear:  DefaultMinYear,
		maxYear:  DefaultMaxYear,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Directory returns the loaded company directory.
func (s *Service) Directory() *directory.Directory {
	return s.dir
}

// Mode returns the configured lookup mode.
func (s *Service) Mode() LookupMode {
	return s.mode
}

// Search returns ranked candidates for query.
func (s *Service) Search(query string) ([]search.Candidate, error) {
	return s.resolver.Search(query)
}

// Resolve maps a chosen candidate back to its record.
func (s *Service) Resolve(choice string) (directory.Record, error) {
	return s.resolver.Resolve(choice)
}

// LookupCIK returns the record for an identifier.
func (s *Service) LookupCIK(input string) (directory.Record, error) {
	return s.resolver.LookupCIK(input)
}

// Years lists the selectable years in ascending order.
func (s *Service) Years() []int {
	years := make([]int, 0, s.maxYear-s.minYear+1)
	for y := s.minYear; y <= s.maxYear; y++ {
		years = append(years, y)
	}

	return years
}

// ValidateYear rejects a year outside the configured range.
func (s *Service) ValidateYear(year int) error {
	if year < s.minYear || year > s.maxYear {
		return fmt.Errorf("%w: %d not in %d-%d", ErrInvalidYear, year, s.minYear, s.maxYear)
	}

	return nil
}

// Fetch resolves input according to the lookup mode and runs the pipeline
// for the resulting company. Lookup failures are reported as Results with
// StatusInvalidIdentifier or StatusNoMatch; only an invalid year is an error.
func (s *Service) Fetch(ctx context.Context, input string, year int) (Result, error) {
	yearErr := s.ValidateYear(year)
	if yearErr != nil {
		return Result{}, yearErr
	}

	rec, res, ok := s.lookup(input, year)
	if !ok {
		return res, nil
	}

	return s.Run(ctx, rec, year), nil
}

// FetchRecord runs the pipeline for an already resolved record.
func (s *Service) FetchRecord(ctx context.Context, rec directory.Record, year int) (Result, error) {
	yearErr := s.ValidateYear(year)
	if yearErr != nil {
		return Result{}, yearErr
	}

	return s.Run(ctx, rec, year), nil
}

// Run submits a fetch for an already resolved record and waits for it.
func (s *Service) Run(ctx context.Context, rec directory.Record, year int) Result {
	req := Request{CIK: rec.CIK, CompanyName: rec.Name, Year: year}

	select {
	case res, ok := <-s.runner.Submit(ctx, req):
		if !ok {
			return failed(req, context.Canceled)
		}

		return res
	case <-ctx.Done():
		return failed(req, ctx.Err())
	}
}

func (s *Service) lookup(input string, year int) (directory.Record, Result, bool) {
	identifier := s.mode == LookupIdentifier || (s.mode == LookupAuto && directory.IsIdentifier(input))

	if identifier {
		rec, err := s.resolver.LookupCIK(input)
		if err != nil {
			return directory.Record{}, Result{
				Request: Request{CIK: input, Year: year},
				Status:  StatusInvalidIdentifier,
				Message: MsgInvalidIdentifier,
			}, false
		}

		return rec, Result{}, true
	}

	noMatch := Result{
		Request: Request{CompanyName: input, Year: year},
		Status:  StatusNoMatch,
		Message: MsgNoMatch,
	}

	if rec, ok := s.dir.Record(input); ok {
		return rec, Result{}, true
	}

	candidates, err := s.resolver.Search(input)
	if err != nil {
		return directory.Record{}, noMatch, false
	}

	rec, err := s.resolver.Resolve(candidates[0].Display())
	if err != nil {
		return directory.Record{}, noMatch, false
	}

	return rec, Result{}, true
}
