package commands

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/edgarvault/internal/observability"
	"github.com/Sumatoshi-tech/edgarvault/internal/pipeline"
	"github.com/Sumatoshi-tech/edgarvault/internal/render"
)

// Usage errors.
var (
	ErrNoCompany   = errors.New("one of --company or --cik is required")
	ErrBothCompany = errors.New("--company and --cik are mutually exclusive")
	ErrNoYear      = errors.New("--year is required")
)

// NewFetchCommand downloads, cleans and uploads one company-year.
func NewFetchCommand(g *Globals) *cobra.Command {
	var (
		company string
		cik     string
		year    int
		format  string
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch a company's 10-K filings for one year",
		Long: `Fetch downloads the 10-K filings a company filed during the given year,
extracts their text and uploads every file to the configured bucket.

Every pipeline outcome is printed and exits 0; only usage and configuration
errors exit non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			company = strings.TrimSpace(company)
			cik = strings.TrimSpace(cik)

			usageErr := validateFetchFlags(company, cik, year)
			if usageErr != nil {
				return usageErr
			}

			r, err := render.New(cmd.OutOrStdout(), format, g.NoColor)
			if err != nil {
				return err
			}

			app, err := Build(cmd.Context(), g, observability.ModeCLI, stderrOrDiscard(g))
			if err != nil {
				return err
			}

			defer closeApp(app)

			res, err := fetch(cmd, app.Service, company, cik, year)
			if err != nil {
				return err
			}

			return r.Result(res)
		},
	}

	cmd.Flags().StringVarP(&company, "company", "c", "", "company name")
	cmd.Flags().StringVar(&cik, "cik", "", "10-digit zero-padded CIK")
	cmd.Flags().IntVarP(&year, "year", "y", 0, "filing year")
	cmd.Flags().StringVarP(&format, "format", "f", render.FormatText, "output format: text, json or yaml")

	return cmd
}

func validateFetchFlags(company, cik string, year int) error {
	switch {
	case company == "" && cik == "":
		return ErrNoCompany
	case company != "" && cik != "":
		return ErrBothCompany
	case year == 0:
		return ErrNoYear
	}

	return nil
}

func fetch(cmd *cobra.Command, svc *pipeline.Service, company, cik string, year int) (pipeline.Result, error) {
	if cik == "" {
		return svc.Fetch(cmd.Context(), company, year)
	}

	rec, err := svc.LookupCIK(cik)
	if err != nil {
		yearErr := svc.ValidateYear(year)
		if yearErr != nil {
			return pipeline.Result{}, yearErr
		}

		return pipeline.Result{
			Request: pipeline.Request{CIK: cik, Year: year},
			Status:  pipeline.StatusInvalidIdentifier,
			Message: pipeline.MsgInvalidIdentifier,
		}, nil
	}

	return svc.FetchRecord(cmd.Context(), rec, year)
}
