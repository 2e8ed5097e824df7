package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/edgarvault/internal/observability"
	"github.com/Sumatoshi-tech/edgarvault/internal/pipeline"
	"github.com/Sumatoshi-tech/edgarvault/internal/render"
	"github.com/Sumatoshi-tech/edgarvault/internal/search"
)

// NewSearchCommand lists the companies matching a name query.
func NewSearchCommand(g *Globals) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the SEC company directory by name",
		Long: `Search ranks company names sharing the query's first three letters and
prints the best candidates with their CIK.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := render.New(cmd.OutOrStdout(), format, g.NoColor)
			if err != nil {
				return err
			}

			app, err := Build(cmd.Context(), g, observability.ModeCLI, stderrOrDiscard(g))
			if err != nil {
				return err
			}

			defer closeApp(app)

			candidates, err := app.Service.Search(strings.Join(args, " "))
			if errors.Is(err, search.ErrNoMatch) {
				_, writeErr := fmt.Fprintln(cmd.OutOrStdout(), pipeline.MsgNoMatch)

				return writeErr
			}

			if err != nil {
				return err
			}

			return r.Candidates(candidates)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", render.FormatText, "output format: text, json or yaml")

	return cmd
}

func closeApp(app *App) {
	closeErr := app.Close(context.Background())
	if closeErr != nil {
		app.Logger.Warn("shutdown failed", "error", closeErr)
	}
}
