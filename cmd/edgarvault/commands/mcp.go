package commands

import (
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/edgarvault/internal/mcp"
	"github.com/Sumatoshi-tech/edgarvault/internal/observability"
	"github.com/Sumatoshi-tech/edgarvault/pkg/version"
)

// NewMCPCommand serves the EDGAR tools over stdio.
func NewMCPCommand(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start an MCP server for AI agent integration",
		Long: `Start a Model Context Protocol server on stdio transport.

Tools:
  - edgar_search: rank companies by name
  - edgar_resolve: map a chosen candidate to its CIK
  - edgar_fetch: download, clean and upload a company-year of 10-K filings`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := Build(cmd.Context(), g, observability.ModeMCP, stderrOrDiscard(g))
			if err != nil {
				return err
			}

			defer closeApp(app)

			srv := mcp.NewServer(mcp.ServerDeps{
				Service: app.Service,
				Version: version.Version,
				Logger:  app.Logger,
				Metrics: app.Metrics,
				Tracer:  app.Providers.Tracer,
			})

			return srv.Run(cmd.Context())
		},
	}
}
