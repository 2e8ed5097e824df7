// Package commands implements the edgarvault command line.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/edgarvault/pkg/version"
)

// NewRootCommand assembles the command tree.
func NewRootCommand() *cobra.Command {
	g := &Globals{}

	root := &cobra.Command{
		Use:   "edgarvault",
		Short: "Fetch SEC 10-K filings into object storage",
		Long: `edgarvault finds a company in the SEC directory, downloads its 10-K filings
for a year from EDGAR, extracts their text and uploads them to a bucket.

Commands:
  search    Rank companies by name
  fetch     Download, clean and upload one company-year
  shell     Interactive search and fetch
  mcp       Serve the same operations as MCP tools`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&g.ConfigPath, "config", "", "config file (default: edgarvault.yaml in ., ./config or ~/.edgarvault)")
	flags.BoolVarP(&g.Verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&g.Quiet, "quiet", "q", false, "suppress log output")
	flags.BoolVar(&g.NoColor, "no-color", false, "disable colored output")
	flags.StringVar(&g.MetricsAddr, "metrics-addr", "", "serve Prometheus /metrics on this address")

	root.AddCommand(
		NewSearchCommand(g),
		NewFetchCommand(g),
		NewShellCommand(g),
		NewMCPCommand(g),
		newVersionCommand(),
	)

	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "edgarvault %s\n", version.String())

			return err
		},
	}
}
