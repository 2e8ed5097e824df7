package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/edgarvault/internal/directory"
	"github.com/Sumatoshi-tech/edgarvault/internal/observability"
	"github.com/Sumatoshi-tech/edgarvault/internal/pipeline"
	"github.com/Sumatoshi-tech/edgarvault/internal/render"
	"github.com/Sumatoshi-tech/edgarvault/internal/search"
)

const msgInvalidSelection = "Invalid selection."

// ShellService is what the interactive loop needs from the backend.
type ShellService interface {
	Search(query string) ([]search.Candidate, error)
	Resolve(choice string) (directory.Record, error)
	LookupCIK(input string) (directory.Record, error)
	FetchRecord(ctx context.Context, rec directory.Record, year int) (pipeline.Result, error)
	Years() []int
	Mode() pipeline.LookupMode
}

// NewShellCommand starts the interactive search, select and fetch loop.
func NewShellCommand(g *Globals) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactively search a company, pick a year and fetch its 10-K",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := render.New(cmd.OutOrStdout(), render.FormatText, g.NoColor)
			if err != nil {
				return err
			}

			app, err := Build(cmd.Context(), g, observability.ModeShell, stderrOrDiscard(g))
			if err != nil {
				return err
			}

			defer closeApp(app)

			return RunShell(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), app.Service, r)
		},
	}
}

// RunShell reads from in until end of input or a blank company prompt.
func RunShell(ctx context.Context, in io.Reader, out io.Writer, svc ShellService, r *render.Renderer) error {
	sh := &shell{
		scanner: bufio.NewScanner(in),
		out:     out,
		svc:     svc,
		render:  r,
	}

	for ctx.Err() == nil {
		input, ok := sh.ask("Company name or CIK (blank to quit): ")
		if !ok || input == "" {
			return nil
		}

		rec, found := sh.company(input)
		if !found {
			continue
		}

		year, picked := sh.year()
		if !picked {
			continue
		}

		answer, ok := sh.ask(fmt.Sprintf("Download 10-K filings for %s (%s) in %d? [Y/n]: ", rec.Name, rec.CIK, year))
		if !ok {
			return nil
		}

		if strings.HasPrefix(strings.ToLower(answer), "n") {
			continue
		}

		sh.say("Downloading...")

		res, err := svc.FetchRecord(ctx, rec, year)
		if err != nil {
			sh.say(err.Error())

			continue
		}

		renderErr := r.Result(res)
		if renderErr != nil {
			return renderErr
		}
	}

	return ctx.Err()
}

type shell struct {
	scanner *bufio.Scanner
	out     io.Writer
	svc     ShellService
	render  *render.Renderer
}

func (s *shell) ask(prompt string) (string, bool) {
	_, _ = fmt.Fprint(s.out, prompt)

	if !s.scanner.Scan() {
		_, _ = fmt.Fprintln(s.out)

		return "", false
	}

	return strings.TrimSpace(s.scanner.Text()), true
}

func (s *shell) say(line string) {
	_, _ = fmt.Fprintln(s.out, line)
}

// company turns the first prompt into a record, either directly for an
// identifier or through a numbered candidate list.
func (s *shell) company(input string) (directory.Record, bool) {
	mode := s.svc.Mode()
	if mode == pipeline.LookupIdentifier || (mode == pipeline.LookupAuto && directory.IsIdentifier(input)) {
		rec, err := s.svc.LookupCIK(input)
		if err != nil {
			s.say(pipeline.MsgInvalidIdentifier)

			return directory.Record{}, false
		}

		return rec, true
	}

	candidates, err := s.svc.Search(input)
	if err != nil {
		s.say(pipeline.MsgNoMatch)

		return directory.Record{}, false
	}

	choices := make([]string, len(candidates))
	for i, c := range candidates {
		choices[i] = c.Display()
	}

	_ = s.render.Choices(choices)

	for {
		answer, ok := s.ask(fmt.Sprintf("Select a company [1-%d]: ", len(choices)))
		if !ok || answer == "" {
			return directory.Record{}, false
		}

		n, convErr := strconv.Atoi(answer)
		if convErr != nil || n < 1 || n > len(choices) {
			s.say(msgInvalidSelection)

			continue
		}

		rec, resolveErr := s.svc.Resolve(choices[n-1])
		if resolveErr != nil {
			s.say(pipeline.MsgNoMatch)

			return directory.Record{}, false
		}

		return rec, true
	}
}

func (s *shell) year() (int, bool) {
	years := s.svc.Years()
	if len(years) == 0 {
		return 0, false
	}

	prompt := fmt.Sprintf("Year [%d-%d]: ", years[0], years[len(years)-1])

	for {
		answer, ok := s.ask(prompt)
		if !ok || answer == "" {
			return 0, false
		}

		y, err := strconv.Atoi(answer)
		if err != nil || !slices.Contains(years, y) {
			s.say(msgInvalidSelection)

			continue
		}

		return y, true
	}
}
