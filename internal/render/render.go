// Package render prints search candidates and fetch results for terminal
// users, as a table and status lines, or as JSON or YAML for scripts.
package render

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/edgarvault/internal/pipeline"
	"github.com/Sumatoshi-tech/edgarvault/internal/search"
)

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// DownloadLinkText labels the link to the last uploaded file.
const DownloadLinkText = "Download the cleaned file here."

// ErrUnknownFormat is returned for an output format other than text, json or yaml.
var ErrUnknownFormat = errors.New("unknown output format")

// ValidateFormat checks an output format name.
func ValidateFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Renderer writes to one output in one format.
type Renderer struct {
	out     io.Writer
	format  string
	noColor bool
}

// New returns a Renderer. An empty format means text.
func New(out io.Writer, format string, noColor bool) (*Renderer, error) {
	if format == "" {
		format = FormatText
	}

	formatErr := ValidateFormat(format)
	if formatErr != nil {
		return nil, formatErr
	}

	return &Renderer{out: out, format: format, noColor: noColor}, nil
}

// Candidates prints search candidates.
func (r *Renderer) Candidates(candidates []search.Candidate) error {
	if r.format != FormatText {
		return r.encode(candidates)
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(r.out)
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.AppendHeader(table.Row{"#", "Company", "CIK", "Score"})

	for i, c := range candidates {
		tbl.AppendRow(table.Row{i + 1, c.Name, c.CIK, c.Score})
	}

	tbl.Render()

	return nil
}

// Choices prints a numbered list for interactive selection.
func (r *Renderer) Choices(items []string) error {
	for i, item := range items {
		_, err := fmt.Fprintf(r.out, "%3d) %s\n", i+1, item)
		if err != nil {
			return err
		}
	}

	return nil
}

// Result prints a fetch outcome: the status message, then the download
// link when something was uploaded.
func (r *Renderer) Result(res pipeline.Result) error {
	if r.format != FormatText {
		return r.encode(res)
	}

	_, err := r.statusColor(res.Status).Fprintln(r.out, res.Message)
	if err != nil {
		return err
	}

	if !res.OK() {
		return nil
	}

	for _, art := range res.Artifacts {
		_, err = fmt.Fprintf(r.out, "  %s (%s)\n", art.Key, humanize.Bytes(uint64(max(art.Size, 0))))
		if err != nil {
			return err
		}
	}

	if res.URL != "" {
		_, err = fmt.Fprintln(r.out, Link(DownloadLinkText, res.URL))
	}

	return err
}

// Link formats a markdown link.
func Link(text, url string) string {
	return "[" + text + "](" + url + ")"
}

// Years renders a year list as selector labels.
func Years(years []int) []string {
	labels := make([]string, len(years))
	for i, y := range years {
		labels[i] = strconv.Itoa(y)
	}

	return labels
}

func (r *Renderer) statusColor(status pipeline.Status) *color.Color {
	var c *color.Color

	switch status {
	case pipeline.StatusUploaded:
		c = color.New(color.FgGreen)
	case pipeline.StatusError:
		c = color.New(color.FgRed)
	default:
		c = color.New(color.FgYellow)
	}

	if r.noColor {
		c.DisableColor()
	}

	return c
}

func (r *Renderer) encode(value any) error {
	if r.format == FormatYAML {
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)

		encodeErr := enc.Encode(value)
		if encodeErr != nil {
			return fmt.Errorf("encode yaml: %w", encodeErr)
		}

		return enc.Close()
	}

	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")

	encodeErr := enc.Encode(value)
	if encodeErr != nil {
		return fmt.Errorf("encode json: %w", encodeErr)
	}

	return nil
}
