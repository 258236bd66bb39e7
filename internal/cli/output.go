package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the supported output formats for CLI commands.
type OutputFormat string

const (
	// OutputFormatTable renders a bordered table.
	OutputFormatTable OutputFormat = "table"
	// OutputFormatPlain renders kubectl-style columns without borders, for grep and awk.
	OutputFormatPlain OutputFormat = "plain"
	// OutputFormatJSON prints the data as indented JSON.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML prints the data as YAML.
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidOutputFormats contains all valid output format values.
var ValidOutputFormats = []OutputFormat{
	OutputFormatTable,
	OutputFormatPlain,
	OutputFormatJSON,
	OutputFormatYAML,
}

// ValidateOutputFormat returns nil for a supported format.
func ValidateOutputFormat(format string) error {
	for _, f := range ValidOutputFormats {
		if OutputFormat(format) == f {
			return nil
		}
	}
	valid := make([]string, len(ValidOutputFormats))
	for i, f := range ValidOutputFormats {
		valid[i] = string(f)
	}
	return fmt.Errorf("unsupported output format %q, valid formats: %s", format, strings.Join(valid, ", "))
}

// Table is tabular output: a header row and the data rows.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Printer writes command results in one output format.
type Printer struct {
	Out       io.Writer
	Format    OutputFormat
	NoHeaders bool
}

// Print writes data. JSON and YAML marshal data itself; the table formats
// render tbl.
func (p Printer) Print(data any, tbl Table) error {
	switch p.Format {
	case OutputFormatJSON:
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format as JSON: %w", err)
		}
		_, err = fmt.Fprintln(p.Out, string(out))
		return err
	case OutputFormatYAML:
		out, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to format as YAML: %w", err)
		}
		_, err = p.Out.Write(out)
		return err
	case OutputFormatPlain:
		writePlain(p.Out, tbl, !p.NoHeaders)
		return nil
	case OutputFormatTable, "":
		p.writeTable(tbl)
		return nil
	}
	return fmt.Errorf("unsupported output format: %s", p.Format)
}

func (p Printer) writeTable(tbl Table) {
	if len(tbl.Rows) == 0 {
		fmt.Fprintln(p.Out, text.FgYellow.Sprint("No items found"))
		return
	}
	t := table.NewWriter()
	t.SetOutputMirror(p.Out)
	t.SetStyle(table.StyleRounded)
	if !p.NoHeaders {
		header := make(table.Row, len(tbl.Headers))
		for i, h := range tbl.Headers {
			header[i] = text.FgHiCyan.Sprint(strings.ToUpper(h))
		}
		t.AppendHeader(header)
	}
	for _, r := range tbl.Rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.Render()
}

// writePlain pads every column but the last to its widest cell plus three spaces.
func writePlain(w io.Writer, tbl Table, headers bool) {
	if len(tbl.Headers) == 0 {
		return
	}
	widths := make([]int, len(tbl.Headers))
	upper := make([]string, len(tbl.Headers))
	for i, h := range tbl.Headers {
		upper[i] = strings.ToUpper(h)
		widths[i] = len(upper[i])
	}
	rows := make([][]string, 0, len(tbl.Rows))
	for _, r := range tbl.Rows {
		row := make([]string, len(tbl.Headers))
		copy(row, r)
		for i, c := range row {
			widths[i] = max(widths[i], len(c))
		}
		rows = append(rows, row)
	}
	if headers {
		rows = append([][]string{upper}, rows...)
	}
	for _, row := range rows {
		var sb strings.Builder
		for i, c := range row {
			if i == len(row)-1 {
				sb.WriteString(c)
				break
			}
			fmt.Fprintf(&sb, "%-*s", widths[i]+3, c)
		}
		fmt.Fprintln(w, strings.TrimRight(sb.String(), " "))
	}
}

// FormatError renders an error line.
func FormatError(err error) string {
	return text.FgRed.Sprintf("Error: %v", err)
}

// FormatSuccess renders a success line.
func FormatSuccess(msg string) string {
	return text.FgGreen.Sprint(msg)
}
