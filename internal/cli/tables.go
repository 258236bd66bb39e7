package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"odootest/internal/config"
	"odootest/internal/database"
	"odootest/internal/lens"
	"odootest/internal/session"
	"odootest/internal/workflow"
	strutil "odootest/pkg/strings"
)

// LensTable lists lenses with one-based indexes and line numbers.
func LensTable(lenses []lens.Lens) Table {
	t := Table{Headers: []string{"#", "line", "lens", "action", "args"}}
	for i, l := range lenses {
		t.Rows = append(t.Rows, []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(l.Range.Start.Line + 1),
			l.Label(),
			l.Action,
			strings.Join(l.Args, " "),
		})
	}
	return t
}

// HistoryTable lists executions, oldest first.
func HistoryTable(execs []workflow.Execution) Table {
	t := Table{Headers: []string{"id", "action", "args", "status", "started", "duration", "error"}}
	for _, e := range execs {
		duration := "-"
		if e.CompletedAt != nil {
			duration = (time.Duration(e.DurationMs) * time.Millisecond).String()
		}
		t.Rows = append(t.Rows, []string{
			shortID(e.ID),
			e.Action,
			strings.Join(e.Args, " "),
			string(e.Status),
			e.StartedAt.Format(time.TimeOnly),
			duration,
			strutil.OneLine(strutil.LastLine(e.Error), strutil.DefaultCellMaxLen),
		})
	}
	return t
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// ActionTable lists the dispatchable actions.
func ActionTable(actions []session.Action) Table {
	t := Table{Headers: []string{"action", "args", "guards", "description"}}
	for _, a := range actions {
		guards := strings.Join(a.Guards, ",")
		if guards == "" {
			guards = "-"
		}
		t.Rows = append(t.Rows, []string{a.ID, a.Usage, guards, strutil.OneLine(a.Description, strutil.DefaultCellMaxLen)})
	}
	return t
}

// DumpTable lists local dump artifacts.
func DumpTable(artifacts []database.Artifact) Table {
	t := Table{Headers: []string{"name", "size", "modified"}}
	for _, a := range artifacts {
		t.Rows = append(t.Rows, []string{a.Name, humanSize(a.Size), a.ModTime.Format(time.DateTime)})
	}
	return t
}

// RemoteDumpTable lists dump artifacts of the mirror bucket.
func RemoteDumpTable(dumps []database.RemoteDump) Table {
	t := Table{Headers: []string{"name", "size", "modified"}}
	for _, d := range dumps {
		t.Rows = append(t.Rows, []string{d.Name, humanSize(d.Size), d.LastModified.Format(time.DateTime)})
	}
	return t
}

// ValidationTable lists configuration problems.
func ValidationTable(errs config.ValidationErrors) Table {
	t := Table{Headers: []string{"key", "problem"}}
	for _, e := range errs {
		t.Rows = append(t.Rows, []string{string(e.Field), e.Message})
	}
	return t
}

// ConfigTable lists every configuration key with its value.
func ConfigTable(c config.Config) Table {
	t := Table{Headers: []string{"key", "value"}}
	for _, k := range config.AllKeys {
		v, err := c.Value(k)
		if err != nil {
			continue
		}
		t.Rows = append(t.Rows, []string{string(k), FormatValue(v)})
	}
	return t
}

// FormatValue renders a configuration value on one line.
func FormatValue(v any) string {
	switch val := v.(type) {
	case []string:
		return strings.Join(val, ", ")
	case [][]string:
		layers := make([]string, len(val))
		for i, l := range val {
			layers[i] = "[" + strings.Join(l, " ") + "]"
		}
		return strings.Join(layers, " ")
	case config.DumpMirror:
		if !val.Enabled() {
			return "-"
		}
		return fmt.Sprintf("%s/%s", val.Endpoint, val.Bucket)
	}
	return fmt.Sprint(v)
}

func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
