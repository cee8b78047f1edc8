package report

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Failure is a row (or a whole month, Row == 0) that did not make it into
// the portal.
type Failure struct {
	Row    int
	Month  string
	Reason string
}

// Report is the outcome of one run.
type Report struct {
	Action string
	File   string
	RunID  string
	DryRun bool

	Total   int
	Sent    int
	Skipped int
	Deleted int

	Failures []Failure

	Started  time.Time
	Finished time.Time
}

func (r *Report) Fail(row int, month, reason string) {
	r.Failures = append(r.Failures, Failure{Row: row, Month: month, Reason: reason})
}

func (r Report) OK() bool {
	return len(r.Failures) == 0
}

// Sorted returns the failures ordered by row, month wide failures first.
func (r Report) Sorted() []Failure {
	out := make([]Failure, len(r.Failures))
	copy(out, r.Failures)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Month < out[j].Month
	})
	return out
}

func (r Report) Summary() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s", r.Action)
	if r.File != "" {
		fmt.Fprintf(&buf, " %s", r.File)
	}
	if r.DryRun {
		buf.WriteString(" (próba)")
	}
	fmt.Fprintf(&buf, ": wierszy %d, wysłano %d, pominięto %d", r.Total, r.Sent, r.Skipped)
	if r.Deleted > 0 {
		fmt.Fprintf(&buf, ", usunięto %d", r.Deleted)
	}
	fmt.Fprintf(&buf, ", błędów %d", len(r.Failures))
	if !r.Started.IsZero() && !r.Finished.IsZero() {
		fmt.Fprintf(&buf, ", czas %s", r.Finished.Sub(r.Started).Round(time.Second))
	}
	return buf.String()
}

// Render prints the summary followed by either the all-clear line or a
// table of failures.
func (r Report) Render(w io.Writer) {
	fmt.Fprintln(w, r.Summary())

	if r.OK() {
		fmt.Fprintln(w, "Wszystkie wiersze OK!")
		return
	}

	fmt.Fprintf(w, "Lista błędów (%d):\n", len(r.Failures))
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Wiersz", "Miesiąc", "Błąd"})
	for _, f := range r.Sorted() {
		row := "-"
		if f.Row > 0 {
			row = strconv.Itoa(f.Row)
		}
		month := f.Month
		if month == "" {
			month = "-"
		}
		t.AppendRow(table.Row{row, month, f.Reason})
	}
	t.SetStyle(table.StyleRounded)
	t.Style().Format.Header = text.FormatDefault
	t.Render()
}

func (r Report) String() string {
	var buf bytes.Buffer
	r.Render(&buf)
	return buf.String()
}
