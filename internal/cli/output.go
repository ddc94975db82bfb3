package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/pfrederiksen/datebook/internal/event"
	"github.com/pfrederiksen/datebook/internal/notifier"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// detailWidth is the wrap width for detail text in text output.
const detailWidth = 72

// detailIndent lines detail text up under the name in "%3d. name".
const detailIndent = 5

// OutputEntry is an event as printed by the CLI. Position is 1-based.
type OutputEntry struct {
	Date     event.Date `json:"date"`
	Position int        `json:"position"`
	Name     string     `json:"name"`
	Detail   string     `json:"detail"`
	Expired  bool       `json:"expired"`
	When     string     `json:"when"`
}

// OutputResult contains data to be output
type OutputResult struct {
	Today       event.Date    `json:"today"`
	View        string        `json:"view"`
	HorizonDays *int          `json:"horizon_days,omitempty"`
	Query       string        `json:"query,omitempty"`
	Count       int           `json:"count"`
	Events      []OutputEntry `json:"events"`
}

func newResult(view string, today event.Date, entries []event.Entry) *OutputResult {
	r := &OutputResult{
		Today:  today,
		View:   view,
		Count:  len(entries),
		Events: make([]OutputEntry, 0, len(entries)),
	}
	for _, e := range entries {
		r.Events = append(r.Events, toOutputEntry(today, e))
	}
	return r
}

func toOutputEntry(today event.Date, e event.Entry) OutputEntry {
	return OutputEntry{
		Date:     e.Date,
		Position: e.Position + 1,
		Name:     e.Name,
		Detail:   e.Detail,
		Expired:  e.Expired,
		When:     notifier.RelativeDay(today, e.Date),
	}
}

// styles holds the text-mode styles. With color off every style is empty.
type styles struct {
	heading lipgloss.Style
	expired lipgloss.Style
	today   lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(color bool) styles {
	if !color {
		return styles{}
	}
	return styles{
		heading: lipgloss.NewStyle().Bold(true),
		expired: lipgloss.NewStyle().Faint(true).Strikethrough(true),
		today:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, color bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, newStyles(color))
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results grouped by date, one numbered line per event
// with its detail wrapped underneath.
func writeText(w io.Writer, result *OutputResult, st styles) error {
	if result.Count == 0 {
		switch result.View {
		case "upcoming":
			fmt.Fprintln(w, "No upcoming events.")
		case "search":
			fmt.Fprintf(w, "No events match %q.\n", result.Query)
		default:
			fmt.Fprintln(w, "No events found.")
		}
		return nil
	}

	var prev event.Date
	for i, e := range result.Events {
		if i == 0 || e.Date != prev {
			if i > 0 {
				fmt.Fprintln(w)
			}
			heading := st.heading
			if e.Date == result.Today {
				heading = st.today
			}
			fmt.Fprintf(w, "%s %s\n", heading.Render(e.Date.String()), st.muted.Render("("+e.When+")"))
			prev = e.Date
		}

		line := fmt.Sprintf("%3d. %s", e.Position, e.Name)
		if e.Expired {
			line = st.expired.Render(line) + " " + st.muted.Render("[expired]")
		}
		fmt.Fprintln(w, line)
		if e.Detail != "" {
			detail := wordwrap.String(e.Detail, detailWidth-detailIndent)
			fmt.Fprintln(w, indent.String(detail, detailIndent))
		}
	}

	label := "events"
	if result.Count == 1 {
		label = "event"
	}
	fmt.Fprintf(w, "\nTotal: %d %s\n", result.Count, label)
	return nil
}

// writeRecord prints a single event with its detail word-wrapped.
func writeRecord(w io.Writer, e OutputEntry, format OutputFormat, color bool) error {
	if format == FormatJSON {
		return writeJSON(w, e)
	}
	st := newStyles(color)
	fmt.Fprintf(w, "%s\n", st.heading.Render(e.Name))
	fmt.Fprintf(w, "%s #%d %s\n", e.Date, e.Position, st.muted.Render("("+e.When+")"))
	if e.Detail != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, indent.String(wordwrap.String(e.Detail, detailWidth), 2))
	}
	return nil
}
