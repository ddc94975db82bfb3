package notifier

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"

	"github.com/pfrederiksen/datebook/internal/event"
)

// FormatDigest formats the reminder window as a digest grouped by date. Detail
// text is wrapped to width columns; width <= 0 disables wrapping.
func FormatDigest(today event.Date, entries []event.Entry, width int) string {
	if len(entries) == 0 {
		return "No upcoming events.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d upcoming event%s\n", len(entries), pluralize(len(entries)))

	for _, group := range event.GroupByDate(entries) {
		d := group[0].Date
		fmt.Fprintf(&b, "\n%s %s (%s)\n", d, d.Time().Weekday().String()[:3], RelativeDay(today, d))
		for _, e := range group {
			fmt.Fprintf(&b, "  • %s\n", e.Name)
			if e.Detail == "" {
				continue
			}
			detail := e.Detail
			if width > 4 {
				detail = wordwrap.String(detail, width-4)
			}
			b.WriteString(indent.String(detail, 4))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// FormatDigestSummary creates a one-line summary of the reminder window
func FormatDigestSummary(today event.Date, entries []event.Entry) string {
	if len(entries) == 0 {
		return "No upcoming events"
	}
	next := entries[0]
	return fmt.Sprintf("%d upcoming event%s, next: %s %s",
		len(entries), pluralize(len(entries)), next.Name, RelativeDay(today, next.Date))
}

// RelativeDay describes d relative to today ("today", "tomorrow", "in 3 days",
// "2 days ago").
func RelativeDay(today, d event.Date) string {
	n := today.DaysUntil(d)
	switch {
	case n == 0:
		return "today"
	case n == 1:
		return "tomorrow"
	case n == -1:
		return "yesterday"
	case n > 1:
		return fmt.Sprintf("in %d days", n)
	default:
		return fmt.Sprintf("%d days ago", -n)
	}
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
