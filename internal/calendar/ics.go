// Package calendar converts datebook events to and from iCalendar (.ics).
package calendar

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/datebook/internal/event"
	"github.com/pfrederiksen/datebook/internal/logger"
)

// ProductID identifies datebook as the producer of exported calendars.
const ProductID = "-//datebook//datebook//EN"

// ImportResult holds the entries read from a calendar and how many VEVENTs
// were unusable.
type ImportResult struct {
	Entries []event.Entry
	Skipped int
}

// UID returns a stable identifier for the record at (date, position).
func UID(e event.Entry) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%d|%s", e.Date, e.Position, e.Name)))
	return hex.EncodeToString(sum[:]) + "@datebook"
}

// Build returns a calendar with one all-day VEVENT per entry.
func Build(entries []event.Entry, name string) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetProductId(ProductID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetCalscale("GREGORIAN")
	if name != "" {
		cal.SetXWRCalName(name)
	}

	stamp := time.Now().UTC()
	for _, e := range entries {
		start := e.Date.Time()
		ev := cal.AddEvent(UID(e))
		ev.SetDtStampTime(stamp)
		ev.SetAllDayStartAt(start)
		// DTEND is exclusive for all-day events.
		ev.SetAllDayEndAt(start.AddDate(0, 0, 1))
		ev.SetSummary(e.Name)
		if e.Detail != "" {
			ev.SetDescription(e.Detail)
		}
	}
	return cal
}

// Export writes entries to w as an iCalendar document.
func Export(w io.Writer, entries []event.Entry, name string) error {
	if err := Build(entries, name).SerializeTo(w); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	logger.Debug("calendar exported", logger.Fields{"events": len(entries)})
	return nil
}

// Import reads VEVENTs from r. DTSTART's calendar day becomes the date,
// SUMMARY the name and DESCRIPTION the detail. Events without a usable
// start or summary are skipped and counted.
func Import(r io.Reader) (ImportResult, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return ImportResult{}, fmt.Errorf("parsing calendar: %w", err)
	}

	var res ImportResult
	for _, ve := range cal.Events() {
		e, ok := entryFromVEvent(ve)
		if !ok {
			res.Skipped++
			continue
		}
		res.Entries = append(res.Entries, e)
	}

	logger.Info("calendar parsed", logger.Fields{
		"events":  len(res.Entries),
		"skipped": res.Skipped,
	})
	return res, nil
}

func entryFromVEvent(ve *ical.VEvent) (event.Entry, bool) {
	summary := ve.GetProperty(ical.ComponentPropertySummary)
	if summary == nil || strings.TrimSpace(summary.Value) == "" {
		logger.Debug("skipping vevent without summary", logger.Fields{"uid": ve.Id()})
		return event.Entry{}, false
	}

	start, err := ve.GetStartAt()
	if err != nil {
		logger.Debug("skipping vevent without start", logger.Fields{
			"uid":   ve.Id(),
			"error": err.Error(),
		})
		return event.Entry{}, false
	}

	date := startDate(start)
	if err := date.Validate(); err != nil {
		logger.Debug("skipping vevent with unusable date", logger.Fields{
			"uid":   ve.Id(),
			"error": err.Error(),
		})
		return event.Entry{}, false
	}

	var detail string
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		detail = p.Value
	}

	return event.Entry{
		Date:   date,
		Record: event.Record{Name: strings.TrimSpace(summary.Value), Detail: detail},
	}, true
}

// startDate keeps floating and zoned times on their own calendar day and
// moves UTC timestamps to the local day.
func startDate(t time.Time) event.Date {
	if t.Location() == time.UTC {
		return event.DateOf(t.Local())
	}
	return event.DateOf(t)
}
