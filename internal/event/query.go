package event

import "github.com/sahilm/fuzzy"

// DefaultHorizonDays is the reminder window length used when none is configured.
const DefaultHorizonDays = 7

// Entry is one record as seen by a view: where it lives and, for AllEvents,
// whether its date has passed.
type Entry struct {
	Date     Date `json:"date"`
	Position int  `json:"position"`
	Record
	Expired bool `json:"expired"`
}

// Upcoming returns the records dated from today through today+horizonDays,
// both ends inclusive, ordered by date and then by bucket order. A negative
// horizon yields nothing.
func Upcoming(b Buckets, today Date, horizonDays int) []Entry {
	end := today.AddDays(horizonDays)
	var entries []Entry
	for _, d := range b.Dates() {
		if d.Before(today) || d.After(end) {
			continue
		}
		for i, rec := range b[d] {
			entries = append(entries, Entry{Date: d, Position: i, Record: rec})
		}
	}
	return entries
}

// AllEvents returns every record ordered by date and then by bucket order,
// with Expired set for dates strictly before today.
func AllEvents(b Buckets, today Date) []Entry {
	entries := make([]Entry, 0, b.Len())
	for _, d := range b.Dates() {
		expired := d.Before(today)
		for i, rec := range b[d] {
			entries = append(entries, Entry{Date: d, Position: i, Record: rec, Expired: expired})
		}
	}
	return entries
}

// Search fuzzy-matches query against entry names, best match first. An empty
// query returns entries unchanged.
func Search(entries []Entry, query string) []Entry {
	if query == "" {
		return entries
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	matches := fuzzy.Find(query, names)
	out := make([]Entry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}

// GroupByDate splits an ordered entry list into runs sharing the same date,
// preserving order.
func GroupByDate(entries []Entry) [][]Entry {
	var groups [][]Entry
	for _, e := range entries {
		n := len(groups)
		if n > 0 && groups[n-1][0].Date == e.Date {
			groups[n-1] = append(groups[n-1], e)
			continue
		}
		groups = append(groups, []Entry{e})
	}
	return groups
}
