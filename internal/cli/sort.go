package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/datebook/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate SortOrder = "date"
	SortByName SortOrder = "name"
)

func parseSortOrder(s string) (SortOrder, error) {
	switch order := SortOrder(strings.ToLower(s)); order {
	case SortByDate, SortByName:
		return order, nil
	default:
		return "", &event.ValidationError{Field: "sort", Message: fmt.Sprintf("invalid sort %q (must be 'date' or 'name')", s)}
	}
}

// sortEntries sorts entries in place. Date order is the store's own order
// (date, then bucket position); name order is case-insensitive with date as
// the tie-breaker.
func sortEntries(entries []event.Entry, order SortOrder) {
	switch order {
	case SortByDate:
		sort.SliceStable(entries, func(i, j int) bool {
			return compareByDate(entries[i], entries[j])
		})
	case SortByName:
		sort.SliceStable(entries, func(i, j int) bool {
			ni, nj := strings.ToLower(entries[i].Name), strings.ToLower(entries[j].Name)
			if ni != nj {
				return ni < nj
			}
			return compareByDate(entries[i], entries[j])
		})
	}
}

// compareByDate reports whether i comes before j by date and then position.
func compareByDate(i, j event.Entry) bool {
	if c := i.Date.Compare(j.Date); c != 0 {
		return c < 0
	}
	return i.Position < j.Position
}
