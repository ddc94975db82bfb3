package event

import (
	"sort"
	"strings"
)

// Record is a single named event with free-text detail.
type Record struct {
	Name   string `json:"name"`
	Detail string `json:"detail"`
}

// NewRecord trims name and rejects it when nothing is left. Detail is kept
// verbatim.
func NewRecord(name, detail string) (Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Record{}, &ValidationError{Field: "name", Message: "must not be empty"}
	}
	return Record{Name: name, Detail: detail}, nil
}

// Buckets maps each date to its ordered events. A date is never present
// with an empty slice.
type Buckets map[Date][]Record

// Len returns the total number of records across all buckets.
func (b Buckets) Len() int {
	n := 0
	for _, recs := range b {
		n += len(recs)
	}
	return n
}

// Dates returns the bucket keys in ascending order.
func (b Buckets) Dates() []Date {
	dates := make([]Date, 0, len(b))
	for d := range b {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}

// Clone returns a deep copy; mutating the copy's slices never affects b.
func (b Buckets) Clone() Buckets {
	out := make(Buckets, len(b))
	for d, recs := range b {
		out[d] = append([]Record(nil), recs...)
	}
	return out
}

// Equal reports whether b and o hold the same records in the same order.
func (b Buckets) Equal(o Buckets) bool {
	if len(b) != len(o) {
		return false
	}
	for d, recs := range b {
		other, ok := o[d]
		if !ok || len(other) != len(recs) {
			return false
		}
		for i := range recs {
			if recs[i] != other[i] {
				return false
			}
		}
	}
	return true
}

// Get returns the record at position in date's bucket.
func (b Buckets) Get(date Date, position int) (Record, error) {
	recs, ok := b[date]
	if !ok || position < 0 || position >= len(recs) {
		return Record{}, &NotFoundError{Date: date, Position: position}
	}
	return recs[position], nil
}

// Append adds rec at the end of date's bucket, creating it if needed.
func (b Buckets) Append(date Date, rec Record) {
	b[date] = append(b[date], rec)
}

// RemoveAt deletes the record at position and drops the date key when its
// bucket becomes empty. Later records in the bucket shift down by one.
func (b Buckets) RemoveAt(date Date, position int) (Record, error) {
	rec, err := b.Get(date, position)
	if err != nil {
		return Record{}, err
	}
	recs := b[date]
	rest := make([]Record, 0, len(recs)-1)
	rest = append(rest, recs[:position]...)
	rest = append(rest, recs[position+1:]...)
	if len(rest) == 0 {
		delete(b, date)
	} else {
		b[date] = rest
	}
	return rec, nil
}
