// Package event provides the datebook data model and the pure queries over it.
//
// Events are stored in per-date buckets: a Date maps to an ordered slice of
// Records, and insertion order within a bucket is the display order. A Record
// has no identifier of its own; while a view is open it is addressed by its
// (Date, position) pair, which shifts whenever an earlier record in the same
// bucket is removed. Callers must re-run Upcoming or AllEvents after every
// mutation instead of reusing positions from an older result.
package event
