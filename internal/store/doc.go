// Package store owns the in-memory event calendar and keeps it in step with
// its persisted copy.
//
// A Store is created once at startup with Open and handed to whichever
// presentation layer drives it. Every mutator validates its input, applies the
// change to a copy of the buckets, saves the copy and only then makes it
// current, so a rejected or failed call leaves both memory and disk as they
// were. Positions returned by Upcoming and AllEvents are only valid until the
// next successful mutation; callers re-query after each one.
package store
