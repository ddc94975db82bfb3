// Package tui is datebook's interactive terminal view, built on bubbletea.
//
// The model shows either the reminder window or the full calendar, lets the
// user add, edit and delete events through a small form, and fuzzy-filters
// the current list by name. It never keeps a (date, position) reference
// across a mutation: every successful change or reload re-runs the active
// query with a fresh "today".
package tui
