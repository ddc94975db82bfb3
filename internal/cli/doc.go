// Package cli implements the command-line interface for datebook.
//
// The cli package provides the Cobra-based command tree: querying the
// reminder window and the full calendar, adding, editing and deleting events,
// ICS export and import, and the reminder digest. Output is text or JSON.
// Running datebook without a subcommand opens the interactive view.
//
// Positions on the command line are 1-based, as printed by list and
// upcoming, and are converted to the store's 0-based positions.
package cli
