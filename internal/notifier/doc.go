// Package notifier delivers reminder digests for upcoming events.
//
// A Notifier receives the entries of the reminder window, already ordered by
// date, together with the day they were computed for. ConsoleNotifier writes
// a plain-text digest grouped by date to any io.Writer.
package notifier
