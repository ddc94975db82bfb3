package notifier

import (
	"github.com/pfrederiksen/datebook/internal/event"
)

// Notifier defines the interface for delivering a reminder digest
type Notifier interface {
	// Notify delivers the upcoming entries as seen on today
	Notify(today event.Date, entries []event.Entry) error
}
