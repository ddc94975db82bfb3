package notifier

import (
	"fmt"
	"io"

	"github.com/pfrederiksen/datebook/internal/event"
	"github.com/pfrederiksen/datebook/internal/logger"
)

// DefaultWidth is the wrap width used when none is given.
const DefaultWidth = 72

// ConsoleNotifier writes the digest to a terminal or file
type ConsoleNotifier struct {
	w     io.Writer
	width int
}

// NewConsoleNotifier creates a notifier writing to w. A width <= 0 selects
// DefaultWidth.
func NewConsoleNotifier(w io.Writer, width int) *ConsoleNotifier {
	if width <= 0 {
		width = DefaultWidth
	}
	return &ConsoleNotifier{w: w, width: width}
}

// Notify writes the digest for entries
func (n *ConsoleNotifier) Notify(today event.Date, entries []event.Entry) error {
	if _, err := fmt.Fprint(n.w, FormatDigest(today, entries, n.width)); err != nil {
		return fmt.Errorf("writing digest: %w", err)
	}
	logger.IncrCounter("notifier.digest")
	logger.Debug("digest delivered", logger.Fields{"events": len(entries)})
	return nil
}
