package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/pfrederiksen/datebook/internal/event"
)

// parsePositionArg converts a 1-based position from the command line to the
// store's 0-based position.
func parsePositionArg(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, &event.ValidationError{Field: "position", Message: fmt.Sprintf("%q is not a positive number", s)}
	}
	return n - 1, nil
}

// userError restates store errors in the 1-based terms of the command line.
func userError(err error) error {
	var nf *event.NotFoundError
	if errors.As(err, &nf) {
		return fmt.Errorf("no event #%d on %s: %w", nf.Position+1, nf.Date, event.ErrNotFound)
	}
	return err
}
