package overlay

import (
	"fmt"
)

// CountdownText renders the second line of a countdown panel.
func CountdownText(remaining int) string {
	if remaining < 0 {
		remaining = 0
	}
	return fmt.Sprintf("Closing in %d s", remaining)
}

// ElapsedText renders the second line of an elapsed-time panel.
func ElapsedText(elapsed int) string {
	if elapsed < 0 {
		elapsed = 0
	}
	return fmt.Sprintf("Elapsed time: %d seconds", elapsed)
}
