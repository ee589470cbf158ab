package util //nolint:revive // package name util hosts shared formatting helpers used by the admin CLI

import "time"

// FormatRunDuration renders the wall time between start and end for display.
// Returns "-" when the run has not finished or the span is not positive; spans
// are truncated to milliseconds.
func FormatRunDuration(start time.Time, end *time.Time) string {
	if end == nil || start.IsZero() {
		return "-"
	}
	return FormatDuration(end.Sub(start))
}

// FormatDuration formats d for display, handling edge cases.
func FormatDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "-"
	case d < time.Millisecond:
		return d.String()
	default:
		return d.Truncate(time.Millisecond).String()
	}
}
