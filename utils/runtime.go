package utils

import "fmt"

// FormatRuntime renders a runtime in minutes as "2h 9m" (or "45m" under an
// hour). Non-positive runtimes yield an empty string.
func FormatRuntime(minutes int) string {
	if minutes <= 0 {
		return ""
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	return fmt.Sprintf("%dm", mins)
}
