package media

import (
	"fmt"
	"time"
)

// FormatDuration renders d as MM:SS, or HH:MM:SS from one hour up.
//
//	FormatDuration(64 * time.Second)   // "01:04"
//	FormatDuration(5422 * time.Second) // "01:30:22"
func FormatDuration(d time.Duration) string {
	seconds := int(d.Seconds()) % 60
	minutes := int(d.Minutes()) % 60
	hours := int(d.Hours())
	if hours >= 1 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
