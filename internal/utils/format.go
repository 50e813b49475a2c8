package utils

import (
	"fmt"
	"strings"
	"time"
)

const timestampLayout = "2006-01-02 15:04"

// FormatByteCount converts a byte length into a human-readable lower-case unit string.
func FormatByteCount(byteCount int64) string {
	if byteCount < 0 {
		return "0b"
	}
	units := []string{"b", "kb", "mb", "gb"}
	value := float64(byteCount)
	unitIndex := 0
	for value >= 1024 && unitIndex < len(units)-1 {
		value /= 1024
		unitIndex++
	}
	if unitIndex == 0 {
		return fmt.Sprintf("%db", byteCount)
	}
	if value < 10 {
		return strings.TrimSuffix(fmt.Sprintf("%.1f", value), ".0") + units[unitIndex]
	}
	return fmt.Sprintf("%.0f%s", value, units[unitIndex])
}

// FormatEditedTime renders an RFC 3339 timestamp in the given location. Unparseable input is returned unchanged.
func FormatEditedTime(raw string, location *time.Location) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	parsed, parseErr := time.Parse(time.RFC3339, trimmed)
	if parseErr != nil {
		return trimmed
	}
	if location == nil {
		location = time.Local
	}
	return parsed.In(location).Format(timestampLayout)
}
