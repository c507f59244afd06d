package util

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// FormatHoursMinutes renders a minute total as zero-padded HH:MM.
func FormatHoursMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// PadRight pads s with spaces to the given display width, accounting
// for wide runes so tabular output stays aligned.
func PadRight(s string, width int) string {
	gap := width - runewidth.StringWidth(s)
	if gap <= 0 {
		return s
	}
	return s + strings.Repeat(" ", gap)
}

// MaxWidth returns the widest display width among the given strings.
func MaxWidth(items []string) int {
	max := 0
	for _, item := range items {
		if w := runewidth.StringWidth(item); w > max {
			max = w
		}
	}
	return max
}
