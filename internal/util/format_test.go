package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatHoursMinutes(t *testing.T) {
	tests := []struct {
		name     string
		minutes  int
		expected string
	}{
		{name: "zero", minutes: 0, expected: "00:00"},
		{name: "under_an_hour", minutes: 45, expected: "00:45"},
		{name: "exactly_one_hour", minutes: 60, expected: "01:00"},
		{name: "ninety_minutes", minutes: 90, expected: "01:30"},
		{name: "long_stretch", minutes: 25*60 + 5, expected: "25:05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatHoursMinutes(tt.minutes))
		})
	}
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "abc  ", PadRight("abc", 5))
	assert.Equal(t, "abcdef", PadRight("abcdef", 5))
	// Wide runes count as two columns.
	assert.Equal(t, "日本 ", PadRight("日本", 5))
}

func TestMaxWidth(t *testing.T) {
	assert.Equal(t, 0, MaxWidth(nil))
	assert.Equal(t, 6, MaxWidth([]string{"ab", "abcdef", "cd"}))
	assert.Equal(t, 4, MaxWidth([]string{"日本", "abc"}))
}
