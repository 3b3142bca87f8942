package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2025-04-18 is a Friday.
var ref = time.Date(2025, 4, 18, 10, 30, 0, 0, time.UTC)

func TestResolve_RelativeKeywords(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name     string
		input    string
		wantDate string
	}{
		{"today", "today", "2025-04-18"},
		{"tomorrow", "tomorrow", "2025-04-19"},
		{"tmrw abbreviation", "tmrw", "2025-04-19"},
		{"tmw abbreviation", "tmw", "2025-04-19"},
		{"tmr abbreviation", "tmr", "2025-04-19"},
		{"day after tomorrow", "day after tomorrow", "2025-04-20"},
		{"next week", "next week", "2025-04-25"},
		{"in a week", "in a week", "2025-04-25"},
		{"next month", "next month", "2025-05-18"},
		{"case and spacing", "  Tomorrow ", "2025-04-19"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.input, ref)
			require.True(t, ok)
			assert.Equal(t, tt.wantDate, ISO(got))
		})
	}
}

func TestResolve_Weekdays(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name     string
		input    string
		wantDate string
	}{
		{"next occurrence", "monday", "2025-04-21"},
		{"saturday", "saturday", "2025-04-19"},
		{"same weekday rolls a week", "friday", "2025-04-25"},
		{"next weekday adds a week", "next monday", "2025-04-28"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.Resolve(tt.input, ref)
			require.True(t, ok)
			assert.Equal(t, tt.wantDate, ISO(got))
		})
	}
}

func TestResolve_Weekend(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name     string
		ref      time.Time
		wantDate string
	}{
		{"friday gives next saturday", time.Date(2025, 4, 18, 0, 0, 0, 0, time.UTC), "2025-04-19"},
		{"monday gives coming saturday", time.Date(2025, 4, 14, 0, 0, 0, 0, time.UTC), "2025-04-19"},
		{"saturday rolls a week", time.Date(2025, 4, 19, 0, 0, 0, 0, time.UTC), "2025-04-26"},
		{"sunday rolls a week", time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC), "2025-05-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, expr := range []string{"weekend", "this weekend", "next weekend"} {
				got, ok := r.Resolve(expr, tt.ref)
				require.True(t, ok, expr)
				assert.Equal(t, tt.wantDate, ISO(got), expr)
			}
		})
	}
}

func TestResolve_StaleYearCorrection(t *testing.T) {
	r := NewResolver()

	got, ok := r.Resolve("2023-04-20", ref)
	require.True(t, ok)
	assert.Equal(t, "2025-04-20", ISO(got))

	// Month/day already past this year: roll one more year forward.
	got, ok = r.Resolve("2023-01-05", ref)
	require.True(t, ok)
	assert.Equal(t, "2026-01-05", ISO(got))
}

func TestResolve_Idempotent(t *testing.T) {
	r := NewResolver()

	for _, iso := range []string{"2025-04-18", "2025-04-19", "2025-12-31", "2026-01-01"} {
		got, ok := r.Resolve(iso, ref)
		require.True(t, ok, iso)
		assert.Equal(t, iso, ISO(got))

		// Resolving the output again changes nothing.
		again, ok := r.Resolve(ISO(got), ref)
		require.True(t, ok)
		assert.Equal(t, got, again)
	}
}

func TestResolve_UnrecognizedInput(t *testing.T) {
	r := NewResolver()

	for _, input := range []string{"", "sometime nice", "04/20/2025", "in two fortnights"} {
		_, ok := r.Resolve(input, ref)
		assert.False(t, ok, input)
	}
}

func TestScanMessage_TomorrowFamily(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name string
		msg  string
	}{
		{"plain", "I need a hotel tomorrow"},
		{"abbreviation", "book it for tmrw please"},
		{"for-variant", "I need a flight from DMM to BKK for tomorrow"},
		{"possessive", "what about tomorrow's flights"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := r.ScanMessage(tt.msg, ref)
			require.True(t, ok)
			assert.Equal(t, "2025-04-19", ISO(hit.Date))
			assert.Equal(t, 0.9, hit.Confidence)
			assert.False(t, hit.Flexible)
		})
	}
}

func TestScanMessage_PhrasePrecedence(t *testing.T) {
	r := NewResolver()

	// "next week" must win over the bare weekday inside the message.
	hit, ok := r.ScanMessage("flights to Rome next week, maybe wednesday", ref)
	require.True(t, ok)
	assert.Equal(t, "next week", hit.Phrase)
	assert.Equal(t, "2025-04-25", ISO(hit.Date))
	assert.True(t, hit.Flexible)
}

func TestScanMessage_WeekdayFallback(t *testing.T) {
	r := NewResolver()

	hit, ok := r.ScanMessage("I want to fly to Rome on Wednesday", ref)
	require.True(t, ok)
	assert.Equal(t, "wednesday", hit.Phrase)
	assert.Equal(t, "2025-04-23", ISO(hit.Date))
	assert.Equal(t, 0.8, hit.Confidence)
}

func TestScanMessage_NoMatch(t *testing.T) {
	r := NewResolver()

	_, ok := r.ScanMessage("I want to go to Paris", ref)
	assert.False(t, ok)
}
