package temporal

import (
	"regexp"
	"strings"
	"time"
)

// Patterns for message scanning.
var (
	tomorrowVariantPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(for|by|on|this|coming)\s+tomorrow\b`),
		regexp.MustCompile(`\btomorrow'?s\b`),
		regexp.MustCompile(`\btmrw\b`),
		regexp.MustCompile(`\btmw\b`),
		regexp.MustCompile(`\btmr\b`),
		regexp.MustCompile(`flight.*\bfor\s+tomorrow\b`),
	}

	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// dayOffsets maps fixed relative keywords to day offsets.
var dayOffsets = map[string]int{
	"today":              0,
	"tonight":            0,
	"tomorrow":           1,
	"tmrw":               1,
	"tmw":                1,
	"tmr":                1,
	"day after tomorrow": 2,
	"next week":          7,
	"in a week":          7,
	"after 7 days":       7,
	"next month":         30,
	"in a month":         30,
}

// firmKeywords are expressions that pin an exact day rather than a loose
// window; ScanMessage marks everything else flexible.
var firmKeywords = map[string]bool{
	"today":    true,
	"tonight":  true,
	"tomorrow": true,
	"tmrw":     true,
	"tmw":      true,
	"tmr":      true,
}

var weekdayNames = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// resolver is the rule-based Resolver implementation.
type resolver struct{}

// NewResolver creates the rule-based temporal resolver.
func NewResolver() Resolver {
	return resolver{}
}

// Resolve parses a single temporal expression against ref.
func (resolver) Resolve(expr string, ref time.Time) (time.Time, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(expr))
	if cleaned == "" {
		return time.Time{}, false
	}
	day := midnight(ref)

	// ISO dates first: pass through when current, re-stamp stale years.
	if isoDatePattern.MatchString(cleaned) {
		parsed, err := time.ParseInLocation("2006-01-02", cleaned, ref.Location())
		if err != nil {
			return time.Time{}, false
		}
		if parsed.Year() >= ref.Year() {
			return parsed, true
		}
		// A year earlier than the reference is almost always a model
		// hallucination: keep the month/day, move to the current year, and
		// roll forward once more if that already passed.
		corrected := time.Date(ref.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, ref.Location())
		if corrected.Before(day) {
			corrected = corrected.AddDate(1, 0, 0)
		}
		return corrected, true
	}

	if offset, ok := dayOffsets[cleaned]; ok {
		return day.AddDate(0, 0, offset), true
	}

	switch cleaned {
	case "weekend", "this weekend", "next weekend":
		return nextSaturday(day), true
	}

	// "next <weekday>" lands one week past the next occurrence.
	if rest, ok := strings.CutPrefix(cleaned, "next "); ok {
		if wd, ok := weekdayIndex(rest); ok {
			return nextWeekday(day, wd).AddDate(0, 0, 7), true
		}
	}
	if wd, ok := weekdayIndex(cleaned); ok {
		return nextWeekday(day, wd), true
	}

	return time.Time{}, false
}

// ScanMessage scans a free-text message for a best-effort single date.
func (r resolver) ScanMessage(msg string, ref time.Time) (Hit, bool) {
	normalized := strings.ToLower(msg)
	day := midnight(ref)

	// Exact phrase pass. Multi-word phrases are checked before their
	// substrings so "next week" never matches as a bare weekday.
	phrases := []string{
		"day after tomorrow", "next weekend", "this weekend", "next week",
		"in a week", "after 7 days", "next month", "in a month",
		"tomorrow", "tmrw", "tmw", "today", "weekend",
	}
	for _, phrase := range phrases {
		if strings.Contains(normalized, phrase) {
			date, ok := r.Resolve(phrase, ref)
			if !ok {
				continue
			}
			return Hit{
				Date:       date,
				Phrase:     phrase,
				Confidence: 0.9,
				Flexible:   !firmKeywords[phrase],
			}, true
		}
	}

	// Pattern pass for variants the exact scan misses.
	for _, re := range tomorrowVariantPatterns {
		if re.MatchString(normalized) {
			return Hit{
				Date:       day.AddDate(0, 0, 1),
				Phrase:     "tomorrow",
				Confidence: 0.9,
			}, true
		}
	}

	// Weekday-name pass.
	for _, name := range weekdayNames {
		if !containsWord(normalized, name) {
			continue
		}
		wd, _ := weekdayIndex(name)
		return Hit{
			Date:       nextWeekday(day, wd),
			Phrase:     name,
			Confidence: 0.8,
		}, true
	}

	return Hit{}, false
}

// midnight truncates t to the start of its day.
func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// nextWeekday returns the next occurrence of wd strictly after today:
// mentioning today's weekday means next week, not today.
func nextWeekday(day time.Time, wd time.Weekday) time.Time {
	diff := (int(wd) - int(day.Weekday()) + 7) % 7
	if diff == 0 {
		diff = 7
	}
	return day.AddDate(0, 0, diff)
}

// nextSaturday returns the upcoming Saturday, rolling a full week when the
// reference day is already on the weekend.
func nextSaturday(day time.Time) time.Time {
	diff := (int(time.Saturday) - int(day.Weekday()) + 7) % 7
	if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		diff += 7
	}
	return day.AddDate(0, 0, diff)
}

func weekdayIndex(name string) (time.Weekday, bool) {
	for i, n := range weekdayNames {
		if n == name {
			// weekdayNames starts at Monday; time.Weekday starts at Sunday.
			return time.Weekday((i + 1) % 7), true
		}
	}
	return 0, false
}

func containsWord(s, word string) bool {
	idx := strings.Index(s, word)
	for idx >= 0 {
		before := idx == 0 || !isLetter(s[idx-1])
		afterIdx := idx + len(word)
		after := afterIdx >= len(s) || !isLetter(s[afterIdx])
		if before && after {
			return true
		}
		next := strings.Index(s[idx+1:], word)
		if next < 0 {
			return false
		}
		idx += 1 + next
	}
	return false
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}
