package intent

import (
	"regexp"
	"strings"
)

// RuleMatcher is the first classification layer. It scores weighted
// travel keywords against the message and answers without any model
// call when the signal is strong enough.
type RuleMatcher struct {
	bookKeywords    map[string]int
	infoKeywords    map[string]int
	modifyKeywords  map[string]int
	compareKeywords map[string]int
	routePatterns   []*regexp.Regexp
}

// NewRuleMatcher creates a rule matcher with predefined keyword weights.
func NewRuleMatcher() *RuleMatcher {
	return &RuleMatcher{
		// Booking keywords: weight +2 for core, +1 for supporting
		bookKeywords: map[string]int{
			"book": 2, "flight": 2, "hotel": 2, "trip": 2, "travel": 2,
			"fly": 2, "ticket": 2, "reserve": 2, "vacation": 2,
			"stay": 1, "visit": 1, "go": 1, "need": 1, "want": 1,
			"tomorrow": 1, "tonight": 1, "weekend": 1, "week": 1,
		},
		infoKeywords: map[string]int{
			"what": 2, "where": 2, "when": 2, "how": 2, "tell": 2,
			"weather": 2, "visa": 2, "currency": 2, "best time": 2,
			"about": 1, "info": 1, "information": 1, "know": 1,
		},
		modifyKeywords: map[string]int{
			"change": 2, "instead": 2, "actually": 2, "update": 2,
			"switch": 2, "cancel": 2, "rather": 1, "make it": 2,
			"different": 1, "another": 1,
		},
		compareKeywords: map[string]int{
			"compare": 2, "versus": 2, "vs": 2, "better": 2, "cheaper": 2,
			"difference": 2, "which": 1, "or": 1, "between": 1,
		},
		// Explicit origin/destination phrasing is a strong booking signal.
		routePatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bfrom\s+\w+\s+to\s+\w+\b`),
			regexp.MustCompile(`(?i)\bfly(?:ing)?\s+to\s+\w+\b`),
			regexp.MustCompile(`(?i)\b[A-Z]{3}\s+to\s+[A-Z]{3}\b`),
		},
	}
}

var (
	greetingPhrases = []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening", "howdy"}
	thanksPhrases   = []string{"thank", "thanks", "thx", "appreciate"}
	goodbyePhrases  = []string{"bye", "goodbye", "see you", "later", "that's all", "good night"}
)

// Match attempts to classify the message by rules alone.
// Returns the intent, a normalized confidence, and whether a rule fired.
func (m *RuleMatcher) Match(input string) (Intent, float32, bool) {
	lower := strings.ToLower(strings.TrimSpace(input))
	if lower == "" {
		return IntentUnknown, 0, false
	}

	// Short social messages take priority over keyword scores.
	if social, ok := m.matchSocial(lower); ok {
		return social, 0.95, true
	}

	bookScore := scoreKeywords(lower, m.bookKeywords)
	infoScore := scoreKeywords(lower, m.infoKeywords)
	modifyScore := scoreKeywords(lower, m.modifyKeywords)
	compareScore := scoreKeywords(lower, m.compareKeywords)

	for _, p := range m.routePatterns {
		if p.MatchString(input) {
			bookScore += 2
			break
		}
	}

	// Modification and comparison phrasing win over booking keywords,
	// since those messages usually mention flights or hotels too.
	if modifyScore >= 3 && hasCoreKeyword(lower, m.modifyKeywords) {
		return IntentModifyParameters, normalizeConfidence(modifyScore, 5), true
	}

	if compareScore >= 3 && hasCoreKeyword(lower, m.compareKeywords) {
		return IntentCompareOptions, normalizeConfidence(compareScore, 5), true
	}

	if bookScore >= 3 && hasCoreKeyword(lower, m.bookKeywords) {
		return IntentBookTrip, normalizeConfidence(bookScore, 6), true
	}

	if infoScore >= 3 && hasCoreKeyword(lower, m.infoKeywords) {
		return IntentGetInformation, normalizeConfidence(infoScore, 5), true
	}

	return IntentUnknown, 0, false
}

// matchSocial handles greetings, thanks and goodbyes. These only fire
// on short messages so "hi, I need a flight to Tokyo" still routes to
// booking.
func (m *RuleMatcher) matchSocial(lower string) (Intent, bool) {
	words := strings.Fields(lower)
	if len(words) > 6 {
		return IntentUnknown, false
	}

	for _, p := range thanksPhrases {
		if strings.Contains(lower, p) {
			return IntentThankYou, true
		}
	}
	for _, p := range goodbyePhrases {
		if strings.Contains(lower, p) {
			return IntentGoodbye, true
		}
	}
	for _, p := range greetingPhrases {
		if containsWord(lower, p) {
			return IntentGreeting, true
		}
	}
	return IntentUnknown, false
}

// scoreKeywords sums the weights of keywords present in the input.
// Single words match on word boundaries; phrases match as substrings.
func scoreKeywords(input string, keywords map[string]int) int {
	score := 0
	for keyword, weight := range keywords {
		if strings.Contains(keyword, " ") {
			if strings.Contains(input, keyword) {
				score += weight
			}
		} else if containsWord(input, keyword) {
			score += weight
		}
	}
	return score
}

// hasCoreKeyword reports whether any weight-2 keyword is present.
func hasCoreKeyword(input string, keywords map[string]int) bool {
	for keyword, weight := range keywords {
		if weight < 2 {
			continue
		}
		if strings.Contains(keyword, " ") {
			if strings.Contains(input, keyword) {
				return true
			}
		} else if containsWord(input, keyword) {
			return true
		}
	}
	return false
}

// containsWord reports whether w occurs as a whole word in s.
func containsWord(s, w string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], w)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(w)
		beforeOK := start == 0 || !isWordChar(s[start-1])
		afterOK := end == len(s) || !isWordChar(s[end])
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// normalizeConfidence maps a keyword score to a 0-1 confidence.
func normalizeConfidence(score, maxScore int) float32 {
	if score >= maxScore {
		return 0.95
	}
	return float32(score) / float32(maxScore)
}
