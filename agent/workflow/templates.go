package workflow

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/voyagent/voyagent/agent/intent"
	"github.com/voyagent/voyagent/agent/state"
)

// Template pools give the assistant a consistent voice per session
// without a model call: the session ID hashes to one entry per pool, so
// the same session always greets and apologizes the same way while
// different sessions vary.

var greetingPool = []string{
	"Hi! I'm your travel planning assistant. Where would you like to go?",
	"Hello! Tell me about the trip you have in mind and I'll help you plan it.",
	"Welcome! I can help with flights, hotels and destination ideas. What are you planning?",
}

var clarifyDestinationPool = []string{
	"Where would you like to travel to?",
	"I'd love to help! Which destination do you have in mind?",
	"To get started, where are you thinking of going?",
}

var clarifyDatesPool = []string{
	"When are you planning to travel?",
	"What dates work for your trip?",
	"Got it! When would you like to go?",
}

var clarifyTravelersPool = []string{
	"How many people will be traveling?",
	"Who's coming along? How many adults and children?",
}

var followUpPool = []string{
	"Is there anything else you'd like me to look into for this trip?",
	"Want me to refine any of these options, or look at something else?",
	"Let me know if you'd like different dates, other hotels or anything else.",
}

var thankYouPool = []string{
	"You're welcome! Happy to help with anything else for your trip.",
	"Any time! Let me know if you need more travel help.",
}

var goodbyePool = []string{
	"Safe travels! Come back any time you're planning a trip.",
	"Goodbye, and enjoy your trip!",
}

var apologyPool = []string{
	"I'm sorry, I ran into a problem while %s. Please try again, or rephrase your request. (ref %s)",
	"Apologies, something went wrong while %s. Could you try that again? (ref %s)",
}

var hardStopPool = []string{
	"I'm having repeated trouble with this conversation (ref %s). Starting a fresh session may work better.",
	"Something keeps going wrong on my end (ref %s). It may help to start a new session.",
}

// pick deterministically selects a pool entry for a session.
func pick(sessionID string, pool []string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(sessionID))
	return pool[h.Sum32()%uint32(len(pool))]
}

// socialResponse answers greeting, thanks and goodbye turns.
func socialResponse(sessionID string, in intent.Intent) string {
	switch in {
	case intent.IntentThankYou:
		return pick(sessionID, thankYouPool)
	case intent.IntentGoodbye:
		return pick(sessionID, goodbyePool)
	default:
		return pick(sessionID, greetingPool)
	}
}

// clarificationFor asks about the single highest-priority missing
// parameter.
func clarificationFor(sessionID, param string) string {
	switch param {
	case state.ParamDates:
		return pick(sessionID, clarifyDatesPool)
	case state.ParamTravelers:
		return pick(sessionID, clarifyTravelersPool)
	default:
		return pick(sessionID, clarifyDestinationPool)
	}
}

// apologyFor describes the failed stage in user terms and references
// the tracked error ID.
func apologyFor(sessionID string, stage state.Stage, errorID string, hardStop bool) string {
	if hardStop {
		return fmt.Sprintf(pick(sessionID, hardStopPool), errorID)
	}

	var doing string
	switch stage {
	case state.StageIntentRecognition:
		doing = "reading your message"
	case state.StageParameterExtraction, state.StageParameterValidation:
		doing = "working out your trip details"
	case state.StageSearchExecution:
		doing = "searching for travel options"
	case state.StageResponseGeneration:
		doing = "putting your results together"
	default:
		doing = "processing your request"
	}
	return fmt.Sprintf(pick(sessionID, apologyPool), doing, errorID)
}

// templatedSummary is the response used when the model cannot write
// one. It states the known parameters and the top findings plainly.
func templatedSummary(st *state.SessionState) string {
	var b strings.Builder

	if dest := st.PrimaryDestination(); dest != nil {
		fmt.Fprintf(&b, "Here's what I found for your trip to %s", dest.Name)
		if origin := st.PrimaryOrigin(); origin != nil {
			fmt.Fprintf(&b, " from %s", origin.Name)
		}
		if date := st.PrimaryDateRange(); date != nil && date.Value != "" {
			fmt.Fprintf(&b, " on %s", date.Value)
		}
		b.WriteString(".\n")
	} else {
		b.WriteString("Here's what I found.\n")
	}

	for kind, results := range st.SearchResults {
		if len(results) == 0 {
			continue
		}
		latest := results[len(results)-1]
		items, _ := latest.Payload["results"].([]any)
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n", capitalize(kind))
		for i, raw := range items {
			if i >= 3 {
				break
			}
			item, _ := raw.(map[string]any)
			title, _ := item["title"].(string)
			link, _ := item["link"].(string)
			if title == "" {
				continue
			}
			fmt.Fprintf(&b, "- %s (%s)\n", title, link)
		}
	}

	b.WriteString("\n" + pick(st.SessionID, followUpPool))
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
