package search

import "fmt"

// Fallback results keep a conversation moving when the search provider
// is unavailable. They are generic pointers rather than live data, and
// every caller can see that from the source field.

// FallbackResults returns canned degraded results for a kind.
func FallbackResults(kind, query string) *Results {
	results := &Results{Query: query, Kind: kind, Source: "fallback"}

	switch kind {
	case KindFlight:
		results.Organic = []Organic{
			{Title: "Google Flights", Link: "https://www.google.com/travel/flights", Snippet: "Compare flight prices and schedules across airlines."},
			{Title: "Skyscanner", Link: "https://www.skyscanner.net", Snippet: "Search flights from hundreds of airlines and agents."},
		}
	case KindHotel:
		results.Organic = []Organic{
			{Title: "Booking.com", Link: "https://www.booking.com", Snippet: "Find hotels with free cancellation on most rooms."},
			{Title: "Hotels.com", Link: "https://www.hotels.com", Snippet: "Browse hotel deals and guest reviews."},
		}
	case KindWeather:
		results.Organic = []Organic{
			{Title: "Weather.com", Link: "https://weather.com", Snippet: "Check the latest forecast before you travel."},
		}
	case KindVisa:
		results.Organic = []Organic{
			{Title: "IATA Travel Centre", Link: "https://www.iatatravelcentre.com", Snippet: "Official visa and passport requirement information."},
		}
	default:
		results.Organic = []Organic{
			{Title: "Wikivoyage", Link: "https://en.wikivoyage.org", Snippet: "Free worldwide travel guide with destination overviews."},
			{Title: "Lonely Planet", Link: "https://www.lonelyplanet.com", Snippet: fmt.Sprintf("Destination guides and travel tips for %s.", query)},
		}
	}
	return results
}
