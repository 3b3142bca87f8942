package search

import (
	"fmt"
	"strings"
)

// Query builders turn extracted trip parameters into web search query
// strings. Keeping them here means every caller searches for the same
// thing the same way, which also keeps the cache warm.

// FlightsQuery builds a flight search query.
func FlightsQuery(origin, destination, date, tripType string) string {
	parts := []string{fmt.Sprintf("flights from %s to %s", origin, destination)}
	if date != "" {
		parts = append(parts, "on "+date)
	}
	if tripType == "one_way" {
		parts = append(parts, "one way")
	} else if tripType == "round_trip" {
		parts = append(parts, "round trip")
	}
	return strings.Join(parts, " ")
}

// HotelsQuery builds a hotel search query.
func HotelsQuery(location, checkIn, checkOut string, guests int, prefs []string) string {
	parts := []string{"best hotels in " + location}
	if checkIn != "" && checkOut != "" {
		parts = append(parts, fmt.Sprintf("from %s to %s", checkIn, checkOut))
	} else if checkIn != "" {
		parts = append(parts, "on "+checkIn)
	}
	if guests > 0 {
		parts = append(parts, fmt.Sprintf("for %d people", guests))
	}
	for _, p := range prefs {
		// Stored preference terms look like "near:beach".
		if _, term, found := strings.Cut(p, ":"); found {
			parts = append(parts, term)
		} else {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// DestinationQuery builds a destination guide query.
func DestinationQuery(destination string) string {
	return fmt.Sprintf("travel guide to %s things to do attractions", destination)
}

// WeatherQuery builds a weather forecast query.
func WeatherQuery(location, date string) string {
	if date == "" {
		return "weather forecast " + location
	}
	return fmt.Sprintf("weather forecast %s on %s", location, date)
}

// VisaQuery builds a visa requirements query.
func VisaQuery(fromCountry, toCountry string) string {
	return fmt.Sprintf("visa requirements for %s citizens traveling to %s", fromCountry, toCountry)
}
