package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/voyagent/voyagent/agent/errtrack"
	"github.com/voyagent/voyagent/agent/search"
	"github.com/voyagent/voyagent/agent/state"
)

type subSearch struct {
	kind     string
	query    string
	location string
}

// stageSearch runs the sub-searches for the turn concurrently. Each
// sub-search retries and falls back on its own; one failing never
// aborts its siblings, and the turn proceeds with whatever subset
// succeeded. The turn is flagged degraded when any sub-search had to
// fall back.
func (e *Engine) stageSearch(ctx context.Context, st *state.SessionState, turn *Turn) (state.Stage, bool, error) {
	searches := e.buildSearches(st)
	if len(searches) == 0 {
		return state.StageResponseGeneration, false, nil
	}

	results := make([]*search.Results, len(searches))
	degraded := make([]bool, len(searches))

	g, gctx := errgroup.WithContext(ctx)
	for i, ss := range searches {
		i, ss := i, ss
		g.Go(func() error {
			results[i], degraded[i] = e.runSubSearch(gctx, st.SessionID, ss)
			return nil
		})
	}
	_ = g.Wait()

	now := e.now()
	for i, r := range results {
		if r == nil {
			continue
		}
		st.AddSearchResult(state.SearchResult{
			Kind:      r.Kind,
			Source:    r.Source,
			Timestamp: now,
			Payload:   resultPayload(r),
		})
		if degraded[i] {
			turn.Degraded = true
		}
	}

	return state.StageResponseGeneration, false, nil
}

// runSubSearch executes one search with its own rate check, retry and
// fallback. The second return value reports whether the result is a
// degraded fallback.
func (e *Engine) runSubSearch(ctx context.Context, sessionID string, ss subSearch) (*search.Results, bool) {
	if e.cfg.Limiter != nil {
		if limited, _ := e.cfg.Limiter.IsLimited("search", sessionID, e.cfg.SearchLimit, e.cfg.SearchWindow); limited {
			// A limited response gets the same treatment as a transient
			// provider failure.
			e.searchTracker.Track(
				errtrack.NewSearchError(fmt.Errorf("search rate limited for kind %s", ss.kind), true),
				errtrack.SeverityWarning,
				map[string]any{"session_id": sessionID, "kind": ss.kind})
			return search.FallbackResults(ss.kind, ss.query), true
		}
	}

	var r *search.Results
	err := e.searchTracker.Retry(ctx, 2, 200*time.Millisecond, func() error {
		var err error
		r, err = e.cfg.Search.Search(ctx, ss.query, ss.kind, ss.location)
		return err
	})
	if err != nil {
		return search.FallbackResults(ss.kind, ss.query), true
	}
	return r, false
}

// buildSearches decides which sub-searches this turn needs from the
// extracted parameters.
func (e *Engine) buildSearches(st *state.SessionState) []subSearch {
	dest := st.PrimaryDestination()
	if dest == nil {
		// Information turns can land here without extraction; search
		// the raw message as a destination query.
		if msg := st.LatestUserMessage(); msg != "" {
			return []subSearch{{kind: search.KindDestination, query: search.DestinationQuery(msg)}}
		}
		return nil
	}

	var departure, ret string
	if date := st.PrimaryDateRange(); date != nil {
		if date.Range {
			departure, ret = date.Start, date.End
		} else {
			departure = date.Value
		}
	}

	searches := []subSearch{
		{kind: search.KindDestination, query: search.DestinationQuery(dest.Name)},
	}

	if origin := st.PrimaryOrigin(); origin != nil {
		searches = append(searches, subSearch{
			kind:  search.KindFlight,
			query: search.FlightsQuery(origin.Name, dest.Name, departure, tripType(st)),
		})
	}

	guests := 0
	if st.Travelers != nil {
		guests = st.Travelers.Total()
	}
	searches = append(searches, subSearch{
		kind:     search.KindHotel,
		query:    search.HotelsQuery(dest.Name, departure, ret, guests, hotelPreferences(st)),
		location: dest.Name,
	})

	if departure != "" {
		searches = append(searches, subSearch{
			kind:     search.KindWeather,
			query:    search.WeatherQuery(dest.Name, departure),
			location: dest.Name,
		})
	}

	// Visa requirements only make sense between two countries, so the
	// sub-search additionally needs an origin.
	if mentionsVisa(st.LatestUserMessage()) {
		if origin := st.PrimaryOrigin(); origin != nil {
			searches = append(searches, subSearch{
				kind:  search.KindVisa,
				query: search.VisaQuery(countryOrName(origin), countryOrName(dest)),
			})
		}
	}

	return searches
}

var visaTerms = []string{"visa", "passport", "requirement", "document"}

func mentionsVisa(message string) bool {
	lower := strings.ToLower(message)
	for _, term := range visaTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

func countryOrName(loc *state.LocationParameter) string {
	if loc.Country != "" {
		return loc.Country
	}
	return loc.Name
}

// tripType reads the trip_type preference recorded under the flight
// category, if any.
func tripType(st *state.SessionState) string {
	for _, p := range st.Preferences {
		if !strings.EqualFold(p.Category, "flight") {
			continue
		}
		for _, term := range p.Preferences {
			if v, ok := strings.CutPrefix(term, "trip_type:"); ok {
				return v
			}
		}
	}
	return ""
}

// hotelPreferences collects terms from the hotel preference category.
func hotelPreferences(st *state.SessionState) []string {
	for _, p := range st.Preferences {
		if strings.EqualFold(p.Category, "hotel") {
			return p.Preferences
		}
	}
	return nil
}

// resultPayload converts provider results into the session's generic
// payload shape, which survives JSON round trips unchanged.
func resultPayload(r *search.Results) map[string]any {
	payload := map[string]any{"query": r.Query}
	items := make([]any, 0, len(r.Organic))
	for _, o := range r.Organic {
		items = append(items, map[string]any{
			"title":   o.Title,
			"link":    o.Link,
			"snippet": o.Snippet,
		})
	}
	payload["results"] = items
	return payload
}
