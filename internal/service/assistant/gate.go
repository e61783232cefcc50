package assistant

import (
	"math/rand"
	"strings"
)

// travelKeywords is the allow-list the domain gate matches against. The gate
// is a cost-control filter, not a classifier: travel phrasings missing from
// this list are rejected, an accepted trade-off.
var travelKeywords = []string{
	"travel", "trip", "vacation", "holiday", "destination", "city", "country",
	"hotel", "flight", "packing", "luggage", "itinerary", "tour", "sightseeing",
	"beach", "mountain", "weather", "climate", "visa", "passport", "currency",
	"local", "culture", "food", "restaurant", "accommodation", "transport",
	"safety", "insurance", "budget", "plan", "recommend", "visit", "go to",
	"best time", "what to see", "things to do", "where to stay", "how to get",
}

// outOfScopeResponses is the fixed pool of canned replies for non-travel input.
var outOfScopeResponses = []string{
	"I specialize in travel planning and destination advice. How can I help with your travel questions?",
	"As your travel companion, I focus on trips, destinations, and travel planning. What travel plans can I assist with?",
	"I'm here to help with travel-related questions like trip planning, packing, and destination advice. How can I assist with your travel needs?",
	"Let's focus on travel! I can help you plan trips, suggest destinations, or create packing lists.",
}

// IsTravelRelated reports whether the input contains any travel keyword,
// case-insensitively.
func IsTravelRelated(input string) bool {
	lower := strings.ToLower(input)
	for _, keyword := range travelKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// Selector picks an index in [0, n). It is injectable so tests can pin the
// canned response choice.
type Selector func(n int) int

func defaultSelector(n int) int {
	return rand.Intn(n)
}

// outOfScopeResponse returns one of the canned replies.
func (s *Service) outOfScopeResponse() string {
	return outOfScopeResponses[s.selector(len(outOfScopeResponses))]
}
