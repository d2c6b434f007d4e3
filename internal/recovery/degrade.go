package recovery

import (
	"context"
	"strings"

	"github.com/wayfarerhq/datacore/internal/core/domain"
)

// DegradedResponse is a reduced-functionality but well-formed answer
// returned when no other recovery path succeeds.
type DegradedResponse struct {
	Category    string   `json:"category"`
	Message     string   `json:"message"`
	Suggestions []string `json:"suggestions"`
	Degraded    bool     `json:"degraded"`
}

// degradedResponses maps coarse service categories to user-facing
// fallbacks.
var degradedResponses = map[string]DegradedResponse{
	"flights": {
		Category: "flights",
		Message:  "Live flight search is temporarily unavailable.",
		Suggestions: []string{
			"Try again in a few minutes",
			"Check airline websites directly for current fares",
			"Saved flight results may still be available in your trip",
		},
	},
	"accommodations": {
		Category: "accommodations",
		Message:  "Accommodation search is temporarily unavailable.",
		Suggestions: []string{
			"Try again in a few minutes",
			"Previously saved stays remain in your itinerary",
			"Check booking sites directly for availability",
		},
	},
	"maps": {
		Category: "maps",
		Message:  "Map and location services are temporarily unavailable.",
		Suggestions: []string{
			"Distances and travel times may be missing from results",
			"Addresses are still shown where known",
		},
	},
	"general": {
		Category: "general",
		Message:  "This service is temporarily unavailable.",
		Suggestions: []string{
			"Try again shortly",
			"Your itinerary data is unaffected",
		},
	},
}

// categoryFor maps a failing service to its coarse category: explicit
// mapping first, then name-based inference. Empty means unknown.
func (s *Service) categoryFor(service string) string {
	s.mu.Lock()
	if cat, ok := s.serviceCategories[service]; ok {
		s.mu.Unlock()
		return cat
	}
	s.mu.Unlock()

	lower := strings.ToLower(service)
	switch {
	case strings.Contains(lower, "flight"):
		return "flights"
	case strings.Contains(lower, "hotel"),
		strings.Contains(lower, "accommodation"),
		strings.Contains(lower, "lodging"):
		return "accommodations"
	case strings.Contains(lower, "map"),
		strings.Contains(lower, "place"),
		strings.Contains(lower, "geo"):
		return "maps"
	case strings.Contains(lower, "db"),
		strings.Contains(lower, "database"),
		strings.Contains(lower, "weather"),
		strings.Contains(lower, "calendar"):
		return "general"
	default:
		return ""
	}
}

// executeDegradation returns the structured degraded response for the
// service's category. Unknown categories yield failure.
func (s *Service) executeDegradation(call Call) *domain.RecoveryResult {
	category := s.categoryFor(call.Service)
	resp, ok := degradedResponses[category]
	if !ok {
		return failure(domain.StrategyGracefulDegradation,
			"no degraded response available for service "+call.Service)
	}
	resp.Degraded = true

	return &domain.RecoveryResult{
		Success:  true,
		Strategy: domain.StrategyGracefulDegradation,
		Result:   resp,
		Metadata: map[string]any{"category": category},
	}
}

// executeCached answers from the fallback cache when a valid entry
// exists for the call's normalized key.
func (s *Service) executeCached(ctx context.Context, call Call) *domain.RecoveryResult {
	data, ok, err := s.cache.Get(ctx, call.Service, call.Method, call.Params)
	if err != nil {
		return failure(domain.StrategyCachedResponse, "cache lookup failed: "+err.Error())
	}
	if !ok {
		return failure(domain.StrategyCachedResponse, "no valid cached response available")
	}
	return &domain.RecoveryResult{
		Success:  true,
		Strategy: domain.StrategyCachedResponse,
		Result:   data,
		Metadata: map[string]any{"cache_hit": true},
	}
}
