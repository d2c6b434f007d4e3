package recovery

import (
	"context"
	"fmt"

	"github.com/wayfarerhq/datacore/internal/core/domain"
)

// AdaptedParams is the typed wrapper handed to an alternate provider.
// It carries the source and target provider names explicitly so the
// adaptation is visible in the type system rather than smuggled
// through ad hoc map keys.
type AdaptedParams struct {
	AdaptedFrom string         `json:"adapted_from"`
	AdaptedTo   string         `json:"adapted_to"`
	Params      map[string]any `json:"params"`
}

// Alternate is a substitute provider registered for a category.
type Alternate struct {
	Name string
	// Available reports whether the alternate can take traffic right
	// now; nil means always available.
	Available func(ctx context.Context) bool
	Invoke    func(ctx context.Context, params AdaptedParams) (any, error)
}

// RegisterAlternate registers an alternate provider for a category
// (e.g. "flights", "accommodations").
func (s *Service) RegisterAlternate(category string, alt Alternate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alternates[category] = append(s.alternates[category], alt)
}

// hasAlternate reports whether any alternate other than the failing
// service itself is registered for the service's category.
func (s *Service) hasAlternate(service string) bool {
	return len(s.alternatesFor(service)) > 0
}

func (s *Service) alternatesFor(service string) []Alternate {
	category := s.categoryFor(service)
	if category == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Alternate
	for _, alt := range s.alternates[category] {
		if alt.Name != service {
			out = append(out, alt)
		}
	}
	return out
}

// executeAlternative tries each registered alternate in order,
// adapting the parameters into a typed wrapper. No alternates at all
// is a distinct outcome from every alternate failing.
func (s *Service) executeAlternative(ctx context.Context, call Call) *domain.RecoveryResult {
	alts := s.alternatesFor(call.Service)
	if len(alts) == 0 {
		return failure(domain.StrategyAlternativeService, "no alternative services available")
	}

	var lastErr error
	for _, alt := range alts {
		if alt.Available != nil && !alt.Available(ctx) {
			s.log.Debug("Alternate unavailable", "service", call.Service, "alternate", alt.Name)
			continue
		}

		adapted := AdaptedParams{
			AdaptedFrom: call.Service,
			AdaptedTo:   alt.Name,
			Params:      call.Params,
		}
		out, err := alt.Invoke(ctx, adapted)
		if err != nil {
			lastErr = err
			s.log.Warn("Alternate failed", "alternate", alt.Name, "error", err)
			continue
		}

		return &domain.RecoveryResult{
			Success:  true,
			Strategy: domain.StrategyAlternativeService,
			Result:   out,
			Metadata: map[string]any{
				"alternative_service": alt.Name,
				"adapted_from":        call.Service,
			},
		}
	}

	if lastErr != nil {
		return failure(domain.StrategyAlternativeService,
			fmt.Sprintf("every alternative service failed: %v", lastErr))
	}
	return failure(domain.StrategyAlternativeService, "no alternative services currently available")
}
