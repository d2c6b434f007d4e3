package recovery

import (
	"testing"

	"github.com/wayfarerhq/datacore/internal/core/domain"
)

// TestSelectStrategy verifies the severity→strategy mapping is a pure
// function: identical inputs always yield the identical strategy.
func TestSelectStrategy(t *testing.T) {
	tests := []struct {
		name         string
		severity     domain.Severity
		retryCount   int
		hasAlternate bool
		want         domain.Strategy
	}{
		{"critical fails fast", domain.SeverityCritical, 0, true, domain.StrategyFailFast},
		{"critical ignores retries", domain.SeverityCritical, 5, false, domain.StrategyFailFast},
		{"high with alternate", domain.SeverityHigh, 0, true, domain.StrategyAlternativeService},
		{"high without alternate", domain.SeverityHigh, 0, false, domain.StrategyGracefulDegradation},
		{"medium first try", domain.SeverityMedium, 0, false, domain.StrategyRetry},
		{"medium second try", domain.SeverityMedium, 1, false, domain.StrategyRetry},
		{"medium exhausted", domain.SeverityMedium, 2, false, domain.StrategyCachedResponse},
		{"medium well past exhausted", domain.SeverityMedium, 7, true, domain.StrategyCachedResponse},
		{"low degrades", domain.SeverityLow, 0, false, domain.StrategyGracefulDegradation},
		{"low degrades despite alternate", domain.SeverityLow, 0, true, domain.StrategyGracefulDegradation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := 0; i < 3; i++ {
				got := SelectStrategy(tt.severity, tt.retryCount, tt.hasAlternate)
				if got != tt.want {
					t.Fatalf("SelectStrategy(%s, %d, %v) = %s, want %s",
						tt.severity, tt.retryCount, tt.hasAlternate, got, tt.want)
				}
			}
		})
	}
}
