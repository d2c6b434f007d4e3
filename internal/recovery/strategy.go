package recovery

import "github.com/wayfarerhq/datacore/internal/core/domain"

// maxAttempts is the total number of attempts the RETRY strategy makes.
const maxAttempts = 3

// retryCeiling is the retry_count at which MEDIUM failures switch
// from RETRY to CACHED_RESPONSE.
const retryCeiling = 2

// SelectStrategy picks the recovery strategy for a failure. It is a
// pure function of severity, the caller's retry count, and whether an
// alternate provider is registered for the service's category.
func SelectStrategy(severity domain.Severity, retryCount int, hasAlternate bool) domain.Strategy {
	switch severity {
	case domain.SeverityCritical:
		return domain.StrategyFailFast
	case domain.SeverityHigh:
		if hasAlternate {
			return domain.StrategyAlternativeService
		}
		return domain.StrategyGracefulDegradation
	case domain.SeverityMedium:
		if retryCount < retryCeiling {
			return domain.StrategyRetry
		}
		return domain.StrategyCachedResponse
	default:
		return domain.StrategyGracefulDegradation
	}
}
