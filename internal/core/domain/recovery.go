package domain

import "time"

// Severity is a coarse classification of an error's impact.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Strategy identifies a recovery strategy.
type Strategy string

const (
	StrategyRetry               Strategy = "RETRY"
	StrategyAlternativeService  Strategy = "ALTERNATIVE_SERVICE"
	StrategyCachedResponse      Strategy = "CACHED_RESPONSE"
	StrategyGracefulDegradation Strategy = "GRACEFUL_DEGRADATION"
	StrategyFailFast            Strategy = "FAIL_FAST"
)

// ErrorRecord is appended to the bounded recovery history for every
// handled failure.
type ErrorRecord struct {
	ID            string    `json:"id"`
	Service       string    `json:"service"`
	Method        string    `json:"method"`
	Severity      Severity  `json:"severity"`
	RetryCount    int       `json:"retry_count"`
	Timestamp     time.Time `json:"timestamp"`
	OriginalError string    `json:"original_error"`
}

// RecoveryResult is returned by the recovery engine for every handled
// failure, whether or not recovery succeeded.
type RecoveryResult struct {
	Success       bool           `json:"success"`
	Strategy      Strategy       `json:"strategy_used"`
	Result        any            `json:"result,omitempty"`
	Error         string         `json:"error,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
	ExecutionTime time.Duration  `json:"execution_time"`
}
